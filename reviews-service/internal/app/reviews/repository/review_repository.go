package repository

import (
	"context"

	"shopreviews/pkg/metrics"
	"shopreviews/reviews-service/internal/app/reviews/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const reviewsTable = "reviews"

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create пишет строку отзыва с customer_id и item_id, связанные записи не трогает.
// Несуществующий покупатель или товар дают ErrForeignKey
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, reviewsTable)
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error
	timer.Done(err)
	return translateError(err)
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64) (*entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, reviewsTable)

	var review entity.Review
	err := r.withGraph(ctx).First(&review, "id = ?", id).Error
	observe(timer, err)
	if err != nil {
		return nil, notFound(err, ErrReviewNotFound)
	}

	linkReview(&review)
	return &review, nil
}

func (r *reviewRepository) GetAll(ctx context.Context) ([]*entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, reviewsTable)

	var reviews []*entity.Review
	err := r.withGraph(ctx).Order("id").Find(&reviews).Error
	timer.Done(err)
	if err != nil {
		return nil, err
	}

	for _, review := range reviews {
		linkReview(review)
	}
	return reviews, nil
}

// Update меняет комментарий и владельцев отзыва
func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, reviewsTable)
	result := r.db.WithContext(ctx).Model(&entity.Review{}).
		Where("id = ?", review.ID).
		Updates(map[string]interface{}{
			"comment":     review.Comment,
			"customer_id": review.CustomerID,
			"item_id":     review.ItemID,
		})
	timer.Done(result.Error)

	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id int64) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, reviewsTable)
	result := r.db.WithContext(ctx).Delete(&entity.Review{}, "id = ?", id)
	timer.Done(result.Error)

	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepository) withGraph(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Item")
}

// linkReview кладет отзыв в коллекции загруженных владельцев.
// Коллекции содержат только этот отзыв, остальные отзывы владельцев не загружаются
func linkReview(review *entity.Review) {
	if review.Customer != nil {
		review.Customer.Reviews = append(review.Customer.Reviews, review)
	}
	if review.Item != nil {
		review.Item.Reviews = append(review.Item.Reviews, review)
	}
}
