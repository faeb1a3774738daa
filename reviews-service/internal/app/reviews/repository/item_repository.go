package repository

import (
	"context"

	"shopreviews/pkg/metrics"
	"shopreviews/reviews-service/internal/app/reviews/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const itemsTable = "items"

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *entity.Item) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, itemsTable)
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
	timer.Done(err)
	return translateError(err)
}

// GetByID загружает товар, его отзывы по возрастанию id и автора каждого отзыва
func (r *itemRepository) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, itemsTable)

	var item entity.Item
	err := r.withGraph(ctx).First(&item, "id = ?", id).Error
	observe(timer, err)
	if err != nil {
		return nil, notFound(err, ErrItemNotFound)
	}

	linkItem(&item)
	return &item, nil
}

func (r *itemRepository) GetAll(ctx context.Context) ([]*entity.Item, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, itemsTable)

	var items []*entity.Item
	err := r.withGraph(ctx).Order("id").Find(&items).Error
	timer.Done(err)
	if err != nil {
		return nil, err
	}

	for _, i := range items {
		linkItem(i)
	}
	return items, nil
}

func (r *itemRepository) Update(ctx context.Context, item *entity.Item) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, itemsTable)
	result := r.db.WithContext(ctx).Model(&entity.Item{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"name":  item.Name,
			"price": item.Price,
		})
	timer.Done(result.Error)

	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, itemsTable)
	result := r.db.WithContext(ctx).Delete(&entity.Item{}, "id = ?", id)
	timer.Done(result.Error)

	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *itemRepository) Exists(ctx context.Context, id int64) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, itemsTable)

	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Item{}).Where("id = ?", id).Count(&count).Error
	timer.Done(err)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *itemRepository) withGraph(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Reviews", orderByID).
		Preload("Reviews.Customer")
}

// linkItem проставляет обратную ссылку отзыв -> товар после Preload
func linkItem(i *entity.Item) {
	for _, review := range i.Reviews {
		review.Item = i
	}
}
