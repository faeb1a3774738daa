package repository

import (
	"context"

	"shopreviews/pkg/metrics"
	"shopreviews/reviews-service/internal/app/reviews/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const customersTable = "customers"

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Create сохраняет только самого покупателя, отзывы создаются через ReviewRepository
func (r *customerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, customersTable)
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(customer).Error
	timer.Done(err)
	return translateError(err)
}

// GetByID загружает покупателя, его отзывы по возрастанию id и товар каждого отзыва
func (r *customerRepository) GetByID(ctx context.Context, id int64) (*entity.Customer, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, customersTable)

	var customer entity.Customer
	err := r.withGraph(ctx).First(&customer, "id = ?", id).Error
	observe(timer, err)
	if err != nil {
		return nil, notFound(err, ErrCustomerNotFound)
	}

	linkCustomer(&customer)
	return &customer, nil
}

func (r *customerRepository) GetAll(ctx context.Context) ([]*entity.Customer, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, customersTable)

	var customers []*entity.Customer
	err := r.withGraph(ctx).Order("id").Find(&customers).Error
	timer.Done(err)
	if err != nil {
		return nil, err
	}

	for _, c := range customers {
		linkCustomer(c)
	}
	return customers, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *entity.Customer) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, customersTable)
	result := r.db.WithContext(ctx).Model(&entity.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]interface{}{
			"name": customer.Name,
		})
	timer.Done(result.Error)

	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// Delete удаляет покупателя, его отзывы удаляются через ON DELETE CASCADE
func (r *customerRepository) Delete(ctx context.Context, id int64) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, customersTable)
	result := r.db.WithContext(ctx).Delete(&entity.Customer{}, "id = ?", id)
	timer.Done(result.Error)

	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *customerRepository) Exists(ctx context.Context, id int64) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, customersTable)

	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Customer{}).Where("id = ?", id).Count(&count).Error
	timer.Done(err)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *customerRepository) withGraph(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Reviews", orderByID).
		Preload("Reviews.Item")
}

// linkCustomer проставляет обратную ссылку отзыв -> покупатель после Preload
func linkCustomer(c *entity.Customer) {
	for _, review := range c.Reviews {
		review.Customer = c
	}
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}
