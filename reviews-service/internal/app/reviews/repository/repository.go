package repository

import (
	"context"
	"errors"

	"shopreviews/reviews-service/internal/app/reviews/entity"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrItemNotFound     = errors.New("item not found")
	ErrReviewNotFound   = errors.New("review not found")
	// ErrForeignKey - запись ссылается на несуществующего покупателя или товар
	ErrForeignKey = errors.New("foreign key violation")
	// ErrDuplicateKey - нарушено ограничение уникальности
	ErrDuplicateKey = errors.New("duplicate key")
)

// CustomerRepository загружает покупателя вместе с отзывами и товарами этих отзывов
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id int64) (*entity.Customer, error)
	GetAll(ctx context.Context) ([]*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// ItemRepository загружает товар вместе с отзывами и их авторами
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id int64) (*entity.Item, error)
	GetAll(ctx context.Context) ([]*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// ReviewRepository загружает отзыв вместе с покупателем и товаром
type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id int64) (*entity.Review, error)
	GetAll(ctx context.Context) ([]*entity.Review, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id int64) error
}
