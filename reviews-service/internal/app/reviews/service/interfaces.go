package service

import (
	"context"

	"shopreviews/reviews-service/internal/app/reviews/entity"
	"shopreviews/reviews-service/internal/app/reviews/schema"
)

type ShopServiceInterface interface {
	CreateCustomer(ctx context.Context, req *entity.CreateCustomerRequest) (schema.View, error)
	GetCustomer(ctx context.Context, id int64) (schema.View, error)
	ListCustomers(ctx context.Context) ([]schema.View, error)
	UpdateCustomer(ctx context.Context, id int64, req *entity.UpdateCustomerRequest) (schema.View, error)
	DeleteCustomer(ctx context.Context, id int64) error
	GetCustomerItems(ctx context.Context, id int64) ([]schema.View, error)

	CreateItem(ctx context.Context, req *entity.CreateItemRequest) (schema.View, error)
	GetItem(ctx context.Context, id int64) (schema.View, error)
	ListItems(ctx context.Context) ([]schema.View, error)
	UpdateItem(ctx context.Context, id int64, req *entity.UpdateItemRequest) (schema.View, error)
	DeleteItem(ctx context.Context, id int64) error

	CreateReview(ctx context.Context, req *entity.CreateReviewRequest) (schema.View, error)
	GetReview(ctx context.Context, id int64) (schema.View, error)
	ListReviews(ctx context.Context) ([]schema.View, error)
	UpdateReview(ctx context.Context, id int64, req *entity.UpdateReviewRequest) (schema.View, error)
	DeleteReview(ctx context.Context, id int64) error

	WarmCache(ctx context.Context) error
}
