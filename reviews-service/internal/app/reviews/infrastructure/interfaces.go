package infrastructure

import (
	"context"

	"shopreviews/reviews-service/internal/app/reviews/schema"
)

// MessagePublisher отправляет события отзывов во внешний брокер
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// ViewCache хранит сериализованные представления. Промах - (nil, false, nil)
type ViewCache interface {
	Get(ctx context.Context, key string) (schema.View, bool, error)
	GetList(ctx context.Context, key string) ([]schema.View, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, key string, value interface{}, gen int64) error
	Invalidate(ctx context.Context) error
}
