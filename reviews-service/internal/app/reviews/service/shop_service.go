package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"shopreviews/pkg/logger"
	"shopreviews/pkg/metrics"
	"shopreviews/reviews-service/internal/app/reviews/cache"
	"shopreviews/reviews-service/internal/app/reviews/entity"
	"shopreviews/reviews-service/internal/app/reviews/infrastructure"
	"shopreviews/reviews-service/internal/app/reviews/repository"
	"shopreviews/reviews-service/internal/app/reviews/schema"

	"github.com/samber/lo"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrCustomerNotFound = errors.New("customer not found")
	ErrItemNotFound     = errors.New("item not found")
	ErrReviewNotFound   = errors.New("review not found")
	// ErrConflict - запись ссылается на покупателя или товар, которых уже нет
	ErrConflict = errors.New("conflicting change")
)

// Виды представлений в ключах кэша
const (
	kindCustomer      = "customer"
	kindCustomerItems = "customer_items"
	kindItem          = "item"
	kindReview        = "review"
)

// ShopService отдает покупателей, товары и отзывы в виде JSON представлений.
// Координирует репозитории, кэш представлений в Redis и события в Kafka
type ShopService struct {
	customers repository.CustomerRepository
	items     repository.ItemRepository
	reviews   repository.ReviewRepository
	cache     infrastructure.ViewCache
	publisher infrastructure.MessagePublisher
}

func NewShopService(
	customers repository.CustomerRepository,
	items repository.ItemRepository,
	reviews repository.ReviewRepository,
	cache infrastructure.ViewCache,
	publisher infrastructure.MessagePublisher,
) *ShopService {
	return &ShopService{
		customers: customers,
		items:     items,
		reviews:   reviews,
		cache:     cache,
		publisher: publisher,
	}
}

// ===================== Customers =====================

func (s *ShopService) CreateCustomer(ctx context.Context, req *entity.CreateCustomerRequest) (schema.View, error) {
	customer := &entity.Customer{Name: req.Name}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	s.invalidate(ctx)

	return s.customerView(customer)
}

func (s *ShopService) GetCustomer(ctx context.Context, id int64) (schema.View, error) {
	return s.cachedView(ctx, cache.Key(kindCustomer, id), func() (schema.View, error) {
		customer, err := s.customers.GetByID(ctx, id)
		if err != nil {
			return nil, mapRepositoryError(err, "get customer")
		}
		return s.customerView(customer)
	})
}

func (s *ShopService) ListCustomers(ctx context.Context) ([]schema.View, error) {
	return s.cachedList(ctx, cache.ListKey(kindCustomer), func() ([]schema.View, error) {
		return s.loadCustomerViews(ctx)
	})
}

func (s *ShopService) UpdateCustomer(ctx context.Context, id int64, req *entity.UpdateCustomerRequest) (schema.View, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, "get customer")
	}

	customer.Name = req.Name
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, mapRepositoryError(err, "update customer")
	}
	s.invalidate(ctx)

	return s.customerView(customer)
}

// DeleteCustomer удаляет покупателя вместе с его отзывами
func (s *ShopService) DeleteCustomer(ctx context.Context, id int64) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, "delete customer")
	}
	s.invalidate(ctx)

	logger.Info().Int64("customer_id", id).Msg("Customer deleted")
	return nil
}

// GetCustomerItems отдает товары из отзывов покупателя в порядке отзывов, с повторами
func (s *ShopService) GetCustomerItems(ctx context.Context, id int64) ([]schema.View, error) {
	return s.cachedList(ctx, cache.Key(kindCustomerItems, id), func() ([]schema.View, error) {
		customer, err := s.customers.GetByID(ctx, id)
		if err != nil {
			return nil, mapRepositoryError(err, "get customer")
		}

		for _, review := range customer.Reviews {
			if review.Item == nil {
				return nil, s.serializationError(schema.Item.Name(),
					&schema.MissingRelationshipError{Entity: "review", ID: review.ID, Field: "item"})
			}
		}
		return lo.Map(customer.Items(), func(item *entity.Item, _ int) schema.View {
			return schema.Item.ToNestedView(item)
		}), nil
	})
}

// ===================== Items =====================

func (s *ShopService) CreateItem(ctx context.Context, req *entity.CreateItemRequest) (schema.View, error) {
	item := &entity.Item{Name: req.Name, Price: req.Price}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	s.invalidate(ctx)

	return s.itemView(item)
}

func (s *ShopService) GetItem(ctx context.Context, id int64) (schema.View, error) {
	return s.cachedView(ctx, cache.Key(kindItem, id), func() (schema.View, error) {
		item, err := s.items.GetByID(ctx, id)
		if err != nil {
			return nil, mapRepositoryError(err, "get item")
		}
		return s.itemView(item)
	})
}

func (s *ShopService) ListItems(ctx context.Context) ([]schema.View, error) {
	return s.cachedList(ctx, cache.ListKey(kindItem), func() ([]schema.View, error) {
		return s.loadItemViews(ctx)
	})
}

func (s *ShopService) UpdateItem(ctx context.Context, id int64, req *entity.UpdateItemRequest) (schema.View, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, "get item")
	}

	item.Name = req.Name
	item.Price = req.Price
	if err := s.items.Update(ctx, item); err != nil {
		return nil, mapRepositoryError(err, "update item")
	}
	s.invalidate(ctx)

	return s.itemView(item)
}

// DeleteItem удаляет товар вместе с отзывами о нем
func (s *ShopService) DeleteItem(ctx context.Context, id int64) error {
	if err := s.items.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, "delete item")
	}
	s.invalidate(ctx)

	logger.Info().Int64("item_id", id).Msg("Item deleted")
	return nil
}

// ===================== Reviews =====================

// CreateReview создает отзыв покупателя о товаре
// 1. Проверяет, что покупатель и товар существуют
// 2. Сохраняет отзыв и перечитывает его вместе со связями
// 3. Отправляет событие REVIEW_CREATED в Kafka
func (s *ShopService) CreateReview(ctx context.Context, req *entity.CreateReviewRequest) (schema.View, error) {
	if err := s.ensureExists(ctx, req.CustomerID, req.ItemID); err != nil {
		return nil, err
	}

	review := &entity.Review{
		Comment:    req.Comment,
		CustomerID: req.CustomerID,
		ItemID:     req.ItemID,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, mapRepositoryError(err, "create review")
	}
	s.invalidate(ctx)

	created, err := s.reviews.GetByID(ctx, review.ID)
	if err != nil {
		return nil, mapRepositoryError(err, "get review")
	}

	view, err := s.reviewView(created)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, entity.EventReviewCreated, created, view)
	return view, nil
}

func (s *ShopService) GetReview(ctx context.Context, id int64) (schema.View, error) {
	return s.cachedView(ctx, cache.Key(kindReview, id), func() (schema.View, error) {
		review, err := s.reviews.GetByID(ctx, id)
		if err != nil {
			return nil, mapRepositoryError(err, "get review")
		}
		return s.reviewView(review)
	})
}

func (s *ShopService) ListReviews(ctx context.Context) ([]schema.View, error) {
	return s.cachedList(ctx, cache.ListKey(kindReview), func() ([]schema.View, error) {
		return s.loadReviewViews(ctx)
	})
}

// UpdateReview заменяет комментарий и при ненулевых CustomerID/ItemID перепривязывает отзыв.
// Перепривязка идет через entity.AttachReview, старые владельцы теряют отзыв
func (s *ShopService) UpdateReview(ctx context.Context, id int64, req *entity.UpdateReviewRequest) (schema.View, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, "get review")
	}

	customer := review.Customer
	if req.CustomerID != 0 && req.CustomerID != review.CustomerID {
		if customer, err = s.customers.GetByID(ctx, req.CustomerID); err != nil {
			return nil, mapRepositoryError(err, "get customer")
		}
	}
	item := review.Item
	if req.ItemID != 0 && req.ItemID != review.ItemID {
		if item, err = s.items.GetByID(ctx, req.ItemID); err != nil {
			return nil, mapRepositoryError(err, "get item")
		}
	}

	review.Comment = req.Comment
	if customer != review.Customer || item != review.Item {
		entity.AttachReview(review, customer, item)
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, mapRepositoryError(err, "update review")
	}
	s.invalidate(ctx)

	view, err := s.reviewView(review)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, entity.EventReviewUpdated, review, view)
	return view, nil
}

func (s *ShopService) DeleteReview(ctx context.Context, id int64) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err, "get review")
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, "delete review")
	}
	s.invalidate(ctx)

	s.publishEvent(ctx, entity.EventReviewDeleted, review, nil)
	entity.DetachReview(review)
	return nil
}

// ===================== Cache =====================

// WarmCache заполняет списки покупателей, товаров и отзывов в кэше
func (s *ShopService) WarmCache(ctx context.Context) error {
	lists := []struct {
		kind string
		load func(context.Context) ([]schema.View, error)
	}{
		{kind: kindCustomer, load: s.loadCustomerViews},
		{kind: kindItem, load: s.loadItemViews},
		{kind: kindReview, load: s.loadReviewViews},
	}

	for _, list := range lists {
		gen, err := s.cache.Generation(ctx)
		if err != nil {
			return fmt.Errorf("failed to warm %s views: %w", list.kind, err)
		}
		views, err := list.load(ctx)
		if err != nil {
			return fmt.Errorf("failed to warm %s views: %w", list.kind, err)
		}
		if err := s.cache.Set(ctx, cache.ListKey(list.kind), views, gen); err != nil {
			return fmt.Errorf("failed to warm %s views: %w", list.kind, err)
		}
		logger.Debug().Str("kind", list.kind).Int("count", len(views)).Msg("Cache warmed")
	}

	return nil
}

func (s *ShopService) cachedView(ctx context.Context, key string, load func() (schema.View, error)) (schema.View, error) {
	if view, ok, err := s.cache.Get(ctx, key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to read view from cache")
	} else if ok {
		return view, nil
	}

	gen, genErr := s.cache.Generation(ctx)

	view, err := load()
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, view, gen, genErr)
	return view, nil
}

func (s *ShopService) cachedList(ctx context.Context, key string, load func() ([]schema.View, error)) ([]schema.View, error) {
	if views, ok, err := s.cache.GetList(ctx, key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to read views from cache")
	} else if ok {
		return views, nil
	}

	gen, genErr := s.cache.Generation(ctx)

	views, err := load()
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, views, gen, genErr)
	return views, nil
}

// store кладет загруженное представление в кэш с поколением, снятым до загрузки.
// Без поколения запись пропускается: иначе можно сохранить данные старше последнего сброса
func (s *ShopService) store(ctx context.Context, key string, value interface{}, gen int64, genErr error) {
	if genErr != nil {
		logger.Warn().Err(genErr).Str("key", key).Msg("Failed to read cache generation")
		return
	}
	if err := s.cache.Set(ctx, key, value, gen); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to store view in cache")
	}
}

// invalidate сбрасывает кэш после записи. Ошибка Redis не отменяет уже выполненную запись
func (s *ShopService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate view cache")
	}
}

// ===================== helpers =====================

func (s *ShopService) ensureExists(ctx context.Context, customerID, itemID int64) error {
	ok, err := s.customers.Exists(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to check customer: %w", err)
	}
	if !ok {
		return ErrCustomerNotFound
	}

	ok, err = s.items.Exists(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to check item: %w", err)
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}

func (s *ShopService) loadCustomerViews(ctx context.Context) ([]schema.View, error) {
	customers, err := s.customers.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	views, err := schema.Customer.ToViews(customers)
	if err != nil {
		return nil, s.serializationError(schema.Customer.Name(), err)
	}
	return views, nil
}

func (s *ShopService) loadItemViews(ctx context.Context) ([]schema.View, error) {
	items, err := s.items.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	views, err := schema.Item.ToViews(items)
	if err != nil {
		return nil, s.serializationError(schema.Item.Name(), err)
	}
	return views, nil
}

func (s *ShopService) loadReviewViews(ctx context.Context) ([]schema.View, error) {
	reviews, err := s.reviews.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	views, err := schema.Review.ToViews(reviews)
	if err != nil {
		return nil, s.serializationError(schema.Review.Name(), err)
	}
	return views, nil
}

func (s *ShopService) customerView(customer *entity.Customer) (schema.View, error) {
	view, err := schema.Customer.ToView(customer)
	if err != nil {
		return nil, s.serializationError(schema.Customer.Name(), err)
	}
	return view, nil
}

func (s *ShopService) itemView(item *entity.Item) (schema.View, error) {
	view, err := schema.Item.ToView(item)
	if err != nil {
		return nil, s.serializationError(schema.Item.Name(), err)
	}
	return view, nil
}

func (s *ShopService) reviewView(review *entity.Review) (schema.View, error) {
	view, err := schema.Review.ToView(review)
	if err != nil {
		return nil, s.serializationError(schema.Review.Name(), err)
	}
	return view, nil
}

func (s *ShopService) serializationError(schemaName string, err error) error {
	metrics.RecordSerializationError(schemaName)
	logger.Error().Err(err).Str("schema", schemaName).Msg("Failed to serialize view")
	return fmt.Errorf("failed to serialize %s: %w", schemaName, err)
}

// publishEvent отправляет событие в Kafka. Отзыв уже сохранен, поэтому ошибка только логируется
func (s *ShopService) publishEvent(ctx context.Context, eventType string, review *entity.Review, view schema.View) {
	event := entity.ReviewEvent{
		EventType:  eventType,
		ReviewID:   review.ID,
		CustomerID: review.CustomerID,
		ItemID:     review.ItemID,
		Review:     view,
		Timestamp:  time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal review event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, strconv.FormatInt(review.ID, 10), payload); err != nil {
		logger.Error().
			Err(err).
			Str("event_type", eventType).
			Int64("review_id", review.ID).
			Msg("Failed to publish review event")
		return
	}

	metrics.RecordReviewEvent(eventType)
}

// mapRepositoryError переводит ошибки репозитория в ошибки сервиса
func mapRepositoryError(err error, action string) error {
	switch {
	case errors.Is(err, repository.ErrCustomerNotFound):
		return ErrCustomerNotFound
	case errors.Is(err, repository.ErrItemNotFound):
		return ErrItemNotFound
	case errors.Is(err, repository.ErrReviewNotFound):
		return ErrReviewNotFound
	case errors.Is(err, repository.ErrForeignKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}
