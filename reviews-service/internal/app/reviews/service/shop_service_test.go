package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"shopreviews/reviews-service/internal/app/reviews/entity"
	"shopreviews/reviews-service/internal/app/reviews/repository"
	"shopreviews/reviews-service/internal/app/reviews/repository/mocks"
	"shopreviews/reviews-service/internal/app/reviews/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	customers *mocks.MockCustomerRepository
	items     *mocks.MockItemRepository
	reviews   *mocks.MockReviewRepository
	cache     *mocks.MockViewCache
	publisher *mocks.MockMessagePublisher
	service   *ShopService
}

// newFixture - моки с нулевым поколением кэша
func newFixture() *fixture {
	f := newBareFixture()
	f.cache.On("Generation", mock.Anything).Return(int64(0), nil).Maybe()
	return f
}

func newBareFixture() *fixture {
	f := &fixture{
		customers: new(mocks.MockCustomerRepository),
		items:     new(mocks.MockItemRepository),
		reviews:   new(mocks.MockReviewRepository),
		cache:     new(mocks.MockViewCache),
		publisher: &mocks.MockMessagePublisher{Messages: make([][]byte, 0)},
	}
	f.service = NewShopService(f.customers, f.items, f.reviews, f.cache, f.publisher)
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.customers.AssertExpectations(t)
	f.items.AssertExpectations(t)
	f.reviews.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func toJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// adaWidget - загруженный граф: покупатель Ada, товар Widget, отзыв Great
func adaWidget() (*entity.Customer, *entity.Item, *entity.Review) {
	ada := &entity.Customer{ID: 1, Name: "Ada"}
	widget := &entity.Item{ID: 1, Name: "Widget", Price: floatPtr(9.99)}
	review := &entity.Review{ID: 1, Comment: strPtr("Great")}
	entity.AttachReview(review, ada, widget)
	return ada, widget, review
}

const (
	adaView    = `{"id":1,"name":"Ada","reviews":[{"id":1,"comment":"Great","item":{"id":1,"name":"Widget","price":9.99}}]}`
	reviewView = `{"id":1,"comment":"Great","customer":{"id":1,"name":"Ada"},"item":{"id":1,"name":"Widget","price":9.99}}`
)

// ===================== Customer Tests =====================

func TestCreateCustomer_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.customers.On("Create", ctx, mock.AnythingOfType("*entity.Customer")).
		Run(func(args mock.Arguments) { args.Get(1).(*entity.Customer).ID = 7 }).
		Return(nil)
	f.cache.On("Invalidate", ctx).Return(nil)

	view, err := f.service.CreateCustomer(ctx, &entity.CreateCustomerRequest{Name: "Ada"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"name":"Ada","reviews":[]}`, toJSON(t, view))
	f.assertExpectations(t)
}

func TestCreateCustomer_RepositoryError(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.customers.On("Create", ctx, mock.Anything).Return(errors.New("db down"))

	view, err := f.service.CreateCustomer(ctx, &entity.CreateCustomerRequest{Name: "Ada"})

	assert.Nil(t, view)
	assert.ErrorContains(t, err, "failed to create customer")
	f.cache.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestGetCustomer_CacheMissLoadsAndStores(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ada, _, _ := adaWidget()

	f.cache.On("Get", ctx, "view:customer:1").Return(nil, false, nil)
	f.customers.On("GetByID", ctx, int64(1)).Return(ada, nil)
	f.cache.On("Set", ctx, "view:customer:1", mock.Anything, int64(0)).Return(nil)

	view, err := f.service.GetCustomer(ctx, 1)

	require.NoError(t, err)
	assert.JSONEq(t, adaView, toJSON(t, view))
	f.assertExpectations(t)
}

func TestGetCustomer_CacheHit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cached := schema.View{"id": json.Number("1"), "name": "Ada", "reviews": []interface{}{}}

	f.cache.On("Get", ctx, "view:customer:1").Return(cached, true, nil)

	view, err := f.service.GetCustomer(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, cached, view)
	f.customers.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGetCustomer_CacheErrorFallsBackToDB(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ada, _, _ := adaWidget()

	f.cache.On("Get", ctx, "view:customer:1").Return(nil, false, errors.New("redis down"))
	f.customers.On("GetByID", ctx, int64(1)).Return(ada, nil)
	f.cache.On("Set", ctx, "view:customer:1", mock.Anything, int64(0)).Return(errors.New("redis down"))

	view, err := f.service.GetCustomer(ctx, 1)

	require.NoError(t, err)
	assert.JSONEq(t, adaView, toJSON(t, view))
}

func TestGetCustomer_StoresWithGenerationTakenBeforeLoad(t *testing.T) {
	f := newBareFixture()
	ctx := context.Background()
	ada, _, _ := adaWidget()

	var order []string
	f.cache.On("Get", ctx, "view:customer:1").Return(nil, false, nil)
	f.cache.On("Generation", ctx).Run(func(mock.Arguments) { order = append(order, "generation") }).Return(int64(7), nil)
	f.customers.On("GetByID", ctx, int64(1)).Run(func(mock.Arguments) { order = append(order, "load") }).Return(ada, nil)
	f.cache.On("Set", ctx, "view:customer:1", mock.Anything, int64(7)).Return(nil)

	_, err := f.service.GetCustomer(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"generation", "load"}, order)
	f.assertExpectations(t)
}

func TestGetCustomer_GenerationErrorSkipsStore(t *testing.T) {
	f := newBareFixture()
	ctx := context.Background()
	ada, _, _ := adaWidget()

	f.cache.On("Get", ctx, "view:customer:1").Return(nil, false, nil)
	f.cache.On("Generation", ctx).Return(int64(0), errors.New("redis down"))
	f.customers.On("GetByID", ctx, int64(1)).Return(ada, nil)

	view, err := f.service.GetCustomer(ctx, 1)

	require.NoError(t, err)
	assert.JSONEq(t, adaView, toJSON(t, view))
	f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetCustomer_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.cache.On("Get", ctx, "view:customer:5").Return(nil, false, nil)
	f.customers.On("GetByID", ctx, int64(5)).Return(nil, repository.ErrCustomerNotFound)

	view, err := f.service.GetCustomer(ctx, 5)

	assert.Nil(t, view)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
	f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetCustomer_MissingRelationship(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ada := &entity.Customer{ID: 1, Name: "Ada"}
	entity.AttachReview(&entity.Review{ID: 3}, ada, nil)

	f.cache.On("Get", ctx, "view:customer:1").Return(nil, false, nil)
	f.customers.On("GetByID", ctx, int64(1)).Return(ada, nil)

	_, err := f.service.GetCustomer(ctx, 1)

	assert.ErrorIs(t, err, schema.ErrMissingRelationship)
	assert.ErrorContains(t, err, "failed to serialize customer")
}

func TestListCustomers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ada, _, _ := adaWidget()
	bob := &entity.Customer{ID: 2, Name: "Bob"}

	f.cache.On("GetList", ctx, "view:customer:all").Return(nil, false, nil)
	f.customers.On("GetAll", ctx).Return([]*entity.Customer{ada, bob}, nil)
	f.cache.On("Set", ctx, "view:customer:all", mock.Anything, int64(0)).Return(nil)

	views, err := f.service.ListCustomers(ctx)

	require.NoError(t, err)
	assert.JSONEq(t, `[`+adaView+`,{"id":2,"name":"Bob","reviews":[]}]`, toJSON(t, views))
	f.assertExpectations(t)
}

func TestUpdateCustomer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ada, _, _ := adaWidget()

	f.customers.On("GetByID", ctx, int64(1)).Return(ada, nil)
	f.customers.On("Update", ctx, ada).Return(nil)
	f.cache.On("Invalidate", ctx).Return(nil)

	view, err := f.service.UpdateCustomer(ctx, 1, &entity.UpdateCustomerRequest{Name: "Ada L."})

	require.NoError(t, err)
	assert.Equal(t, "Ada L.", view["name"])
	assert.Len(t, view["reviews"], 1)
	f.assertExpectations(t)
}

func TestUpdateCustomer_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.customers.On("GetByID", ctx, int64(9)).Return(nil, repository.ErrCustomerNotFound)

	_, err := f.service.UpdateCustomer(ctx, 9, &entity.UpdateCustomerRequest{Name: "x"})

	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestDeleteCustomer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.customers.On("Delete", ctx, int64(1)).Return(nil)
	f.cache.On("Invalidate", ctx).Return(errors.New("redis down"))

	assert.NoError(t, f.service.DeleteCustomer(ctx, 1), "cache failure does not fail the write")
	f.assertExpectations(t)
}

func TestDeleteCustomer_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.customers.On("Delete", ctx, int64(1)).Return(repository.ErrCustomerNotFound)

	assert.ErrorIs(t, f.service.DeleteCustomer(ctx, 1), ErrCustomerNotFound)
}

func TestGetCustomerItems_KeepsReviewOrderAndDuplicates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ada, widget, _ := adaWidget()
	gadget := &entity.Item{ID: 2, Name: "Gadget"}
	entity.AttachReview(&entity.Review{ID: 2}, ada, gadget)
	entity.AttachReview(&entity.Review{ID: 3}, ada, widget)

	f.cache.On("GetList", ctx, "view:customer_items:1").Return(nil, false, nil)
	f.customers.On("GetByID", ctx, int64(1)).Return(ada, nil)
	f.cache.On("Set", ctx, "view:customer_items:1", mock.Anything, int64(0)).Return(nil)

	views, err := f.service.GetCustomerItems(ctx, 1)

	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"id":1,"name":"Widget","price":9.99},{"id":2,"name":"Gadget","price":null},{"id":1,"name":"Widget","price":9.99}]`,
		toJSON(t, views))
}

func TestGetCustomerItems_ReviewWithoutItem(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ada := &entity.Customer{ID: 1, Name: "Ada"}
	entity.AttachReview(&entity.Review{ID: 4}, ada, nil)

	f.cache.On("GetList", ctx, "view:customer_items:1").Return(nil, false, nil)
	f.customers.On("GetByID", ctx, int64(1)).Return(ada, nil)

	_, err := f.service.GetCustomerItems(ctx, 1)

	assert.ErrorIs(t, err, schema.ErrMissingRelationship)
}

// ===================== Item Tests =====================

func TestCreateItem_NullPrice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.items.On("Create", ctx, mock.AnythingOfType("*entity.Item")).
		Run(func(args mock.Arguments) { args.Get(1).(*entity.Item).ID = 3 }).
		Return(nil)
	f.cache.On("Invalidate", ctx).Return(nil)

	view, err := f.service.CreateItem(ctx, &entity.CreateItemRequest{Name: "Freebie"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"name":"Freebie","price":null,"reviews":[]}`, toJSON(t, view))
}

func TestGetItem(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, widget, _ := adaWidget()

	f.cache.On("Get", ctx, "view:item:1").Return(nil, false, nil)
	f.items.On("GetByID", ctx, int64(1)).Return(widget, nil)
	f.cache.On("Set", ctx, "view:item:1", mock.Anything, int64(0)).Return(nil)

	view, err := f.service.GetItem(ctx, 1)

	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":1,"name":"Widget","price":9.99,"reviews":[{"id":1,"comment":"Great","customer":{"id":1,"name":"Ada"}}]}`,
		toJSON(t, view))
}

func TestGetItem_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.cache.On("Get", ctx, "view:item:2").Return(nil, false, nil)
	f.items.On("GetByID", ctx, int64(2)).Return(nil, repository.ErrItemNotFound)

	_, err := f.service.GetItem(ctx, 2)

	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestListItems_CacheHit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cached := []schema.View{{"id": json.Number("1")}}

	f.cache.On("GetList", ctx, "view:item:all").Return(cached, true, nil)

	views, err := f.service.ListItems(ctx)

	require.NoError(t, err)
	assert.Equal(t, cached, views)
	f.items.AssertNotCalled(t, "GetAll", mock.Anything)
}

func TestUpdateItem_ClearsPrice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, widget, _ := adaWidget()

	f.items.On("GetByID", ctx, int64(1)).Return(widget, nil)
	f.items.On("Update", ctx, widget).Return(nil)
	f.cache.On("Invalidate", ctx).Return(nil)

	view, err := f.service.UpdateItem(ctx, 1, &entity.UpdateItemRequest{Name: "Widget"})

	require.NoError(t, err)
	assert.Nil(t, view["price"])
	assert.Nil(t, widget.Price)
}

func TestDeleteItem_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.items.On("Delete", ctx, int64(4)).Return(repository.ErrItemNotFound)

	assert.ErrorIs(t, f.service.DeleteItem(ctx, 4), ErrItemNotFound)
}

// ===================== Review Tests =====================

func TestCreateReview_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _, loaded := adaWidget()

	f.customers.On("Exists", ctx, int64(1)).Return(true, nil)
	f.items.On("Exists", ctx, int64(1)).Return(true, nil)
	f.reviews.On("Create", ctx, mock.MatchedBy(func(r *entity.Review) bool {
		return r.CustomerID == 1 && r.ItemID == 1 && *r.Comment == "Great"
	})).Run(func(args mock.Arguments) { args.Get(1).(*entity.Review).ID = 1 }).Return(nil)
	f.cache.On("Invalidate", ctx).Return(nil)
	f.reviews.On("GetByID", ctx, int64(1)).Return(loaded, nil)
	f.publisher.On("PublishMessage", ctx, "1", mock.Anything).Return(nil)

	view, err := f.service.CreateReview(ctx, &entity.CreateReviewRequest{
		Comment: strPtr("Great"), CustomerID: 1, ItemID: 1,
	})

	require.NoError(t, err)
	assert.JSONEq(t, reviewView, toJSON(t, view))

	require.Len(t, f.publisher.Messages, 1)
	var event entity.ReviewEvent
	require.NoError(t, json.Unmarshal(f.publisher.Messages[0], &event))
	assert.Equal(t, entity.EventReviewCreated, event.EventType)
	assert.Equal(t, int64(1), event.ReviewID)
	assert.Equal(t, int64(1), event.CustomerID)
	assert.Equal(t, "Great", event.Review["comment"])
	f.assertExpectations(t)
}

func TestCreateReview_MissingCustomer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.customers.On("Exists", ctx, int64(5)).Return(false, nil)

	view, err := f.service.CreateReview(ctx, &entity.CreateReviewRequest{CustomerID: 5, ItemID: 1})

	assert.Nil(t, view)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
	f.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_MissingItem(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.customers.On("Exists", ctx, int64(1)).Return(true, nil)
	f.items.On("Exists", ctx, int64(6)).Return(false, nil)

	_, err := f.service.CreateReview(ctx, &entity.CreateReviewRequest{CustomerID: 1, ItemID: 6})

	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestCreateReview_OwnerDeletedConcurrently(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.customers.On("Exists", ctx, int64(1)).Return(true, nil)
	f.items.On("Exists", ctx, int64(1)).Return(true, nil)
	f.reviews.On("Create", ctx, mock.Anything).Return(repository.ErrForeignKey)

	_, err := f.service.CreateReview(ctx, &entity.CreateReviewRequest{CustomerID: 1, ItemID: 1})

	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateReview_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _, loaded := adaWidget()

	f.customers.On("Exists", ctx, int64(1)).Return(true, nil)
	f.items.On("Exists", ctx, int64(1)).Return(true, nil)
	f.reviews.On("Create", ctx, mock.Anything).Return(nil)
	f.cache.On("Invalidate", ctx).Return(nil)
	f.reviews.On("GetByID", ctx, mock.Anything).Return(loaded, nil)
	f.publisher.On("PublishMessage", ctx, mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	view, err := f.service.CreateReview(ctx, &entity.CreateReviewRequest{CustomerID: 1, ItemID: 1})

	require.NoError(t, err)
	assert.NotNil(t, view)
}

func TestGetReview_MissingRelationship(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	orphan := &entity.Review{ID: 8}
	entity.AttachReview(orphan, &entity.Customer{ID: 1, Name: "Ada"}, nil)

	f.cache.On("Get", ctx, "view:review:8").Return(nil, false, nil)
	f.reviews.On("GetByID", ctx, int64(8)).Return(orphan, nil)

	_, err := f.service.GetReview(ctx, 8)

	var missing *schema.MissingRelationshipError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "item", missing.Field)
}

func TestListReviews(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _, review := adaWidget()

	f.cache.On("GetList", ctx, "view:review:all").Return(nil, false, nil)
	f.reviews.On("GetAll", ctx).Return([]*entity.Review{review}, nil)
	f.cache.On("Set", ctx, "view:review:all", mock.Anything, int64(0)).Return(nil)

	views, err := f.service.ListReviews(ctx)

	require.NoError(t, err)
	assert.JSONEq(t, `[`+reviewView+`]`, toJSON(t, views))
}

func TestUpdateReview_Reassigns(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ada, widget, review := adaWidget()
	bob := &entity.Customer{ID: 2, Name: "Bob"}

	f.reviews.On("GetByID", ctx, int64(1)).Return(review, nil)
	f.customers.On("GetByID", ctx, int64(2)).Return(bob, nil)
	f.reviews.On("Update", ctx, review).Return(nil)
	f.cache.On("Invalidate", ctx).Return(nil)
	f.publisher.On("PublishMessage", ctx, "1", mock.Anything).Return(nil)

	view, err := f.service.UpdateReview(ctx, 1, &entity.UpdateReviewRequest{Comment: strPtr("Changed"), CustomerID: 2})

	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":1,"comment":"Changed","customer":{"id":2,"name":"Bob"},"item":{"id":1,"name":"Widget","price":9.99}}`,
		toJSON(t, view))
	assert.Equal(t, int64(2), review.CustomerID)
	assert.Empty(t, ada.Reviews, "old owner loses the review")
	assert.Equal(t, []*entity.Review{review}, bob.Reviews)
	assert.Equal(t, []*entity.Review{review}, widget.Reviews, "item side is not duplicated")

	var event entity.ReviewEvent
	require.NoError(t, json.Unmarshal(f.publisher.Messages[0], &event))
	assert.Equal(t, entity.EventReviewUpdated, event.EventType)
	assert.Equal(t, int64(2), event.CustomerID)
	f.assertExpectations(t)
}

func TestUpdateReview_CommentOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _, review := adaWidget()

	f.reviews.On("GetByID", ctx, int64(1)).Return(review, nil)
	f.reviews.On("Update", ctx, review).Return(nil)
	f.cache.On("Invalidate", ctx).Return(nil)
	f.publisher.On("PublishMessage", ctx, "1", mock.Anything).Return(nil)

	view, err := f.service.UpdateReview(ctx, 1, &entity.UpdateReviewRequest{CustomerID: 1})

	require.NoError(t, err)
	assert.Nil(t, view["comment"])
	f.customers.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	f.items.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdateReview_UnknownItem(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _, review := adaWidget()

	f.reviews.On("GetByID", ctx, int64(1)).Return(review, nil)
	f.items.On("GetByID", ctx, int64(9)).Return(nil, repository.ErrItemNotFound)

	_, err := f.service.UpdateReview(ctx, 1, &entity.UpdateReviewRequest{ItemID: 9})

	assert.ErrorIs(t, err, ErrItemNotFound)
	f.reviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateReview_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, int64(3)).Return(nil, repository.ErrReviewNotFound)

	_, err := f.service.UpdateReview(ctx, 3, &entity.UpdateReviewRequest{})

	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestDeleteReview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ada, widget, review := adaWidget()

	f.reviews.On("GetByID", ctx, int64(1)).Return(review, nil)
	f.reviews.On("Delete", ctx, int64(1)).Return(nil)
	f.cache.On("Invalidate", ctx).Return(nil)
	f.publisher.On("PublishMessage", ctx, "1", mock.Anything).Return(nil)

	require.NoError(t, f.service.DeleteReview(ctx, 1))

	var event entity.ReviewEvent
	require.NoError(t, json.Unmarshal(f.publisher.Messages[0], &event))
	assert.Equal(t, entity.EventReviewDeleted, event.EventType)
	assert.Equal(t, int64(1), event.ItemID)
	assert.Nil(t, event.Review)
	assert.Empty(t, ada.Reviews)
	assert.Empty(t, widget.Reviews)
	f.assertExpectations(t)
}

func TestDeleteReview_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, int64(1)).Return(nil, repository.ErrReviewNotFound)

	assert.ErrorIs(t, f.service.DeleteReview(ctx, 1), ErrReviewNotFound)
	f.reviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// ===================== WarmCache Tests =====================

func TestWarmCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ada, widget, review := adaWidget()

	f.customers.On("GetAll", ctx).Return([]*entity.Customer{ada}, nil)
	f.items.On("GetAll", ctx).Return([]*entity.Item{widget}, nil)
	f.reviews.On("GetAll", ctx).Return([]*entity.Review{review}, nil)
	f.cache.On("Set", ctx, "view:customer:all", mock.Anything, int64(0)).Return(nil)
	f.cache.On("Set", ctx, "view:item:all", mock.Anything, int64(0)).Return(nil)
	f.cache.On("Set", ctx, "view:review:all", mock.Anything, int64(0)).Return(nil)

	require.NoError(t, f.service.WarmCache(ctx))
	f.assertExpectations(t)
}

func TestWarmCache_GenerationError(t *testing.T) {
	f := newBareFixture()
	ctx := context.Background()

	f.cache.On("Generation", ctx).Return(int64(0), errors.New("redis down"))

	err := f.service.WarmCache(ctx)

	assert.ErrorContains(t, err, "failed to warm customer views")
	f.customers.AssertNotCalled(t, "GetAll", mock.Anything)
}

func TestWarmCache_StopsOnError(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.customers.On("GetAll", ctx).Return(nil, errors.New("db down"))

	err := f.service.WarmCache(ctx)

	assert.ErrorContains(t, err, "failed to warm customer views")
	f.items.AssertNotCalled(t, "GetAll", mock.Anything)
}
