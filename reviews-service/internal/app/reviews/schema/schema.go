// Package schema описывает JSON представления покупателей, товаров и отзывов.
//
// Глубина вложенности зашита в каждую схему: второй уровень никогда не содержит
// обратной ссылки на первый, поэтому результат конечен без поиска циклов.
//
//	Customer -> [Review -> Item]
//	Item     -> [Review -> Customer]
//	Review   -> {Customer, Item}
package schema

import (
	"shopreviews/reviews-service/internal/app/reviews/entity"
)

// View - JSON-совместимое представление сущности
type View = map[string]interface{}

const (
	fieldID       = "id"
	fieldName     = "name"
	fieldPrice    = "price"
	fieldComment  = "comment"
	fieldReviews  = "reviews"
	fieldCustomer = "customer"
	fieldItem     = "item"
)

// CustomerSchema: id, name, reviews (у вложенных отзывов исключено поле customer)
type CustomerSchema struct{}

// ItemSchema: id, name, price, reviews (у вложенных отзывов исключено поле item)
type ItemSchema struct{}

// ReviewSchema: id, comment, customer и item (у вложенных исключено поле reviews)
type ReviewSchema struct{}

var (
	Customer CustomerSchema
	Item     ItemSchema
	Review   ReviewSchema
)

// ===================== CustomerSchema =====================

func (CustomerSchema) Name() string { return "customer" }

func (CustomerSchema) ToView(c *entity.Customer) (View, error) {
	view := customerFields(c)

	reviews := make([]View, 0, len(c.Reviews))
	for _, r := range c.Reviews {
		if r.Item == nil {
			return nil, &MissingRelationshipError{Entity: "review", ID: r.ID, Field: fieldItem}
		}
		nested := reviewFields(r)
		nested[fieldItem] = itemFields(r.Item)
		reviews = append(reviews, nested)
	}
	view[fieldReviews] = reviews

	return view, nil
}

func (s CustomerSchema) ToViews(customers []*entity.Customer) ([]View, error) {
	return toViews(customers, s.ToView)
}

// ToNestedView - форма покупателя внутри отзыва, без reviews
func (CustomerSchema) ToNestedView(c *entity.Customer) View {
	return customerFields(c)
}

// FromView разбирает JSON покупателя. Неизвестные ключи отбрасываются,
// вложенные отзывы связываются с покупателем через entity.AttachReview
func (CustomerSchema) FromView(data []byte) (*entity.Customer, error) {
	root, err := parseObject(data)
	if err != nil {
		return nil, err
	}
	return loadCustomer(root, "", true)
}

// ===================== ItemSchema =====================

func (ItemSchema) Name() string { return "item" }

func (ItemSchema) ToView(i *entity.Item) (View, error) {
	view := itemFields(i)

	reviews := make([]View, 0, len(i.Reviews))
	for _, r := range i.Reviews {
		if r.Customer == nil {
			return nil, &MissingRelationshipError{Entity: "review", ID: r.ID, Field: fieldCustomer}
		}
		nested := reviewFields(r)
		nested[fieldCustomer] = customerFields(r.Customer)
		reviews = append(reviews, nested)
	}
	view[fieldReviews] = reviews

	return view, nil
}

func (s ItemSchema) ToViews(items []*entity.Item) ([]View, error) {
	return toViews(items, s.ToView)
}

// ToNestedView - форма товара внутри отзыва, без reviews
func (ItemSchema) ToNestedView(i *entity.Item) View {
	return itemFields(i)
}

func (ItemSchema) FromView(data []byte) (*entity.Item, error) {
	root, err := parseObject(data)
	if err != nil {
		return nil, err
	}
	return loadItem(root, "", true)
}

// ===================== ReviewSchema =====================

func (ReviewSchema) Name() string { return "review" }

func (ReviewSchema) ToView(r *entity.Review) (View, error) {
	if r.Customer == nil {
		return nil, &MissingRelationshipError{Entity: "review", ID: r.ID, Field: fieldCustomer}
	}
	if r.Item == nil {
		return nil, &MissingRelationshipError{Entity: "review", ID: r.ID, Field: fieldItem}
	}

	view := reviewFields(r)
	view[fieldCustomer] = customerFields(r.Customer)
	view[fieldItem] = itemFields(r.Item)

	return view, nil
}

func (s ReviewSchema) ToViews(reviews []*entity.Review) ([]View, error) {
	return toViews(reviews, s.ToView)
}

func (ReviewSchema) FromView(data []byte) (*entity.Review, error) {
	root, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	r, err := loadReviewFields(root, "")
	if err != nil {
		return nil, err
	}
	customer, err := nestedCustomer(root, "")
	if err != nil {
		return nil, err
	}
	item, err := nestedItem(root, "")
	if err != nil {
		return nil, err
	}

	entity.AttachReview(r, customer, item)
	return r, nil
}

// ===================== поля первого уровня =====================

func customerFields(c *entity.Customer) View {
	return View{
		fieldID:   c.ID,
		fieldName: c.Name,
	}
}

func itemFields(i *entity.Item) View {
	return View{
		fieldID:    i.ID,
		fieldName:  i.Name,
		fieldPrice: optional(i.Price),
	}
}

func reviewFields(r *entity.Review) View {
	return View{
		fieldID:      r.ID,
		fieldComment: optional(r.Comment),
	}
}

// optional возвращает нетипизированный nil, чтобы в View лежал именно JSON null
func optional[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func toViews[T any](values []T, toView func(T) (View, error)) ([]View, error) {
	views := make([]View, 0, len(values))
	for _, v := range values {
		view, err := toView(v)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
