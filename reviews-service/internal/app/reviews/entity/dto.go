package entity

import "time"

// CreateCustomerRequest - данные для создания/обновления покупателя
type CreateCustomerRequest struct {
	Name string `validate:"required,max=255"`
}

type UpdateCustomerRequest = CreateCustomerRequest

// CreateItemRequest - данные для создания/обновления товара. Цена не валидируется
type CreateItemRequest struct {
	Name  string `validate:"required,max=255"`
	Price *float64
}

type UpdateItemRequest = CreateItemRequest

// CreateReviewRequest - отзыв всегда ссылается на покупателя и товар
type CreateReviewRequest struct {
	Comment    *string
	CustomerID int64 `validate:"required,gt=0"`
	ItemID     int64 `validate:"required,gt=0"`
}

// UpdateReviewRequest - замена комментария и, при необходимости, перепривязка.
// Нулевые CustomerID/ItemID оставляют текущего владельца
type UpdateReviewRequest struct {
	Comment    *string
	CustomerID int64 `validate:"gte=0"`
	ItemID     int64 `validate:"gte=0"`
}

// ReviewEvent - событие изменения отзыва для Kafka
type ReviewEvent struct {
	EventType  string                 `json:"event_type"` // REVIEW_CREATED, REVIEW_UPDATED, REVIEW_DELETED
	ReviewID   int64                  `json:"review_id"`
	CustomerID int64                  `json:"customer_id"`
	ItemID     int64                  `json:"item_id"`
	Review     map[string]interface{} `json:"review,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

const (
	EventReviewCreated = "REVIEW_CREATED"
	EventReviewUpdated = "REVIEW_UPDATED"
	EventReviewDeleted = "REVIEW_DELETED"
)

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
