package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRelationship - у отзыва не задан покупатель или товар в момент сериализации
	ErrMissingRelationship = errors.New("missing required relationship")
	// ErrInvalidPayload - входные данные не являются JSON объектом нужной формы
	ErrInvalidPayload = errors.New("invalid payload")
)

// MissingRelationshipError уточняет, у какой сущности и какого поля нет значения
type MissingRelationshipError struct {
	Entity string
	ID     int64
	Field  string
}

func (e *MissingRelationshipError) Error() string {
	return fmt.Sprintf("%s %d: field '%s' is required", e.Entity, e.ID, e.Field)
}

func (e *MissingRelationshipError) Is(target error) bool {
	return target == ErrMissingRelationship
}

// FieldError описывает поле из белого списка с недопустимым значением.
// Field содержит полный путь, например "reviews.0.item.price"
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid payload: %s", e.Reason)
	}
	return fmt.Sprintf("invalid payload: field '%s' %s", e.Field, e.Reason)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidPayload
}
