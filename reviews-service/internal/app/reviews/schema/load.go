package schema

import (
	"math"
	"strconv"
	"unicode/utf8"

	"shopreviews/reviews-service/internal/app/reviews/entity"

	"github.com/tidwall/gjson"
)

// Разбор входящего JSON. Читаются только ключи из белого списка схемы,
// остальные (в том числе исключённые на данном уровне вложенности) игнорируются.
// Отсутствующий ключ и null равнозначны и оставляют нулевое значение.
// При повторе ключа в объекте действует последнее значение.

func parseObject(data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, &FieldError{Reason: "malformed JSON"}
	}
	if !utf8.Valid(data) {
		return gjson.Result{}, &FieldError{Reason: "invalid UTF-8"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return gjson.Result{}, &FieldError{Reason: "expected a JSON object"}
	}
	return root, nil
}

func loadCustomer(node gjson.Result, path string, withReviews bool) (*entity.Customer, error) {
	c := &entity.Customer{}

	var err error
	if c.ID, err = intField(node, path, fieldID); err != nil {
		return nil, err
	}
	if c.Name, err = stringField(node, path, fieldName); err != nil {
		return nil, err
	}
	if !withReviews {
		return c, nil
	}

	err = eachObject(node, path, fieldReviews, func(el gjson.Result, elPath string) error {
		r, err := loadReviewFields(el, elPath)
		if err != nil {
			return err
		}
		item, err := nestedItem(el, elPath)
		if err != nil {
			return err
		}
		entity.AttachReview(r, c, item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func loadItem(node gjson.Result, path string, withReviews bool) (*entity.Item, error) {
	i := &entity.Item{}

	var err error
	if i.ID, err = intField(node, path, fieldID); err != nil {
		return nil, err
	}
	if i.Name, err = stringField(node, path, fieldName); err != nil {
		return nil, err
	}
	if i.Price, err = floatField(node, path, fieldPrice); err != nil {
		return nil, err
	}
	if !withReviews {
		return i, nil
	}

	err = eachObject(node, path, fieldReviews, func(el gjson.Result, elPath string) error {
		r, err := loadReviewFields(el, elPath)
		if err != nil {
			return err
		}
		customer, err := nestedCustomer(el, elPath)
		if err != nil {
			return err
		}
		entity.AttachReview(r, customer, i)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return i, nil
}

func loadReviewFields(node gjson.Result, path string) (*entity.Review, error) {
	r := &entity.Review{}

	var err error
	if r.ID, err = intField(node, path, fieldID); err != nil {
		return nil, err
	}
	if r.Comment, err = optionalStringField(node, path, fieldComment); err != nil {
		return nil, err
	}
	return r, nil
}

func nestedCustomer(node gjson.Result, path string) (*entity.Customer, error) {
	v, p, ok, err := objectField(node, path, fieldCustomer)
	if err != nil || !ok {
		return nil, err
	}
	return loadCustomer(v, p, false)
}

func nestedItem(node gjson.Result, path string) (*entity.Item, error) {
	v, p, ok, err := objectField(node, path, fieldItem)
	if err != nil || !ok {
		return nil, err
	}
	return loadItem(v, p, false)
}

// ===================== поля =====================

func lookup(node gjson.Result, path, key string) (gjson.Result, string, bool) {
	var v gjson.Result
	node.ForEach(func(k, value gjson.Result) bool {
		if k.Str == key {
			v = value
		}
		return true
	})
	return v, joinPath(path, key), v.Exists() && v.Type != gjson.Null
}

func intField(node gjson.Result, path, key string) (int64, error) {
	v, p, ok := lookup(node, path, key)
	if !ok {
		return 0, nil
	}
	if v.Type != gjson.Number {
		return 0, &FieldError{Field: p, Reason: "must be an integer"}
	}
	n, err := strconv.ParseInt(v.Raw, 10, 64)
	if err != nil {
		return 0, &FieldError{Field: p, Reason: "must be an integer"}
	}
	return n, nil
}

func stringField(node gjson.Result, path, key string) (string, error) {
	s, err := optionalStringField(node, path, key)
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

func optionalStringField(node gjson.Result, path, key string) (*string, error) {
	v, p, ok := lookup(node, path, key)
	if !ok {
		return nil, nil
	}
	if v.Type != gjson.String {
		return nil, &FieldError{Field: p, Reason: "must be a string"}
	}
	s := v.String()
	return &s, nil
}

func floatField(node gjson.Result, path, key string) (*float64, error) {
	v, p, ok := lookup(node, path, key)
	if !ok {
		return nil, nil
	}
	if v.Type != gjson.Number {
		return nil, &FieldError{Field: p, Reason: "must be a number"}
	}
	f, err := strconv.ParseFloat(v.Raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, &FieldError{Field: p, Reason: "must be a finite number"}
	}
	return &f, nil
}

func objectField(node gjson.Result, path, key string) (gjson.Result, string, bool, error) {
	v, p, ok := lookup(node, path, key)
	if !ok {
		return v, p, false, nil
	}
	if !v.IsObject() {
		return v, p, false, &FieldError{Field: p, Reason: "must be an object"}
	}
	return v, p, true, nil
}

func eachObject(node gjson.Result, path, key string, fn func(el gjson.Result, elPath string) error) error {
	v, p, ok := lookup(node, path, key)
	if !ok {
		return nil
	}
	if !v.IsArray() {
		return &FieldError{Field: p, Reason: "must be an array"}
	}

	for idx, el := range v.Array() {
		elPath := joinPath(p, strconv.Itoa(idx))
		if !el.IsObject() {
			return &FieldError{Field: elPath, Reason: "must be an object"}
		}
		if err := fn(el, elPath); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
