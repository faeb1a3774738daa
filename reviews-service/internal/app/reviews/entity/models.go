package entity

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"
)

// Customer - покупатель, оставляющий отзывы
type Customer struct {
	ID      int64     `gorm:"primaryKey;autoIncrement"`
	Name    string    `gorm:"type:varchar(255)"`
	Reviews []*Review `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName указывает имя таблицы для GORM
func (Customer) TableName() string {
	return "customers"
}

// Items - товары покупателя через его отзывы (по одному на отзыв, в порядке Reviews).
// Вычисляется при каждом обращении и нигде не хранится; повторы не убираются.
func (c *Customer) Items() []*Item {
	return lo.Map(c.Reviews, func(r *Review, _ int) *Item {
		return r.Item
	})
}

func (c *Customer) String() string {
	return fmt.Sprintf("<Customer %d, %s>", c.ID, c.Name)
}

// Item - товар. Цена может отсутствовать или быть отрицательной, ограничений нет
type Item struct {
	ID      int64     `gorm:"primaryKey;autoIncrement"`
	Name    string    `gorm:"type:varchar(255)"`
	Price   *float64  `gorm:"type:double precision"`
	Reviews []*Review `gorm:"foreignKey:ItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName указывает имя таблицы для GORM
func (Item) TableName() string {
	return "items"
}

func (i *Item) String() string {
	price := "None"
	if i.Price != nil {
		price = strconv.FormatFloat(*i.Price, 'f', -1, 64)
	}
	return fmt.Sprintf("<Item %d, %s, %s>", i.ID, i.Name, price)
}

// Review - связующая сущность с полезной нагрузкой (комментарий):
// единственное место, где существует пара покупатель-товар
type Review struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Comment    *string   `gorm:"type:text"`
	CustomerID int64     `gorm:"not null;index"`
	ItemID     int64     `gorm:"not null;index"`
	Customer   *Customer `gorm:"foreignKey:CustomerID"`
	Item       *Item     `gorm:"foreignKey:ItemID"`
}

// TableName указывает имя таблицы для GORM
func (Review) TableName() string {
	return "reviews"
}

func (r *Review) String() string {
	comment := "None"
	if r.Comment != nil {
		comment = *r.Comment
	}
	return fmt.Sprintf("<Review %d, %s>", r.ID, comment)
}

// AttachReview - единственная точка изменения связи покупатель-отзыв-товар.
// Отзыв убирается из коллекций прежних владельцев и добавляется в коллекции новых,
// поэтому обе стороны всегда согласованы. nil оставляет соответствующую сторону пустой.
func AttachReview(r *Review, c *Customer, i *Item) {
	DetachReview(r)

	if c != nil {
		r.Customer = c
		r.CustomerID = c.ID
		c.Reviews = append(c.Reviews, r)
	}
	if i != nil {
		r.Item = i
		r.ItemID = i.ID
		i.Reviews = append(i.Reviews, r)
	}
}

// DetachReview убирает отзыв из коллекций обоих владельцев и обнуляет ссылки на них
func DetachReview(r *Review) {
	if r.Customer != nil {
		r.Customer.Reviews = without(r.Customer.Reviews, r)
		r.Customer = nil
		r.CustomerID = 0
	}
	if r.Item != nil {
		r.Item.Reviews = without(r.Item.Reviews, r)
		r.Item = nil
		r.ItemID = 0
	}
}

func without(reviews []*Review, r *Review) []*Review {
	return lo.Filter(reviews, func(other *Review, _ int) bool {
		return other != r
	})
}
