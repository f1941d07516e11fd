package models

import (
	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID        uint            `json:"-" gorm:"primaryKey"`
	OrderID   uint            `json:"-" gorm:"index;not null"`
	ItemID    string          `json:"item_id" gorm:"not null"`
	Name      string          `json:"name" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Subtotal sums price x quantity over the items.
func Subtotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
