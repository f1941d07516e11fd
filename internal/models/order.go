package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uint               `json:"id" gorm:"primaryKey"`
	OrderNumber     string             `json:"order_number" gorm:"uniqueIndex;not null"`
	CheckoutKey     *string            `json:"-" gorm:"uniqueIndex"`
	Items           []OrderItem        `json:"items" gorm:"foreignKey:OrderID"`
	Subtotal        decimal.Decimal    `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	Discount        decimal.Decimal    `json:"discount" gorm:"type:decimal(10,2);not null;default:0"`
	TotalAmount     decimal.Decimal    `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	CouponCode      string             `json:"coupon_code,omitempty"`
	PaymentMethod   PaymentMethod      `json:"payment_method" gorm:"not null"`
	PaymentStatus   PaymentStatus      `json:"payment_status" gorm:"not null;default:'PENDING'"`
	PaymentOrderRef *string            `json:"payment_order_ref,omitempty" gorm:"uniqueIndex"`
	PaymentRef      string             `json:"payment_ref,omitempty"`
	Status          OrderStatus        `json:"status" gorm:"not null;index"`
	StatusHistory   []StatusEntry      `json:"status_history" gorm:"foreignKey:OrderID"`
	Customer        CustomerSnapshot   `json:"customer" gorm:"embedded;embeddedPrefix:customer_"`
	Courier         *CourierAssignment `json:"courier,omitempty" gorm:"foreignKey:OrderID"`
	DispatchStatus  DispatchStatus     `json:"dispatch_status" gorm:"not null;default:'NONE'"`
	DispatchNote    string             `json:"dispatch_note,omitempty"`
	Version         int                `json:"-" gorm:"not null;default:0"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// CustomerSnapshot is captured at checkout and never re-read from the live profile.
type CustomerSnapshot struct {
	Name    string `json:"name" gorm:"not null"`
	Phone   string `json:"phone" gorm:"not null"`
	Address string `json:"address" gorm:"type:text;not null"`
}

type StatusEntry struct {
	ID        uint        `json:"-" gorm:"primaryKey"`
	OrderID   uint        `json:"-" gorm:"index;not null"`
	Status    OrderStatus `json:"status" gorm:"not null"`
	Timestamp time.Time   `json:"timestamp" gorm:"not null"`
	Comment   string      `json:"comment,omitempty"`
}

func (StatusEntry) TableName() string {
	return "order_status_histories"
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "ONLINE"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentCOD || m == PaymentOnline
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// AppendStatus records a transition. Timestamps never go backwards even if
// the wall clock does.
func (o *Order) AppendStatus(status OrderStatus, at time.Time, comment string) {
	if n := len(o.StatusHistory); n > 0 && at.Before(o.StatusHistory[n-1].Timestamp) {
		at = o.StatusHistory[n-1].Timestamp
	}
	o.StatusHistory = append(o.StatusHistory, StatusEntry{
		OrderID:   o.ID,
		Status:    status,
		Timestamp: at,
		Comment:   comment,
	})
	o.Status = status
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.StatusHistory = append([]StatusEntry(nil), o.StatusHistory...)
	if o.Courier != nil {
		courier := *o.Courier
		c.Courier = &courier
	}
	if o.CheckoutKey != nil {
		key := *o.CheckoutKey
		c.CheckoutKey = &key
	}
	if o.PaymentOrderRef != nil {
		ref := *o.PaymentOrderRef
		c.PaymentOrderRef = &ref
	}
	return &c
}

type EventType string

const (
	EventStatusChanged   EventType = "order.status_changed"
	EventCourierAssigned EventType = "order.courier_assigned"
	EventPaymentUpdated  EventType = "order.payment_updated"
)

// OrderEvent is published after a change to an order has been committed.
type OrderEvent struct {
	Type           EventType          `json:"type"`
	OrderNumber    string             `json:"order_number"`
	Status         OrderStatus        `json:"status"`
	PreviousStatus OrderStatus        `json:"previous_status,omitempty"`
	PaymentStatus  PaymentStatus      `json:"payment_status,omitempty"`
	DispatchStatus DispatchStatus     `json:"dispatch_status,omitempty"`
	Courier        *CourierAssignment `json:"courier,omitempty"`
	OccurredAt     time.Time          `json:"occurred_at"`
}
