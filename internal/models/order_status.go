package models

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	StatusPlaced         OrderStatus = "PLACED"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusPreparation    OrderStatus = "PREPARATION"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// lifecycle is the forward sequence an order walks through.
var lifecycle = []OrderStatus{
	StatusPlaced,
	StatusConfirmed,
	StatusPreparation,
	StatusOutForDelivery,
	StatusDelivered,
}

// ParseOrderStatus accepts the enum value as well as display forms like
// "Out for Delivery".
func ParseOrderStatus(raw string) (OrderStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	status := OrderStatus(normalized)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return status, nil
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPlaced, StatusConfirmed, StatusPreparation, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// AllowedTransitions is the transition table: the statuses reachable in one
// step from s.
func AllowedTransitions(s OrderStatus) []OrderStatus {
	switch s {
	case StatusPlaced:
		return []OrderStatus{StatusConfirmed, StatusCancelled}
	case StatusConfirmed:
		return []OrderStatus{StatusPreparation, StatusCancelled}
	case StatusPreparation:
		return []OrderStatus{StatusOutForDelivery, StatusCancelled}
	case StatusOutForDelivery:
		return []OrderStatus{StatusDelivered, StatusCancelled}
	case StatusDelivered, StatusCancelled:
		return nil
	}
	return nil
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range AllowedTransitions(from) {
		if next == to {
			return true
		}
	}
	return false
}

// IsForwardSkip reports whether to lies further along the lifecycle than the
// next step from from.
func IsForwardSkip(from, to OrderStatus) bool {
	fromIdx, toIdx := lifecycleIndex(from), lifecycleIndex(to)
	if fromIdx < 0 || toIdx < 0 {
		return false
	}
	return toIdx > fromIdx+1
}

func lifecycleIndex(s OrderStatus) int {
	for i, step := range lifecycle {
		if step == s {
			return i
		}
	}
	return -1
}
