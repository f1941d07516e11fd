package models

import (
	"fmt"
	"strings"
	"time"
)

// DispatchSettings is the process-wide dispatch policy edited from the admin
// dashboard. Only the active row is read.
type DispatchSettings struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	AutoAccept        bool            `json:"auto_accept" gorm:"default:false"`
	PreferredProvider CourierProvider `json:"preferred_provider" gorm:"not null;default:'UBER'"`
	IsActive          bool            `json:"is_active" gorm:"default:true"`
	UpdatedBy         string          `json:"updated_by"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type CourierProvider string

const (
	ProviderUber   CourierProvider = "UBER"
	ProviderPorter CourierProvider = "PORTER"
)

func ParseCourierProvider(raw string) (CourierProvider, error) {
	p := CourierProvider(strings.ToUpper(strings.TrimSpace(raw)))
	switch p {
	case ProviderUber, ProviderPorter:
		return p, nil
	}
	return "", fmt.Errorf("unknown courier provider %q", raw)
}

type VehicleType string

const (
	VehicleTwoWheeler   VehicleType = "TWO_WHEELER"
	VehicleThreeWheeler VehicleType = "THREE_WHEELER"
	VehicleFourWheeler  VehicleType = "FOUR_WHEELER"
	VehicleUnknown      VehicleType = "UNKNOWN"
)

type CourierAssignment struct {
	ID           uint            `json:"-" gorm:"primaryKey"`
	OrderID      uint            `json:"-" gorm:"uniqueIndex;not null"`
	Provider     CourierProvider `json:"provider" gorm:"not null"`
	CourierName  string          `json:"courier_name"`
	CourierPhone string          `json:"courier_phone"`
	TrackingURL  string          `json:"tracking_url"`
	ProviderRef  string          `json:"provider_ref" gorm:"not null"`
	VehicleType  VehicleType     `json:"vehicle_type"`
	AssignedAt   time.Time       `json:"assigned_at"`
}

type DispatchStatus string

const (
	DispatchNone        DispatchStatus = "NONE"
	DispatchRequested   DispatchStatus = "REQUESTED"
	DispatchAssigned    DispatchStatus = "ASSIGNED"
	DispatchUnavailable DispatchStatus = "UNAVAILABLE"
)
