package courier

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

var _ Provider = (*UberClient)(nil)

type UberClient struct {
	cfg     Config
	http    *resty.Client
	breaker Breaker
}

type uberManifestItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type uberDeliveryRequest struct {
	ExternalID         string             `json:"external_id"`
	PickupAddress      string             `json:"pickup_address,omitempty"`
	DropoffName        string             `json:"dropoff_name"`
	DropoffPhoneNumber string             `json:"dropoff_phone_number"`
	DropoffAddress     string             `json:"dropoff_address"`
	ManifestTotalValue int64              `json:"manifest_total_value"`
	ManifestItems      []uberManifestItem `json:"manifest_items"`
}

type uberDeliveryResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	TrackingURL string `json:"tracking_url"`
	Courier     *struct {
		Name        string `json:"name"`
		PhoneNumber string `json:"phone_number"`
		VehicleType string `json:"vehicle_type"`
	} `json:"courier"`
}

func NewUberClient(cfg Config, breaker Breaker) *UberClient {
	if breaker == nil {
		breaker = passthrough{}
	}
	return &UberClient{
		cfg:     cfg,
		http:    newHTTPClient(cfg).SetAuthToken(cfg.APIKey),
		breaker: breaker,
	}
}

func (c *UberClient) Name() string {
	return "UBER"
}

func (c *UberClient) IsEnabled() bool {
	return c.cfg.Enabled && c.cfg.BaseURL != ""
}

func (c *UberClient) CreateDelivery(ctx context.Context, req DeliveryRequest) (*Delivery, error) {
	if !c.IsEnabled() {
		return nil, ErrProviderDisabled
	}

	body := uberDeliveryRequest{
		ExternalID:         req.OrderNumber,
		PickupAddress:      firstNonEmpty(req.PickupAddress, c.cfg.PickupAddress),
		DropoffName:        req.CustomerName,
		DropoffPhoneNumber: req.CustomerPhone,
		DropoffAddress:     req.DropAddress,
		// Uber expects minor units
		ManifestTotalValue: req.OrderValue.Shift(2).Round(0).IntPart(),
	}
	for _, item := range req.Items {
		body.ManifestItems = append(body.ManifestItems, uberManifestItem{Name: item.Name, Quantity: item.Quantity})
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		var result uberDeliveryResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&result).
			Post("/deliveries")
		if err != nil {
			return nil, fmt.Errorf("failed to call uber: %w", err)
		}
		if resp.IsError() {
			return nil, &StatusError{Provider: c.Name(), StatusCode: resp.StatusCode(), Body: truncate(resp.String())}
		}
		if result.ID == "" {
			return nil, fmt.Errorf("uber response has no delivery id")
		}
		return &result, nil
	})
	if err != nil {
		return nil, err
	}

	result := out.(*uberDeliveryResponse)
	delivery := &Delivery{
		ProviderRef: result.ID,
		TrackingURL: result.TrackingURL,
		Vehicle:     Unknown,
	}
	if result.Courier != nil {
		delivery.CourierName = result.Courier.Name
		delivery.CourierPhone = result.Courier.PhoneNumber
		delivery.Vehicle = uberVehicle(result.Courier.VehicleType)
	}
	return delivery, nil
}

func uberVehicle(raw string) VehicleType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bicycle", "scooter", "motorbike", "bike":
		return TwoWheeler
	case "car", "van":
		return FourWheeler
	}
	return Unknown
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
