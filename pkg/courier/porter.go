package courier

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

var _ Provider = (*PorterClient)(nil)

type PorterClient struct {
	cfg     Config
	http    *resty.Client
	breaker Breaker
}

type porterContact struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

type porterLocation struct {
	Address        string         `json:"address"`
	ContactDetails *porterContact `json:"contact_details,omitempty"`
}

type porterCreateRequest struct {
	RequestID     string         `json:"request_id"`
	PickupDetails porterLocation `json:"pickup_details"`
	DropDetails   porterLocation `json:"drop_details"`
	Additional    struct {
		OrderValue string `json:"order_value"`
		ItemCount  int    `json:"item_count"`
	} `json:"additional_comments"`
}

type porterCreateResponse struct {
	RequestID   string `json:"request_id"`
	OrderID     string `json:"order_id"`
	TrackingURL string `json:"tracking_url"`
	PartnerInfo *struct {
		Name   string `json:"name"`
		Mobile struct {
			CountryCode  string `json:"country_code"`
			MobileNumber string `json:"mobile_number"`
		} `json:"mobile"`
		VehicleType string `json:"vehicle_type"`
	} `json:"partner_info"`
}

func NewPorterClient(cfg Config, breaker Breaker) *PorterClient {
	if breaker == nil {
		breaker = passthrough{}
	}
	return &PorterClient{
		cfg:     cfg,
		http:    newHTTPClient(cfg).SetHeader("x-api-key", cfg.APIKey),
		breaker: breaker,
	}
}

func (c *PorterClient) Name() string {
	return "PORTER"
}

func (c *PorterClient) IsEnabled() bool {
	return c.cfg.Enabled && c.cfg.BaseURL != ""
}

func (c *PorterClient) CreateDelivery(ctx context.Context, req DeliveryRequest) (*Delivery, error) {
	if !c.IsEnabled() {
		return nil, ErrProviderDisabled
	}

	var body porterCreateRequest
	body.RequestID = req.OrderNumber
	body.PickupDetails = porterLocation{Address: firstNonEmpty(req.PickupAddress, c.cfg.PickupAddress)}
	body.DropDetails = porterLocation{
		Address:        req.DropAddress,
		ContactDetails: &porterContact{Name: req.CustomerName, PhoneNumber: req.CustomerPhone},
	}
	body.Additional.OrderValue = req.OrderValue.StringFixed(2)
	for _, item := range req.Items {
		body.Additional.ItemCount += item.Quantity
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		var result porterCreateResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&result).
			Post("/v1/orders/create")
		if err != nil {
			return nil, fmt.Errorf("failed to call porter: %w", err)
		}
		if resp.IsError() {
			return nil, &StatusError{Provider: c.Name(), StatusCode: resp.StatusCode(), Body: truncate(resp.String())}
		}
		if result.OrderID == "" {
			return nil, fmt.Errorf("porter response has no order id")
		}
		return &result, nil
	})
	if err != nil {
		return nil, err
	}

	result := out.(*porterCreateResponse)
	delivery := &Delivery{
		ProviderRef: result.OrderID,
		TrackingURL: result.TrackingURL,
		Vehicle:     Unknown,
	}
	if result.PartnerInfo != nil {
		delivery.CourierName = result.PartnerInfo.Name
		delivery.CourierPhone = result.PartnerInfo.Mobile.CountryCode + result.PartnerInfo.Mobile.MobileNumber
		delivery.Vehicle = porterVehicle(result.PartnerInfo.VehicleType)
	}
	return delivery, nil
}

func porterVehicle(raw string) VehicleType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "2w", "two_wheeler", "bike", "scooter":
		return TwoWheeler
	case "3w", "three_wheeler":
		return ThreeWheeler
	case "4w", "tata_ace", "pickup", "truck":
		return FourWheeler
	}
	return Unknown
}
