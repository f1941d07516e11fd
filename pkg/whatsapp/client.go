package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrNotDelivered = errors.New("whatsapp gateway did not accept the message")

type Client struct {
	countryCode string
	path        string
	http        *resty.Client
}

type SendMessageRequest struct {
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	IsForwarded bool   `json:"is_forwarded"`
	Duration    int    `json:"duration"`
}

type SendMessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"message_id"`
		Status    string `json:"status"`
	} `json:"data"`
}

type Config struct {
	BaseURL  string
	Username string
	Password string
	Path     string
	// CountryCode replaces the leading 0 of local numbers, e.g. "91".
	CountryCode string
	Timeout     time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetBasicAuth(cfg.Username, cfg.Password).
		SetHeader("Content-Type", "application/json")

	return &Client{
		countryCode: strings.TrimPrefix(cfg.CountryCode, "+"),
		path:        strings.Trim(cfg.Path, "/"),
		http:        rc,
	}
}

// NormalizePhone turns "09812345678" or "+91 98123 45678" into "919812345678".
func (c *Client) NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if strings.HasPrefix(digits, "0") && c.countryCode != "" {
		return c.countryCode + digits[1:]
	}
	if len(digits) == 10 && c.countryCode != "" {
		return c.countryCode + digits
	}
	return digits
}

// SendMessage delivers a text message through the gateway
func (c *Client) SendMessage(ctx context.Context, phone, message string) (*SendMessageResponse, error) {
	normalized := c.NormalizePhone(phone)
	if normalized == "" {
		return nil, fmt.Errorf("invalid phone number %q", phone)
	}

	var out SendMessageResponse
	endpoint := "/send/message"
	if c.path != "" {
		endpoint = "/" + c.path + endpoint
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(SendMessageRequest{
			Phone:   normalized + "@s.whatsapp.net",
			Message: message,
		}).
		SetResult(&out).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrNotDelivered, resp.StatusCode())
	}
	if !out.Success {
		return &out, fmt.Errorf("%w: %s", ErrNotDelivered, out.Message)
	}
	return &out, nil
}

// SendText is SendMessage for callers that only care about the error.
func (c *Client) SendText(ctx context.Context, phone, message string) error {
	_, err := c.SendMessage(ctx, phone, message)
	return err
}
