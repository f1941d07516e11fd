package handlers

import (
	"net/http"
	"strings"

	"order_service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	orderService    services.OrderService
	trackingService services.TrackingService
	couponService   services.CouponService
}

func NewOrderHandler(
	orderService services.OrderService,
	trackingService services.TrackingService,
	couponService services.CouponService,
) *OrderHandler {
	return &OrderHandler{
		orderService:    orderService,
		trackingService: trackingService,
		couponService:   couponService,
	}
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	if key := c.GetHeader("Idempotency-Key"); key != "" && req.CheckoutKey == "" {
		req.CheckoutKey = key
	}

	order, err := h.orderService.Checkout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// Tracking serves the polled tracker view.
func (h *OrderHandler) Tracking(c *gin.Context) {
	orderNumber := strings.TrimSpace(c.Param("order_number"))
	if orderNumber == "" {
		badRequest(c, "Order number is required")
		return
	}

	view, err := h.trackingService.Get(c.Request.Context(), orderNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, view)
}

type quoteRequest struct {
	CouponCode string          `json:"coupon_code" binding:"required"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

func (h *OrderHandler) QuoteCoupon(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	quote, err := h.couponService.Apply(c.Request.Context(), req.CouponCode, req.Subtotal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}
