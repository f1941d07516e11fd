package handlers

import (
	"net/http"

	"order_service/internal/services"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Callback receives the gateway's success notification. The signature may
// come in the body or in the X-Payment-Signature header.
func (h *PaymentHandler) Callback(c *gin.Context) {
	var callback services.PaymentCallback
	if err := c.ShouldBindJSON(&callback); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	if callback.Signature == "" {
		callback.Signature = c.GetHeader("X-Payment-Signature")
	}

	order, err := h.paymentService.ConfirmPayment(c.Request.Context(), callback)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_number":   order.OrderNumber,
		"payment_status": order.PaymentStatus,
		"payment_ref":    order.PaymentRef,
	})
}
