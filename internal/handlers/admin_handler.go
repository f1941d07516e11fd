package handlers

import (
	"net/http"
	"strconv"

	"order_service/internal/models"
	"order_service/internal/repository"
	"order_service/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	orderService    services.OrderService
	paymentService  services.PaymentService
	couponService   services.CouponService
	dispatchService services.DispatchService
}

func NewAdminHandler(
	orderService services.OrderService,
	paymentService services.PaymentService,
	couponService services.CouponService,
	dispatchService services.DispatchService,
) *AdminHandler {
	return &AdminHandler{
		orderService:    orderService,
		paymentService:  paymentService,
		couponService:   couponService,
		dispatchService: dispatchService,
	}
}

// Order management endpoints
func (h *AdminHandler) ListOrders(c *gin.Context) {
	var filter repository.OrderFilter
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		filter.Status = status
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
	})
}

func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status  string `json:"status" binding:"required"`
		Comment string `json:"comment"`
		Force   bool   `json:"force"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.orderService.Transition(c.Request.Context(), c.Param("order_number"), status, req.Comment, req.Force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *AdminHandler) Dispatch(c *gin.Context) {
	var req struct {
		Provider string `json:"provider"`
	}
	// an empty body means the preferred provider
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request format")
			return
		}
	}

	var provider models.CourierProvider
	if req.Provider != "" {
		parsed, err := models.ParseCourierProvider(req.Provider)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		provider = parsed
	}

	result, err := h.orderService.Dispatch(c.Request.Context(), c.Param("order_number"), provider)
	if err != nil {
		respondError(c, err)
		return
	}
	if result.Unavailable {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  result.Reason,
			"code":   services.CodeProviderUnavailable,
			"result": result,
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) PaymentFailure(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request format")
			return
		}
	}

	order, err := h.paymentService.RecordFailure(c.Request.Context(), c.Param("order_number"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Dispatch settings endpoints
func (h *AdminHandler) GetDispatchSettings(c *gin.Context) {
	settings, err := h.dispatchService.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *AdminHandler) UpdateDispatchSettings(c *gin.Context) {
	var input services.DispatchSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	if input.UpdatedBy == "" {
		input.UpdatedBy = "admin"
	}

	settings, err := h.dispatchService.UpdateSettings(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// Coupon endpoints
func (h *AdminHandler) ListCoupons(c *gin.Context) {
	coupons, err := h.couponService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

func (h *AdminHandler) CreateCoupon(c *gin.Context) {
	var input services.CouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	coupon, err := h.couponService.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

func (h *AdminHandler) UpdateCoupon(c *gin.Context) {
	var input services.CouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	coupon, err := h.couponService.Update(c.Request.Context(), c.Param("code"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

func (h *AdminHandler) DeactivateCoupon(c *gin.Context) {
	code := c.Param("code")
	if err := h.couponService.Deactivate(c.Request.Context(), code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":   models.NormalizeCouponCode(code),
		"status": "deactivated",
	})
}
