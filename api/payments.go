package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/Domenick1991/ridebooking/internal/service/settlement"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service settlement.SettlementUseCase
}

type requestPaymentRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Gateway   string `json:"gateway"`
}

func NewPaymentHandler(service settlement.SettlementUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Register mounts /request behind auth. /verify is the gateway callback and stays public.
func (h *PaymentHandler) Register(router *gin.RouterGroup, auth gin.HandlerFunc) {
	router.POST("/request", auth, h.request)
	router.GET("/verify", h.verify)
}

func (h *PaymentHandler) request(c *gin.Context) {
	var req requestPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	payment, err := h.service.RequestPayment(c.Request.Context(), currentUserID(c), req.BookingID, req.Gateway)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) verify(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("transaction_id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "transaction_id is required")
		return
	}

	result, err := h.service.ResolvePayment(c.Request.Context(), id, domain.PaymentOutcome(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type TransactionHandler struct {
	service settlement.SettlementUseCase
}

func NewTransactionHandler(service settlement.SettlementUseCase) *TransactionHandler {
	return &TransactionHandler{service: service}
}

func (h *TransactionHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
}

func (h *TransactionHandler) list(c *gin.Context) {
	// Malformed paging values fall back to the defaults.
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.service.ListTransactions(c.Request.Context(), currentUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
