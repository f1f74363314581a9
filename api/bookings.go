package api

import (
	"net/http"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/Domenick1991/ridebooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	TripID  int64   `json:"trip_id" binding:"required"`
	SeatIDs []int64 `json:"seat_ids" binding:"required"`
}

type cancelBookingResponse struct {
	Message string          `json:"message"`
	Booking *domain.Booking `json:"booking"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// Register mounts the booking routes; every one of them needs an authenticated user.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/my-bookings", h.listMine)
	router.POST("/:id/cancel", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:  currentUserID(c),
		TripID:  req.TripID,
		SeatIDs: req.SeatIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) listMine(c *gin.Context) {
	bookings, err := h.service.GetBookingsForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelBookingResponse{
		Message: "Booking cancelled successfully",
		Booking: b,
	})
}
