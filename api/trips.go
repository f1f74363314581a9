package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/Domenick1991/ridebooking/internal/service/trips"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type TripHandler struct {
	service trips.TripUseCase
}

func NewTripHandler(service trips.TripUseCase) *TripHandler {
	return &TripHandler{service: service}
}

func (h *TripHandler) Register(router *gin.RouterGroup, auth gin.HandlerFunc) {
	router.GET("", h.search)
	router.GET("/:id", h.get)
	router.POST("", auth, h.create)
}

func (h *TripHandler) create(c *gin.Context) {
	var req trips.CreateTripInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	trip, err := h.service.CreateTrip(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

func (h *TripHandler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	trip, err := h.service.GetTrip(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *TripHandler) search(c *gin.Context) {
	filter := domain.TripFilter{
		Origin:      c.Query("origin"),
		Destination: c.Query("destination"),
	}
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			badRequest(c, "date must be in YYYY-MM-DD format")
			return
		}
		filter.Date = date
	}

	result, err := h.service.SearchTrips(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if result == nil {
		result = []domain.Trip{}
	}
	c.JSON(http.StatusOK, result)
}

// pathID parses the :id parameter and answers 400 itself when it is not a positive integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
