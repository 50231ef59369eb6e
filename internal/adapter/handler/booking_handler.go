package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/srgjo27/campsite_booking/internal/core/ports"
	"github.com/srgjo27/campsite_booking/internal/core/services"
)

type BookingHandler struct {
	svc *services.BookingService
}

func NewBookingHandler(svc *services.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// CreateBooking accepts {booking, pricing} from clients that run the wizard
// themselves.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req ports.Submission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}

	resp, err := h.svc.CreateBooking(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.svc.GetBookingByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}
