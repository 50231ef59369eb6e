package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/srgjo27/campsite_booking/internal/core/domain"
	"github.com/srgjo27/campsite_booking/internal/core/services"
)

const dateLayout = "2006-01-02"

type SessionHandler struct {
	registry *services.SessionRegistry
	catalog  *domain.RateCatalog
}

func NewSessionHandler(registry *services.SessionRegistry, catalog *domain.RateCatalog) *SessionHandler {
	return &SessionHandler{registry: registry, catalog: catalog}
}

type sessionResponse struct {
	SessionID           string                  `json:"sessionId"`
	Step                int                     `json:"step"`
	FirstIncompleteStep int                     `json:"firstIncompleteStep"`
	Booking             domain.BookingDraft     `json:"booking"`
	Pricing             domain.PricingBreakdown `json:"pricing"`
	SleepingCapacity    int                     `json:"sleepingCapacity"`
}

type datesRequest struct {
	CheckIn  *string `json:"checkIn"`
	CheckOut *string `json:"checkOut"`
}

type stepRequest struct {
	Step int `json:"step" binding:"required"`
}

type catalogResponse struct {
	Constants      domain.PricingConstants      `json:"pricing"`
	Accommodations []domain.AccommodationOption `json:"accommodations"`
	AddOns         []domain.AddOnOffering       `json:"addOns"`
}

// session resolves the :id path parameter, writing 404 for malformed ids.
func (h *SessionHandler) session(c *gin.Context) (string, *services.BookingSession, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return "", nil, false
	}
	return id, h.registry.Get(c.Request.Context(), id), true
}

func (h *SessionHandler) respond(c *gin.Context, status int, id string, s *services.BookingSession) {
	c.JSON(status, sessionResponse{
		SessionID:           id,
		Step:                s.Step(),
		FirstIncompleteStep: s.FirstIncompleteStep(),
		Booking:             s.Draft(),
		Pricing:             s.ComputePricing(),
		SleepingCapacity:    s.SleepingCapacity(),
	})
}

func (h *SessionHandler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, catalogResponse{
		Constants:      h.catalog.Constants(),
		Accommodations: h.catalog.Accommodations(),
		AddOns:         h.catalog.AddOns(),
	})
}

func (h *SessionHandler) Open(c *gin.Context) {
	id, s := h.registry.Open(c.Request.Context())
	h.respond(c, http.StatusCreated, id, s)
}

func (h *SessionHandler) Get(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, http.StatusOK, id, s)
}

func (h *SessionHandler) Reset(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	s.ResetDraft()
	h.respond(c, http.StatusOK, id, s)
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *SessionHandler) SetDates(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}

	var req datesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		badRequest(c, "invalid checkIn, expected YYYY-MM-DD")
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		badRequest(c, "invalid checkOut, expected YYYY-MM-DD")
		return
	}

	s.SetDateRange(checkIn, checkOut)
	h.respond(c, http.StatusOK, id, s)
}

func (h *SessionHandler) SetGuests(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}

	var req domain.GuestCounts
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}

	s.SetGuestCounts(req)
	h.respond(c, http.StatusOK, id, s)
}

func (h *SessionHandler) PatchGuests(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}

	var req domain.GuestCountsPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}

	s.PatchGuestCounts(req)
	h.respond(c, http.StatusOK, id, s)
}

func (h *SessionHandler) BringOwnTent(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	s.SetBringOwnTent(true)
	h.respond(c, http.StatusOK, id, s)
}

func (h *SessionHandler) AddRental(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.AddRentedUnit(c.Param("unitId")); err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, http.StatusOK, id, s)
}

func (h *SessionHandler) RemoveRental(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	s.RemoveRentedUnit(c.Param("unitId"))
	h.respond(c, http.StatusOK, id, s)
}

func (h *SessionHandler) ToggleAddOn(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.ToggleAddOn(c.Param("offeringId")); err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, http.StatusOK, id, s)
}

func (h *SessionHandler) SetContact(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}

	var req domain.ContactPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}

	s.SetContactInfo(req)
	h.respond(c, http.StatusOK, id, s)
}

// NextStep advances only when the current screen is complete.
func (h *SessionHandler) NextStep(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.CheckStep(s.Step()); err != nil {
		writeError(c, err)
		return
	}
	s.AdvanceStep()
	h.respond(c, http.StatusOK, id, s)
}

func (h *SessionHandler) PrevStep(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	s.RetreatStep()
	h.respond(c, http.StatusOK, id, s)
}

func (h *SessionHandler) GoToStep(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}

	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "step is required")
		return
	}

	s.GoToStep(req.Step)
	h.respond(c, http.StatusOK, id, s)
}

func (h *SessionHandler) GetPricing(c *gin.Context) {
	_, s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.ComputePricing())
}

func (h *SessionHandler) Submit(c *gin.Context) {
	_, s, ok := h.session(c)
	if !ok {
		return
	}

	code, err := s.FinalizeAndSubmit(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"referenceCode": code})
}
