package handler

import (
	"github.com/gin-gonic/gin"
)

func NewRouter(sessions *SessionHandler, bookings *BookingHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/catalog", sessions.GetCatalog)

	s := r.Group("/sessions")
	s.POST("", sessions.Open)
	s.GET("/:id", sessions.Get)
	s.DELETE("/:id", sessions.Reset)
	s.PUT("/:id/dates", sessions.SetDates)
	s.PUT("/:id/guests", sessions.SetGuests)
	s.PATCH("/:id/guests", sessions.PatchGuests)
	s.POST("/:id/accommodation/own", sessions.BringOwnTent)
	s.POST("/:id/rentals/:unitId", sessions.AddRental)
	s.DELETE("/:id/rentals/:unitId", sessions.RemoveRental)
	s.POST("/:id/addons/:offeringId", sessions.ToggleAddOn)
	s.PATCH("/:id/contact", sessions.SetContact)
	s.POST("/:id/step/next", sessions.NextStep)
	s.POST("/:id/step/back", sessions.PrevStep)
	s.PUT("/:id/step", sessions.GoToStep)
	s.GET("/:id/pricing", sessions.GetPricing)
	s.POST("/:id/submit", sessions.Submit)

	r.POST("/bookings", bookings.CreateBooking)
	r.GET("/bookings/:reference", bookings.GetBooking)

	return r
}
