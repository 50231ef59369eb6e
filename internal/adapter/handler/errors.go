package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/srgjo27/campsite_booking/internal/core/domain"
)

func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var unknown *domain.UnknownOfferingError
	var subErr *domain.SubmissionError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error(), "step": verr.Step, "fields": verr.Fields})
	case errors.As(err, &unknown):
		c.JSON(http.StatusBadRequest, gin.H{"error": unknown.Error()})
	case errors.Is(err, domain.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &subErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "there was an error processing your booking, please try again"})
	default:
		log.Printf("Unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
