package ports

import (
	"context"

	"github.com/srgjo27/campsite_booking/internal/core/domain"
)

type Submission struct {
	Draft   domain.BookingDraft     `json:"booking"`
	Pricing domain.PricingBreakdown `json:"pricing"`
}

// Submitter durably records a finalized draft and returns its reference code.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (string, error)
}
