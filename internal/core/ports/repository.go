package ports

import (
	"context"
	"errors"
	"time"

	"github.com/srgjo27/campsite_booking/internal/core/domain"
)

var (
	ErrDraftNotFound      = errors.New("draft not found")
	ErrDuplicateReference = errors.New("reference code already in use")
)

type BookingRepository interface {
	// CreateBooking stores the booking row and all of its line items as one
	// unit. It returns ErrDuplicateReference when the code is taken.
	CreateBooking(ctx context.Context, booking *domain.Booking) error
	GetByReference(ctx context.Context, referenceCode string) (*domain.Booking, error)
}

// DraftStore keeps serialized wizard state between page loads.
type DraftStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}

// DraftPurger is implemented by draft stores that do not expire entries on
// their own.
type DraftPurger interface {
	PurgeStale(ctx context.Context, updatedBefore time.Time) (int, error)
}
