package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/srgjo27/campsite_booking/internal/core/domain"
	"github.com/srgjo27/campsite_booking/internal/core/ports"
)

const maxReferenceAttempts = 5

type CreateBookingResponse struct {
	ReferenceCode string `json:"referenceCode"`
	BookingID     string `json:"bookingId"`
	Total         string `json:"total"`
	Status        string `json:"status"`
}

type BookingServiceOption func(*BookingService)

func WithReferencePrefix(prefix string) BookingServiceOption {
	return func(s *BookingService) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func WithCacheTTL(ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.cacheTTL = ttl
	}
}

// BookingService stores finalized drafts. It is the submission collaborator
// used by BookingSession and by the public bookings endpoint.
type BookingService struct {
	bookingRepo ports.BookingRepository
	catalog     *domain.RateCatalog
	redisClient *redis.Client
	prefix      string
	cacheTTL    time.Duration
	now         func() time.Time
}

func NewBookingService(bookingRepo ports.BookingRepository, catalog *domain.RateCatalog, redisClient *redis.Client, opts ...BookingServiceOption) *BookingService {
	s := &BookingService{
		bookingRepo: bookingRepo,
		catalog:     catalog,
		redisClient: redisClient,
		prefix:      domain.DefaultReferencePrefix,
		cacheTTL:    10 * time.Minute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func bookingCacheKey(referenceCode string) string {
	return fmt.Sprintf("booking:%s", referenceCode)
}

// Submit implements ports.Submitter.
func (s *BookingService) Submit(ctx context.Context, sub ports.Submission) (string, error) {
	resp, err := s.CreateBooking(ctx, sub)
	if err != nil {
		return "", err
	}
	return resp.ReferenceCode, nil
}

// CreateBooking validates the draft and writes the booking, its rentals,
// add-ons and guest details in one transaction. Prices are recomputed from the
// catalog; a quoted total that disagrees is rejected. A zero quote means the
// client did not quote.
func (s *BookingService) CreateBooking(ctx context.Context, req ports.Submission) (*CreateBookingResponse, error) {
	if err := domain.ValidateForStorage(req.Draft); err != nil {
		return nil, err
	}

	pricing := domain.ComputePricing(req.Draft, s.catalog)
	if !req.Pricing.Total.IsZero() && !req.Pricing.Total.Equal(pricing.Total) {
		return nil, &domain.ValidationError{Fields: map[string]string{
			"pricing": fmt.Sprintf("quoted total %s does not match %s", req.Pricing.Total.StringFixed(2), pricing.Total.StringFixed(2)),
		}}
	}

	var booking *domain.Booking
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		code, err := domain.NewReferenceCode(s.prefix)
		if err != nil {
			return nil, err
		}

		booking = domain.NewBooking(req.Draft, pricing, s.catalog, s.now().UTC())
		booking.ReferenceCode = code

		err = s.bookingRepo.CreateBooking(ctx, booking)
		if err == nil {
			break
		}
		if errors.Is(err, ports.ErrDuplicateReference) {
			log.Printf("Reference code %s already taken (attempt %d/%d)", code, attempt, maxReferenceAttempts)
			booking = nil
			continue
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	if booking == nil {
		return nil, errors.New("failed to create booking: no free reference code")
	}

	s.cacheBooking(ctx, booking)

	return &CreateBookingResponse{
		ReferenceCode: booking.ReferenceCode,
		BookingID:     booking.ID.String(),
		Total:         booking.Total.StringFixed(2),
		Status:        string(booking.Status),
	}, nil
}

// GetBookingByReference reads through the Redis cache.
func (s *BookingService) GetBookingByReference(ctx context.Context, referenceCode string) (*domain.Booking, error) {
	code := strings.ToUpper(strings.TrimSpace(referenceCode))
	if !domain.IsReferenceCode(code) {
		return nil, domain.ErrBookingNotFound
	}

	if s.redisClient != nil {
		raw, err := s.redisClient.Get(ctx, bookingCacheKey(code)).Bytes()
		switch {
		case err == nil:
			var cached domain.Booking
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
			log.Printf("Ignoring corrupt cache entry for %s", code)
		case !errors.Is(err, redis.Nil):
			log.Printf("Error reading booking cache: %v", err)
		}
	}

	booking, err := s.bookingRepo.GetByReference(ctx, code)
	if err != nil {
		return nil, err
	}

	s.cacheBooking(ctx, booking)
	return booking, nil
}

func (s *BookingService) cacheBooking(ctx context.Context, booking *domain.Booking) {
	if s.redisClient == nil {
		return
	}
	raw, err := json.Marshal(booking)
	if err != nil {
		log.Printf("Failed to encode booking %s for cache: %v", booking.ReferenceCode, err)
		return
	}
	if err := s.redisClient.Set(ctx, bookingCacheKey(booking.ReferenceCode), raw, s.cacheTTL).Err(); err != nil {
		log.Printf("Failed to cache booking %s: %v", booking.ReferenceCode, err)
	}
}
