package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/srgjo27/campsite_booking/internal/core/domain"
	"github.com/srgjo27/campsite_booking/internal/core/ports"
)

const defaultSaveTimeout = 3 * time.Second

type SessionOption func(*BookingSession)

// WithDraftStore restores the draft from store on construction and writes it
// back after every change.
func WithDraftStore(store ports.DraftStore, key string) SessionOption {
	return func(s *BookingSession) {
		s.store = store
		s.storeKey = key
	}
}

// BookingSession drives the booking wizard for one visitor: it owns the
// draft, the step cursor and the hand-off to the submission collaborator.
//
// Step completeness is not enforced by AdvanceStep; screens call CheckStep
// first.
type BookingSession struct {
	catalog   *domain.RateCatalog
	submitter ports.Submitter

	store    ports.DraftStore
	storeKey string
	writer   *draftWriter

	mu       sync.Mutex
	draft    domain.BookingDraft
	revision uint64
	cursor   domain.WizardCursor
	inFlight bool
}

func NewBookingSession(ctx context.Context, catalog *domain.RateCatalog, submitter ports.Submitter, opts ...SessionOption) *BookingSession {
	s := &BookingSession{
		catalog:   catalog,
		submitter: submitter,
		storeKey:  domain.DraftStorageKey,
		draft:     domain.NewDraft(),
		cursor:    domain.NewCursor(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store != nil {
		s.writer = newDraftWriter(s.store, s.storeKey, defaultSaveTimeout)
		s.restore(ctx)
	}
	return s
}

func (s *BookingSession) restore(ctx context.Context) {
	blob, err := s.store.Load(ctx, s.storeKey)
	if err != nil {
		if !errors.Is(err, ports.ErrDraftNotFound) {
			log.Printf("Failed to load draft %s: %v", s.storeKey, err)
		}
		return
	}

	draft, err := domain.DecodeState(blob)
	if err != nil {
		log.Printf("Discarding unreadable draft %s: %v", s.storeKey, err)
		return
	}
	s.draft = draft
}

// persist must be called with s.mu held.
func (s *BookingSession) persist() {
	if s.writer == nil {
		return
	}
	blob, err := domain.EncodeState(s.draft)
	if err != nil {
		log.Printf("Failed to encode draft %s: %v", s.storeKey, err)
		return
	}
	s.writer.enqueue(blob)
}

// Flush waits for pending draft writes to reach the store.
func (s *BookingSession) Flush(ctx context.Context) error {
	if s.writer == nil {
		return nil
	}
	return s.writer.flush(ctx)
}

// mutate applies fn to the draft. Any change to a submitted draft reopens it,
// so the edited booking has to be submitted again.
func (s *BookingSession) mutate(fn func(d *domain.BookingDraft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(&s.draft); err != nil {
		return err
	}
	if s.draft.Status == domain.DraftSubmitted {
		s.draft.Status = domain.DraftOpen
		s.draft.ReferenceCode = ""
	}
	s.revision++
	s.persist()
	return nil
}

// SetDateRange sets both dates; a nil checkOut clears it. Nights drop to zero
// whenever the range is incomplete or not moving forward.
func (s *BookingSession) SetDateRange(checkIn, checkOut *time.Time) {
	_ = s.mutate(func(d *domain.BookingDraft) error {
		d.CheckIn, d.CheckOut, d.Nights = nil, nil, 0
		if checkIn != nil {
			v := domain.CalendarDate(*checkIn)
			d.CheckIn = &v
		}
		if checkOut != nil {
			v := domain.CalendarDate(*checkOut)
			d.CheckOut = &v
		}
		if d.CheckIn != nil && d.CheckOut != nil {
			d.Nights = domain.NightsBetween(*d.CheckIn, *d.CheckOut)
		}
		return nil
	})
}

// SetGuestCounts replaces the counts as given. Range checks are left to the
// caller and to ValidateGuests.
func (s *BookingSession) SetGuestCounts(g domain.GuestCounts) {
	_ = s.mutate(func(d *domain.BookingDraft) error {
		d.Guests = g
		return nil
	})
}

func (s *BookingSession) PatchGuestCounts(p domain.GuestCountsPatch) {
	_ = s.mutate(func(d *domain.BookingDraft) error {
		d.Guests = d.Guests.Apply(p)
		return nil
	})
}

// SetBringOwnTent(true) drops every rental. Passing false only clears the flag
// so the visitor can start picking units.
func (s *BookingSession) SetBringOwnTent(own bool) {
	_ = s.mutate(func(d *domain.BookingDraft) error {
		d.Accommodation.BringOwnTent = own
		if own {
			d.Accommodation.Rentals = nil
		}
		return nil
	})
}

func (s *BookingSession) AddRentedUnit(accommodationID string) error {
	if _, ok := s.catalog.Accommodation(accommodationID); !ok {
		return &domain.UnknownOfferingError{Kind: domain.KindAccommodation, ID: accommodationID}
	}
	return s.mutate(func(d *domain.BookingDraft) error {
		rentals := d.Accommodation.Rentals
		found := false
		for i := range rentals {
			if rentals[i].AccommodationID == accommodationID {
				rentals[i].Quantity++
				found = true
				break
			}
		}
		if !found {
			rentals = append(rentals, domain.RentalSelection{AccommodationID: accommodationID, Quantity: 1})
		}
		d.Accommodation = domain.AccommodationChoice{BringOwnTent: false, Rentals: rentals}
		return nil
	})
}

// RemoveRentedUnit decrements one unit. Removing the last rental switches the
// draft back to bring-own-tent. Unknown or absent ids are ignored.
func (s *BookingSession) RemoveRentedUnit(accommodationID string) {
	_ = s.mutate(func(d *domain.BookingDraft) error {
		rentals := d.Accommodation.Rentals
		idx := -1
		for i := range rentals {
			if rentals[i].AccommodationID == accommodationID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}

		if rentals[idx].Quantity > 1 {
			rentals[idx].Quantity--
		} else {
			rentals = append(rentals[:idx], rentals[idx+1:]...)
		}
		if len(rentals) == 0 {
			rentals = nil
		}
		d.Accommodation = domain.AccommodationChoice{BringOwnTent: len(rentals) == 0, Rentals: rentals}
		return nil
	})
}

// ToggleAddOn flips membership. Only catalog offerings can be switched on;
// a stale id already on the draft can still be switched off.
func (s *BookingSession) ToggleAddOn(offeringID string) error {
	return s.mutate(func(d *domain.BookingDraft) error {
		for i, id := range d.AddOns {
			if id == offeringID {
				d.AddOns = append(d.AddOns[:i:i], d.AddOns[i+1:]...)
				return nil
			}
		}
		if _, ok := s.catalog.AddOn(offeringID); !ok {
			return &domain.UnknownOfferingError{Kind: domain.KindAddOn, ID: offeringID}
		}
		d.AddOns = append(d.AddOns, offeringID)
		return nil
	})
}

func (s *BookingSession) SetContactInfo(p domain.ContactPatch) {
	_ = s.mutate(func(d *domain.BookingDraft) error {
		d.Contact = d.Contact.Apply(p)
		return nil
	})
}

func (s *BookingSession) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Step()
}

func (s *BookingSession) AdvanceStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = s.cursor.Advance()
	return s.cursor.Step()
}

func (s *BookingSession) RetreatStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = s.cursor.Retreat()
	return s.cursor.Step()
}

// GoToStep only moves backwards to a visited step.
func (s *BookingSession) GoToStep(step int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = s.cursor.JumpBack(step)
	return s.cursor.Step()
}

// CheckStep runs the completeness predicate for a wizard screen.
func (s *BookingSession) CheckStep(step int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ValidateStep(step, s.draft)
}

func (s *BookingSession) FirstIncompleteStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.FirstIncompleteStep(s.draft)
}

func (s *BookingSession) ComputePricing() domain.PricingBreakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ComputePricing(s.draft, s.catalog)
}

func (s *BookingSession) SleepingCapacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SleepingCapacity(s.draft.Accommodation, s.catalog)
}

// Draft returns a copy of the current draft.
func (s *BookingSession) Draft() domain.BookingDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

func (s *BookingSession) ResetDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = domain.NewDraft()
	s.revision++
	s.cursor = domain.NewCursor()
	s.persist()
}

// Pristine reports whether the draft still holds nothing the visitor entered.
func (s *BookingSession) Pristine() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.IsPristine()
}

// FinalizeAndSubmit hands the draft and its pricing to the submitter. A draft
// that was already submitted returns its existing reference code. Only one
// submission may be in flight; a second call gets ErrSubmissionInFlight.
//
// On failure the draft is kept, marked failed, and can be submitted again.
// Editing a submitted draft reopens it; the next call submits the new state.
func (s *BookingSession) FinalizeAndSubmit(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return "", domain.ErrSubmissionInFlight
	}
	if s.draft.Status == domain.DraftSubmitted && s.draft.ReferenceCode != "" {
		code := s.draft.ReferenceCode
		s.mu.Unlock()
		return code, nil
	}
	if err := domain.ValidateStep(domain.StepPayment, s.draft); err != nil {
		s.mu.Unlock()
		return "", err
	}

	sub := ports.Submission{
		Draft:   s.draft.Clone(),
		Pricing: domain.ComputePricing(s.draft, s.catalog),
	}
	rev := s.revision
	s.inFlight = true
	s.mu.Unlock()

	code, err := s.submitter.Submit(ctx, sub)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		if s.revision == rev {
			s.draft.Status = domain.DraftFailed
			s.persist()
		}
		log.Printf("Booking submission failed: %v", err)
		return "", &domain.SubmissionError{Err: err}
	}

	if s.revision != rev {
		log.Printf("Draft changed while booking %s was being stored; keeping it open", code)
		return code, nil
	}
	s.draft.Status = domain.DraftSubmitted
	s.draft.ReferenceCode = code
	s.persist()
	return code, nil
}
