package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DraftStorageKey names the persisted wizard state.
const DraftStorageKey = "camping-booking-storage"

const dateLayout = "2006-01-02"

type draftJSON struct {
	CheckIn       *string             `json:"checkIn"`
	CheckOut      *string             `json:"checkOut"`
	Nights        int                 `json:"nights"`
	Guests        GuestCounts         `json:"guests"`
	Accommodation AccommodationChoice `json:"accommodation"`
	AddOns        []string            `json:"addOns"`
	GuestInfo     ContactInfo         `json:"guestInfo"`
	Status        DraftStatus         `json:"status"`
	ReferenceCode string              `json:"referenceCode,omitempty"`
}

type persistedState struct {
	State struct {
		Booking *BookingDraft `json:"booking"`
	} `json:"state"`
	Version int `json:"version"`
}

func (d BookingDraft) MarshalJSON() ([]byte, error) {
	out := draftJSON{
		Nights:        d.Nights,
		Guests:        d.Guests,
		Accommodation: d.Accommodation,
		AddOns:        d.AddOns,
		GuestInfo:     d.Contact,
		Status:        d.Status,
		ReferenceCode: d.ReferenceCode,
	}
	if out.AddOns == nil {
		out.AddOns = []string{}
	}
	if out.Accommodation.Rentals == nil {
		out.Accommodation.Rentals = []RentalSelection{}
	}
	if d.CheckIn != nil {
		s := d.CheckIn.Format(dateLayout)
		out.CheckIn = &s
	}
	if d.CheckOut != nil {
		s := d.CheckOut.Format(dateLayout)
		out.CheckOut = &s
	}
	return json.Marshal(out)
}

func (d *BookingDraft) UnmarshalJSON(data []byte) error {
	var in draftJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	checkIn, err := parseDate(in.CheckIn)
	if err != nil {
		return fmt.Errorf("check-in: %w", err)
	}
	checkOut, err := parseDate(in.CheckOut)
	if err != nil {
		return fmt.Errorf("check-out: %w", err)
	}

	*d = BookingDraft{
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Guests:        in.Guests,
		Accommodation: in.Accommodation,
		AddOns:        in.AddOns,
		Contact:       in.GuestInfo,
		Status:        in.Status,
		ReferenceCode: in.ReferenceCode,
	}
	if checkIn != nil && checkOut != nil {
		d.Nights = NightsBetween(*checkIn, *checkOut)
	}
	if d.AddOns == nil {
		d.AddOns = []string{}
	}
	if len(d.Accommodation.Rentals) == 0 {
		d.Accommodation.Rentals = nil
	}
	switch d.Status {
	case DraftOpen, DraftSubmitted, DraftFailed:
	default:
		d.Status = DraftOpen
	}
	return nil
}

// parseDate accepts plain calendar dates and full timestamps, which older
// clients wrote.
func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, *s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", *s)
	}
	t = CalendarDate(t)
	return &t, nil
}

// EncodeState wraps the draft in the storage envelope. The wizard cursor is
// not part of it.
func EncodeState(d BookingDraft) ([]byte, error) {
	var env persistedState
	env.State.Booking = &d
	return json.Marshal(env)
}

func DecodeState(blob []byte) (BookingDraft, error) {
	var env persistedState
	if err := json.Unmarshal(blob, &env); err != nil {
		return BookingDraft{}, fmt.Errorf("decode stored state: %w", err)
	}
	if env.State.Booking == nil {
		return NewDraft(), nil
	}
	return *env.State.Booking, nil
}
