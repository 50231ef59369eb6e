package domain

import (
	"slices"
	"time"
)

type DraftStatus string

const (
	DraftOpen      DraftStatus = "draft"
	DraftSubmitted DraftStatus = "submitted"
	DraftFailed    DraftStatus = "failed"
)

// GuestCounts holds party size. Infants are free and never billed.
type GuestCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

// Billable is the head count used for the campsite fee and per-person add-ons.
func (g GuestCounts) Billable() int {
	return g.Adults + g.Children
}

type RentalSelection struct {
	AccommodationID string `json:"tentId"`
	Quantity        int    `json:"quantity"`
}

// AccommodationChoice is either BringOwnTent or a non-empty Rentals list,
// never both.
type AccommodationChoice struct {
	BringOwnTent bool              `json:"bringOwnTent"`
	Rentals      []RentalSelection `json:"rentedTents"`
}

func (a AccommodationChoice) Quantity(accommodationID string) int {
	for _, r := range a.Rentals {
		if r.AccommodationID == accommodationID {
			return r.Quantity
		}
	}
	return 0
}

type ContactInfo struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Country         string `json:"country"`
	ArrivalTime     string `json:"arrivalTime"`
	SpecialRequests string `json:"specialRequests"`
	Occasion        string `json:"celebratingOccasion"`
}

// ContactPatch carries the fields a screen changed. Nil fields are left alone.
type ContactPatch struct {
	FullName        *string `json:"fullName,omitempty"`
	Email           *string `json:"email,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Country         *string `json:"country,omitempty"`
	ArrivalTime     *string `json:"arrivalTime,omitempty"`
	SpecialRequests *string `json:"specialRequests,omitempty"`
	Occasion        *string `json:"celebratingOccasion,omitempty"`
}

func (c ContactInfo) Apply(p ContactPatch) ContactInfo {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.FullName, p.FullName)
	set(&c.Email, p.Email)
	set(&c.Phone, p.Phone)
	set(&c.Country, p.Country)
	set(&c.ArrivalTime, p.ArrivalTime)
	set(&c.SpecialRequests, p.SpecialRequests)
	set(&c.Occasion, p.Occasion)
	return c
}

// GuestCountsPatch carries changed counters only.
type GuestCountsPatch struct {
	Adults   *int `json:"adults,omitempty"`
	Children *int `json:"children,omitempty"`
	Infants  *int `json:"infants,omitempty"`
}

func (g GuestCounts) Apply(p GuestCountsPatch) GuestCounts {
	if p.Adults != nil {
		g.Adults = *p.Adults
	}
	if p.Children != nil {
		g.Children = *p.Children
	}
	if p.Infants != nil {
		g.Infants = *p.Infants
	}
	return g
}

// BookingDraft is the reservation being assembled by the wizard.
// CheckIn and CheckOut are calendar dates at UTC midnight; nil means unset.
type BookingDraft struct {
	CheckIn       *time.Time
	CheckOut      *time.Time
	Nights        int
	Guests        GuestCounts
	Accommodation AccommodationChoice
	AddOns        []string
	Contact       ContactInfo
	Status        DraftStatus
	ReferenceCode string
}

func NewDraft() BookingDraft {
	return BookingDraft{
		Guests:        GuestCounts{Adults: 2},
		Accommodation: AccommodationChoice{BringOwnTent: true},
		AddOns:        []string{},
		Status:        DraftOpen,
	}
}

// IsPristine reports whether d is indistinguishable from NewDraft.
func (d BookingDraft) IsPristine() bool {
	return d.CheckIn == nil && d.CheckOut == nil &&
		d.Guests == NewDraft().Guests &&
		d.Accommodation.BringOwnTent && len(d.Accommodation.Rentals) == 0 &&
		len(d.AddOns) == 0 &&
		d.Contact == (ContactInfo{}) &&
		d.Status == DraftOpen && d.ReferenceCode == ""
}

func (d BookingDraft) HasAddOn(id string) bool {
	return slices.Contains(d.AddOns, id)
}

// Clone returns a copy that shares no memory with d.
func (d BookingDraft) Clone() BookingDraft {
	out := d
	if d.CheckIn != nil {
		v := *d.CheckIn
		out.CheckIn = &v
	}
	if d.CheckOut != nil {
		v := *d.CheckOut
		out.CheckOut = &v
	}
	out.Accommodation.Rentals = slices.Clone(d.Accommodation.Rentals)
	out.AddOns = slices.Clone(d.AddOns)
	if out.AddOns == nil {
		out.AddOns = []string{}
	}
	return out
}

// CalendarDate drops the clock part of t, keeping t's own year, month and day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NightsBetween counts whole days from checkIn to checkOut, never below zero.
func NightsBetween(checkIn, checkOut time.Time) int {
	return max(0, int(dayNumber(checkOut)-dayNumber(checkIn)))
}

// dayNumber is the count of days since the Unix epoch. CalendarDate is always
// a whole day, so the division is exact for dates on either side of 1970.
func dayNumber(t time.Time) int64 {
	return CalendarDate(t).Unix() / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60
