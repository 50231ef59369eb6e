package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

// Bookings are stored confirmed; payment and cancellation flows live elsewhere.
const BookingConfirmed BookingStatus = "confirmed"

// Column limits applied to contact text before storage.
const (
	maxFullName        = 200
	maxEmail           = 255
	maxPhone           = 50
	maxCountry         = 100
	maxArrivalTime     = 50
	maxSpecialRequests = 1000
	maxOccasion        = 200
)

// Booking is a stored reservation.
type Booking struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	ReferenceCode string          `db:"reference_code" json:"referenceCode"`
	CheckIn       time.Time       `db:"check_in" json:"checkIn"`
	CheckOut      time.Time       `db:"check_out" json:"checkOut"`
	Adults        int             `db:"adults" json:"adults"`
	Children      int             `db:"children" json:"children"`
	Infants       int             `db:"infants" json:"infants"`
	BringOwnTent  bool            `db:"bring_own_tent" json:"bringOwnTent"`
	CampsiteFee   decimal.Decimal `db:"campsite_fee" json:"campsiteFee"`
	TentRentalFee decimal.Decimal `db:"tent_rental_fee" json:"tentRentalFee"`
	AddOnsFee     decimal.Decimal `db:"addons_fee" json:"addonsFee"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	Taxes         decimal.Decimal `db:"taxes" json:"taxes"`
	Total         decimal.Decimal `db:"total" json:"total"`
	Status        BookingStatus   `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`

	Tents  []BookingTent  `db:"-" json:"tents,omitempty"`
	AddOns []BookingAddOn `db:"-" json:"addOns,omitempty"`
	Guest  *GuestRecord   `db:"-" json:"guest,omitempty"`
}

type BookingTent struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	BookingID     uuid.UUID       `db:"booking_id" json:"bookingId"`
	TentType      string          `db:"tent_type" json:"tentType"`
	Quantity      int             `db:"quantity" json:"quantity"`
	PricePerNight decimal.Decimal `db:"price_per_night" json:"pricePerNight"`
}

type BookingAddOn struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	BookingID uuid.UUID       `db:"booking_id" json:"bookingId"`
	AddOnType string          `db:"addon_type" json:"addonType"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
}

type GuestRecord struct {
	ID              uuid.UUID `db:"id" json:"id"`
	BookingID       uuid.UUID `db:"booking_id" json:"bookingId"`
	FullName        string    `db:"full_name" json:"fullName"`
	Email           string    `db:"email" json:"email"`
	Phone           string    `db:"phone" json:"phone"`
	Country         string    `db:"country" json:"country"`
	ArrivalTime     *string   `db:"arrival_time" json:"arrivalTime,omitempty"`
	SpecialRequests *string   `db:"special_requests" json:"specialRequests,omitempty"`
	Occasion        *string   `db:"celebrating_occasion" json:"celebratingOccasion,omitempty"`
}

// NewBooking turns a validated draft and its quoted pricing into a
// confirmed booking with line items. The reference code is assigned by the
// caller.
func NewBooking(d BookingDraft, p PricingBreakdown, c *RateCatalog, now time.Time) *Booking {
	id := uuid.New()
	b := &Booking{
		ID:            id,
		CheckIn:       CalendarDate(*d.CheckIn),
		CheckOut:      CalendarDate(*d.CheckOut),
		Adults:        d.Guests.Adults,
		Children:      d.Guests.Children,
		Infants:       d.Guests.Infants,
		BringOwnTent:  d.Accommodation.BringOwnTent,
		CampsiteFee:   p.CampsiteFee,
		TentRentalFee: p.TentRental,
		AddOnsFee:     p.AddOns,
		Subtotal:      p.Subtotal,
		Taxes:         p.Taxes,
		Total:         p.Total,
		Status:        BookingConfirmed,
		CreatedAt:     now,
	}

	if !d.Accommodation.BringOwnTent {
		for _, sel := range d.Accommodation.Rentals {
			price := decimal.Zero
			if opt, ok := c.Accommodation(sel.AccommodationID); ok {
				price = opt.PricePerNight
			}
			b.Tents = append(b.Tents, BookingTent{
				ID:            uuid.New(),
				BookingID:     id,
				TentType:      strings.TrimPrefix(sel.AccommodationID, "tent-") + "-person",
				Quantity:      sel.Quantity,
				PricePerNight: price,
			})
		}
	}

	for _, addOnID := range d.AddOns {
		price := decimal.Zero
		if offering, ok := c.AddOn(addOnID); ok {
			price = offering.Price
		}
		b.AddOns = append(b.AddOns, BookingAddOn{
			ID:        uuid.New(),
			BookingID: id,
			AddOnType: addOnID,
			Quantity:  1,
			Price:     price,
		})
	}

	b.Guest = &GuestRecord{
		ID:              uuid.New(),
		BookingID:       id,
		FullName:        truncate(d.Contact.FullName, maxFullName),
		Email:           truncate(d.Contact.Email, maxEmail),
		Phone:           truncate(d.Contact.Phone, maxPhone),
		Country:         truncate(d.Contact.Country, maxCountry),
		ArrivalTime:     optional(d.Contact.ArrivalTime, maxArrivalTime),
		SpecialRequests: optional(d.Contact.SpecialRequests, maxSpecialRequests),
		Occasion:        optional(d.Contact.Occasion, maxOccasion),
	}

	return b
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit])
	}
	return s
}

func optional(s string, limit int) *string {
	s = truncate(s, limit)
	if s == "" {
		return nil
	}
	return &s
}
