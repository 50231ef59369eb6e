package domain

import (
	"github.com/shopspring/decimal"
)

// PricingBreakdown is derived from a draft and a catalog and is never stored
// on the draft itself.
type PricingBreakdown struct {
	CampsiteFee decimal.Decimal `json:"campsiteFee"`
	TentRental  decimal.Decimal `json:"tentRental"`
	AddOns      decimal.Decimal `json:"addOns"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Taxes       decimal.Decimal `json:"taxes"`
	Total       decimal.Decimal `json:"total"`
	Nights      int             `json:"nights"`
}

// ComputePricing prices a draft. Incomplete drafts price to zero components.
// Selections whose ids are missing from the catalog contribute nothing.
func ComputePricing(d BookingDraft, c *RateCatalog) PricingBreakdown {
	nights := decimal.NewFromInt(int64(max(0, d.Nights)))
	guests := decimal.NewFromInt(int64(max(0, d.Guests.Billable())))
	rates := c.Constants()

	campsite := guests.Mul(rates.CampsitePerPersonPerNight).Mul(nights)

	rental := decimal.Zero
	if !d.Accommodation.BringOwnTent {
		for _, sel := range d.Accommodation.Rentals {
			opt, ok := c.Accommodation(sel.AccommodationID)
			if !ok || sel.Quantity <= 0 {
				continue
			}
			rental = rental.Add(opt.PricePerNight.Mul(decimal.NewFromInt(int64(sel.Quantity))).Mul(nights))
		}
	}

	addOns := decimal.Zero
	for _, id := range d.AddOns {
		offering, ok := c.AddOn(id)
		if !ok {
			continue
		}
		addOns = addOns.Add(addOnAmount(offering, guests, nights))
	}

	subtotal := campsite.Add(rental).Add(addOns)
	taxes := subtotal.Mul(rates.TaxRate).Round(2)

	return PricingBreakdown{
		CampsiteFee: campsite,
		TentRental:  rental,
		AddOns:      addOns,
		Subtotal:    subtotal,
		Taxes:       taxes,
		Total:       subtotal.Add(taxes),
		Nights:      max(0, d.Nights),
	}
}

func addOnAmount(o AddOnOffering, guests, nights decimal.Decimal) decimal.Decimal {
	switch o.Basis {
	case PerPerson:
		return o.Price.Mul(guests)
	case PerNight, PerDay:
		return o.Price.Mul(nights)
	case Flat:
		return o.Price
	}
	return decimal.Zero
}

// SleepingCapacity sums the capacity of every rented unit.
func SleepingCapacity(a AccommodationChoice, c *RateCatalog) int {
	if a.BringOwnTent {
		return 0
	}
	total := 0
	for _, sel := range a.Rentals {
		if opt, ok := c.Accommodation(sel.AccommodationID); ok {
			total += opt.Capacity * sel.Quantity
		}
	}
	return total
}
