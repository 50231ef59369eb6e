package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type PriceBasis string

const (
	PerPerson PriceBasis = "per-person"
	PerNight  PriceBasis = "per-night"
	PerDay    PriceBasis = "per-day"
	Flat      PriceBasis = "flat"
)

func (b PriceBasis) Valid() bool {
	switch b {
	case PerPerson, PerNight, PerDay, Flat:
		return true
	}
	return false
}

// AccommodationOption is a rentable sleeping unit, priced per night.
type AccommodationOption struct {
	ID            string          `json:"id"`
	DisplayKey    string          `json:"displayKey"`
	Capacity      int             `json:"capacity"`
	PricePerNight decimal.Decimal `json:"pricePerNight"`
}

type AddOnOffering struct {
	ID         string          `json:"id"`
	DisplayKey string          `json:"displayKey"`
	Price      decimal.Decimal `json:"price"`
	Basis      PriceBasis      `json:"priceType"`
}

type PricingConstants struct {
	CampsitePerPersonPerNight decimal.Decimal `json:"campsitePerPersonPerNight"`
	TaxRate                   decimal.Decimal `json:"taxRate"`
}

// RateCatalog is immutable after construction. Lookups never expose the
// backing maps.
type RateCatalog struct {
	constants      PricingConstants
	accommodations []AccommodationOption
	addOns         []AddOnOffering
	accByID        map[string]AccommodationOption
	addOnByID      map[string]AddOnOffering
}

func NewRateCatalog(constants PricingConstants, accommodations []AccommodationOption, addOns []AddOnOffering) (*RateCatalog, error) {
	if constants.CampsitePerPersonPerNight.IsNegative() {
		return nil, fmt.Errorf("campsite rate must not be negative")
	}
	if constants.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}

	c := &RateCatalog{
		constants: constants,
		accByID:   make(map[string]AccommodationOption, len(accommodations)),
		addOnByID: make(map[string]AddOnOffering, len(addOns)),
	}

	for _, opt := range accommodations {
		if opt.ID == "" {
			return nil, fmt.Errorf("accommodation id is required")
		}
		if _, dup := c.accByID[opt.ID]; dup {
			return nil, fmt.Errorf("duplicate accommodation id %q", opt.ID)
		}
		if opt.Capacity <= 0 {
			return nil, fmt.Errorf("accommodation %q: capacity must be greater than zero", opt.ID)
		}
		if opt.PricePerNight.IsNegative() {
			return nil, fmt.Errorf("accommodation %q: price must not be negative", opt.ID)
		}
		c.accByID[opt.ID] = opt
		c.accommodations = append(c.accommodations, opt)
	}

	for _, offering := range addOns {
		if offering.ID == "" {
			return nil, fmt.Errorf("add-on id is required")
		}
		if _, dup := c.addOnByID[offering.ID]; dup {
			return nil, fmt.Errorf("duplicate add-on id %q", offering.ID)
		}
		if offering.Price.IsNegative() {
			return nil, fmt.Errorf("add-on %q: price must not be negative", offering.ID)
		}
		if !offering.Basis.Valid() {
			return nil, fmt.Errorf("add-on %q: unknown price basis %q", offering.ID, offering.Basis)
		}
		c.addOnByID[offering.ID] = offering
		c.addOns = append(c.addOns, offering)
	}

	return c, nil
}

func (c *RateCatalog) Constants() PricingConstants {
	return c.constants
}

func (c *RateCatalog) Accommodation(id string) (AccommodationOption, bool) {
	opt, ok := c.accByID[id]
	return opt, ok
}

func (c *RateCatalog) AddOn(id string) (AddOnOffering, bool) {
	offering, ok := c.addOnByID[id]
	return offering, ok
}

func (c *RateCatalog) Accommodations() []AccommodationOption {
	return append([]AccommodationOption(nil), c.accommodations...)
}

func (c *RateCatalog) AddOns() []AddOnOffering {
	return append([]AddOnOffering(nil), c.addOns...)
}

// DefaultCatalog returns the campsite's published rates.
func DefaultCatalog() *RateCatalog {
	c, err := NewRateCatalog(
		PricingConstants{
			CampsitePerPersonPerNight: decimal.NewFromInt(25),
			TaxRate:                   decimal.RequireFromString("0.13"),
		},
		[]AccommodationOption{
			{ID: "tent-2", DisplayKey: "tents.cozyDuo.name", Capacity: 2, PricePerNight: decimal.NewFromInt(15)},
			{ID: "tent-4", DisplayKey: "tents.familyExplorer.name", Capacity: 4, PricePerNight: decimal.NewFromInt(25)},
			{ID: "tent-6", DisplayKey: "tents.baseCamp.name", Capacity: 6, PricePerNight: decimal.NewFromInt(35)},
		},
		[]AddOnOffering{
			{ID: "breakfast", DisplayKey: "addons.breakfast.name", Price: decimal.NewFromInt(12), Basis: PerPerson},
			{ID: "kayak", DisplayKey: "addons.kayak.name", Price: decimal.NewFromInt(35), Basis: PerPerson},
			{ID: "wildlife", DisplayKey: "addons.wildlife.name", Price: decimal.NewFromInt(25), Basis: PerPerson},
			{ID: "bonfire", DisplayKey: "addons.bonfire.name", Price: decimal.NewFromInt(20), Basis: PerNight},
			{ID: "snorkel", DisplayKey: "addons.snorkel.name", Price: decimal.NewFromInt(15), Basis: PerDay},
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}
