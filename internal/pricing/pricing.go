// Package pricing maps finished sheet lengths to prices through a tiered
// table. Prices are currency-agnostic; the caller decides what a unit
// means.
package pricing

import (
	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

// Tier is one price bracket: sheets up to LengthInches long bill at
// Price.
type Tier struct {
	LengthInches int     `json:"lengthInches" toml:"length_inches"`
	Price        float64 `json:"price" toml:"price"`
}

// Table is an ordered tier list with strictly increasing lengths.
type Table []Tier

// DefaultTable is the stock price list: one tier per foot of sheet up to
// the 200 inch cap.
func DefaultTable() Table {
	return Table{
		{LengthInches: 12, Price: 7.50},
		{LengthInches: 24, Price: 14.00},
		{LengthInches: 36, Price: 20.00},
		{LengthInches: 48, Price: 26.00},
		{LengthInches: 60, Price: 31.50},
		{LengthInches: 72, Price: 37.00},
		{LengthInches: 84, Price: 42.00},
		{LengthInches: 96, Price: 47.00},
		{LengthInches: 108, Price: 52.00},
		{LengthInches: 120, Price: 56.50},
		{LengthInches: 132, Price: 61.00},
		{LengthInches: 144, Price: 65.00},
		{LengthInches: 156, Price: 69.00},
		{LengthInches: 168, Price: 73.00},
		{LengthInches: 180, Price: 76.50},
		{LengthInches: 192, Price: 80.00},
		{LengthInches: 200, Price: 83.00},
	}
}

// Validate checks the table invariants: at least one tier, positive
// lengths and prices, strictly increasing lengths.
func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.New(errors.ErrCodeInvalidTierTable, "tier table is empty")
	}
	prev := 0
	for i, tier := range t {
		if tier.LengthInches <= prev {
			return errors.New(errors.ErrCodeInvalidTierTable,
				"tier %d length %d\" must exceed the previous %d\"", i, tier.LengthInches, prev)
		}
		if tier.Price < 0 {
			return errors.New(errors.ErrCodeInvalidTierTable,
				"tier %d price %.2f must not be negative", i, tier.Price)
		}
		prev = tier.LengthInches
	}
	return nil
}

// PriceFor returns the price of the first tier long enough to cover the
// given sheet length. Lengths past the last tier bill at the last tier's
// price: billing saturates rather than failing.
//
// A 37 inch sheet against a table stepping by 12 lands on the 48 inch
// tier, not the 36.
func (t Table) PriceFor(lengthInches int) float64 {
	for _, tier := range t {
		if lengthInches <= tier.LengthInches {
			return tier.Price
		}
	}
	return t[len(t)-1].Price
}

// MaxLengthInches returns the longest tiered length.
func (t Table) MaxLengthInches() int {
	return t[len(t)-1].LengthInches
}
