package pricing

import (
	"testing"

	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

func TestPriceFor(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name   string
		length int
		want   float64
	}{
		{name: "shortest sheet", length: 1, want: 7.50},
		{name: "exact first tier", length: 12, want: 7.50},
		{name: "just past a tier", length: 13, want: 14.00},
		{name: "37 rounds to the 48 tier", length: 37, want: 26.00},
		{name: "exact mid tier", length: 120, want: 56.50},
		{name: "longest tier", length: 200, want: 83.00},
		{name: "past the last tier saturates", length: 250, want: 83.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.PriceFor(tt.length); got != tt.want {
				t.Errorf("PriceFor(%d) = %.2f, want %.2f", tt.length, got, tt.want)
			}
		})
	}
}

func TestPriceForMonotonic(t *testing.T) {
	table := DefaultTable()
	prev := 0.0
	for length := 1; length <= 220; length++ {
		price := table.PriceFor(length)
		if price < prev {
			t.Fatalf("PriceFor(%d) = %.2f dropped below %.2f", length, price, prev)
		}
		prev = price
	}
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   Table
		wantErr bool
	}{
		{name: "default table", table: DefaultTable(), wantErr: false},
		{name: "single tier", table: Table{{LengthInches: 12, Price: 5}}, wantErr: false},
		{name: "empty", table: Table{}, wantErr: true},
		{name: "zero length", table: Table{{LengthInches: 0, Price: 5}}, wantErr: true},
		{name: "duplicate length", table: Table{{LengthInches: 12, Price: 5}, {LengthInches: 12, Price: 6}}, wantErr: true},
		{name: "decreasing length", table: Table{{LengthInches: 24, Price: 5}, {LengthInches: 12, Price: 6}}, wantErr: true},
		{name: "negative price", table: Table{{LengthInches: 12, Price: -1}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidTierTable) {
				t.Errorf("Validate() error code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidTierTable)
			}
		})
	}
}

func TestMaxLengthInches(t *testing.T) {
	if got := DefaultTable().MaxLengthInches(); got != 200 {
		t.Errorf("MaxLengthInches() = %d, want 200", got)
	}
}
