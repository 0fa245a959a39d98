package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/copropiedad/ledger/pkg/domain/entities"
)

func TestCommissionCalculator_Amount(t *testing.T) {
	calc := NewCommissionCalculator()

	tests := []struct {
		name       string
		total      string
		percentage string
		expected   string
	}{
		{"three percent", "100000.00", "3", "3000.00"},
		{"one percent", "250000.00", "1", "2500.00"},
		{"fractional percentage", "100000.00", "2.5", "2500.00"},
		{"rounds half up", "0.50", "1", "0.01"},
		{"rounds down below half", "0.49", "1", "0.00"},
		{"zero price", "0", "5", "0.00"},
		{"largest price", "92233720368547758.07", "5", "4611686018427387.90"},
		{"saturates", "92233720368547758.07", "200", "92233720368547758.07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Amount(entities.MustParseMoney(tt.total), decimal.RequireFromString(tt.percentage))
			if got.String() != tt.expected {
				t.Errorf("Amount(%s, %s%%) = %s, want %s", tt.total, tt.percentage, got, tt.expected)
			}
		})
	}
}

func TestCommissionCalculator_SetPercentage(t *testing.T) {
	calc := NewCommissionCalculator()
	commission := entities.DefaultCommission()

	updated, err := calc.SetPercentage(commission, decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("Expected 5%% to be accepted: %v", err)
	}
	if !updated.Percentage.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected 5%%, got %s", updated.Percentage)
	}

	for _, bad := range []string{"0.99", "5.01", "-1", "10"} {
		if _, err := calc.SetPercentage(commission, decimal.RequireFromString(bad)); !errors.Is(err, entities.ErrInvalidCommission) {
			t.Errorf("Expected ErrInvalidCommission for %s%%, got %v", bad, err)
		}
	}
}

func TestCommissionCalculator_Toggle(t *testing.T) {
	calc := NewCommissionCalculator()

	paid, err := calc.Toggle(entities.DefaultCommission())
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if paid.Status != entities.CommissionPaid {
		t.Errorf("Expected paid, got %s", paid.Status)
	}

	pending, err := calc.Toggle(paid)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if pending.Status != entities.CommissionPending {
		t.Errorf("Expected pending, got %s", pending.Status)
	}

	if _, err := calc.Toggle(entities.Commission{Status: entities.CommissionStatus(9)}); !errors.Is(err, entities.ErrInvalidCommission) {
		t.Errorf("Expected ErrInvalidCommission for unknown status, got %v", err)
	}
}

func TestParsePercentage(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"2.5", "2.5", false},
		{"2,5", "2.5", false},
		{"3%", "3", false},
		{" 4 ", "4", false},
		{"abc", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePercentage(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePercentage(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePercentage(%q) failed: %v", tt.input, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(tt.expected)) {
			t.Errorf("ParsePercentage(%q) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}
