package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PropertyID is the opaque identifier of a property
type PropertyID string

// CommissionStatus tracks whether the agent's commission has been paid
type CommissionStatus int

const (
	CommissionPending CommissionStatus = iota
	CommissionPaid
)

// String method for CommissionStatus enum
func (c CommissionStatus) String() string {
	switch c {
	case CommissionPending:
		return "pending"
	case CommissionPaid:
		return "paid"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (c CommissionStatus) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *CommissionStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseCommissionStatus(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCommissionStatus parses "pending"/"paid" (or the legacy "pendiente"/"pagada")
func ParseCommissionStatus(s string) (CommissionStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "pendiente":
		return CommissionPending, nil
	case "paid", "pagada":
		return CommissionPaid, nil
	default:
		return CommissionPending, fmt.Errorf("%w: status %q (expected: pending or paid)", ErrInvalidCommission, s)
	}
}

// Commission bounds, in percent
var (
	MinCommissionPercentage = decimal.NewFromInt(1)
	MaxCommissionPercentage = decimal.NewFromInt(5)
)

// Commission holds the agent commission terms of a property
type Commission struct {
	Percentage decimal.Decimal  `json:"percentage"`
	Status     CommissionStatus `json:"status"`
}

// DefaultCommission returns the terms new properties start with: 1%, pending
func DefaultCommission() Commission {
	return Commission{Percentage: MinCommissionPercentage, Status: CommissionPending}
}

// NewCommission creates a validated Commission
func NewCommission(percentage decimal.Decimal, status CommissionStatus) (Commission, error) {
	if percentage.LessThan(MinCommissionPercentage) || percentage.GreaterThan(MaxCommissionPercentage) {
		return Commission{}, fmt.Errorf("%w: percentage %s outside [%s, %s]",
			ErrInvalidCommission, percentage.String(), MinCommissionPercentage.String(), MaxCommissionPercentage.String())
	}
	if status != CommissionPending && status != CommissionPaid {
		return Commission{}, fmt.Errorf("%w: unknown status %d", ErrInvalidCommission, int(status))
	}
	return Commission{Percentage: percentage.Round(2), Status: status}, nil
}

// Address groups the postal fields of a property
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// Details holds descriptive metadata with no bearing on the share rules
type Details struct {
	Description string   `json:"description,omitempty"`
	Bedrooms    int      `json:"bedrooms,omitempty"`
	Bathrooms   int      `json:"bathrooms,omitempty"`
	Toilets     int      `json:"toilets,omitempty"`
	SquareFeet  int      `json:"square_feet,omitempty"`
	YearBuilt   int      `json:"year_built,omitempty"`
	Features    []string `json:"features,omitempty"`
	Amenities   []string `json:"amenities,omitempty"`
	Featured    bool     `json:"featured,omitempty"`
}

// Property is a real-estate listing split into four shares
type Property struct {
	ID         PropertyID `json:"id"`
	Name       string     `json:"name"`
	Category   string     `json:"category,omitempty"`
	Address    Address    `json:"address"`
	Details    Details    `json:"details"`
	TotalPrice Money      `json:"total_price"`
	AgentID    AgentID    `json:"agent_id,omitempty"`
	Commission Commission `json:"commission"`
	Shares     Shares     `json:"shares"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewProperty creates a validated Property. Shares are left zero; callers
// initialize them through the share ledger.
func NewProperty(id PropertyID, name string, totalPrice Money, commission Commission) (*Property, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("property id cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("property name cannot be empty")
	}
	if totalPrice.IsNegative() {
		return nil, fmt.Errorf("%w: total price %s", ErrNegativePrice, totalPrice)
	}
	normalized, err := NewCommission(commission.Percentage, commission.Status)
	if err != nil {
		return nil, err
	}

	return &Property{
		ID:         id,
		Name:       name,
		TotalPrice: totalPrice,
		Commission: normalized,
	}, nil
}

// HasAgent reports whether an agent is assigned to the property
func (p *Property) HasAgent() bool {
	return p.AgentID != ""
}
