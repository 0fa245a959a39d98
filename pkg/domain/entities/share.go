package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// SharesPerProperty is the fixed number of shares every property is split into
const SharesPerProperty = 4

// ShareNumber identifies one of the four shares of a property (1..4)
type ShareNumber int

// Validate checks the share number is within 1..SharesPerProperty
func (n ShareNumber) Validate() error {
	if n < 1 || n > SharesPerProperty {
		return fmt.Errorf("%w: %d (expected 1-%d)", ErrInvalidShareNumber, n, SharesPerProperty)
	}
	return nil
}

// String renders the share number as a decimal
func (n ShareNumber) String() string {
	return strconv.Itoa(int(n))
}

// Period returns the calendar period the share entitles its owner to
func (n ShareNumber) Period() string {
	switch n {
	case 1:
		return "1st half of July"
	case 2:
		return "2nd half of July"
	case 3:
		return "1st half of August"
	case 4:
		return "2nd half of August"
	default:
		return "Unknown"
	}
}

// ShareStatus represents the commercial status of a single share
type ShareStatus int

const (
	ShareAvailable ShareStatus = iota
	ShareReserved
	ShareSold
)

// String method for ShareStatus enum
func (s ShareStatus) String() string {
	switch s {
	case ShareAvailable:
		return "available"
	case ShareReserved:
		return "reserved"
	case ShareSold:
		return "sold"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the known statuses
func (s ShareStatus) Valid() bool {
	return s >= ShareAvailable && s <= ShareSold
}

// MarshalText implements encoding.TextMarshaler
func (s ShareStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidShareStatus, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *ShareStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseShareStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseShareStatus parses a status label. The Spanish labels used by the
// legacy data ("disponible", "reservada", "vendida") are accepted as well.
func ParseShareStatus(s string) (ShareStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "available", "disponible":
		return ShareAvailable, nil
	case "reserved", "reservada":
		return ShareReserved, nil
	case "sold", "vendida":
		return ShareSold, nil
	default:
		return ShareAvailable, fmt.Errorf("%w: %q (expected: available, reserved, or sold)", ErrInvalidShareStatus, s)
	}
}

// PropertyStatus is the aggregate status derived from a property's shares
type PropertyStatus int

const (
	PropertyAvailable PropertyStatus = iota
	PropertyReserved
	PropertySold
)

// String method for PropertyStatus enum
func (s PropertyStatus) String() string {
	switch s {
	case PropertyAvailable:
		return "available"
	case PropertyReserved:
		return "reserved"
	case PropertySold:
		return "sold"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s PropertyStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *PropertyStatus) UnmarshalText(text []byte) error {
	parsed, err := ParsePropertyStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParsePropertyStatus parses an aggregate status label
func ParsePropertyStatus(s string) (PropertyStatus, error) {
	status, err := ParseShareStatus(s)
	if err != nil {
		return PropertyAvailable, err
	}
	return PropertyStatus(status), nil
}

// Share is one of the four fractional-ownership slots of a property
type Share struct {
	Number ShareNumber `json:"share_number"`
	Status ShareStatus `json:"status"`
	Price  Money       `json:"price"`
}

// Period returns the calendar period covered by the share
func (s Share) Period() string {
	return s.Number.Period()
}

// Shares holds the four shares of a property, indexed by share number - 1
type Shares [SharesPerProperty]Share

// Get returns the share with the given number
func (s Shares) Get(n ShareNumber) (Share, error) {
	if err := n.Validate(); err != nil {
		return Share{}, err
	}
	return s[n-1], nil
}

// Total returns the sum of all share prices
func (s Shares) Total() Money {
	var total Money
	for _, share := range s {
		total += share.Price
	}
	return total
}

// CountByStatus returns how many shares carry the given status
func (s Shares) CountByStatus(status ShareStatus) int {
	count := 0
	for _, share := range s {
		if share.Status == status {
			count++
		}
	}
	return count
}

// SharesFromSlice converts a slice loaded from storage into Shares, checking
// that exactly one share exists for every share number.
func SharesFromSlice(list []Share) (Shares, error) {
	var shares Shares
	if len(list) != SharesPerProperty {
		return shares, fmt.Errorf("%w: got %d", ErrInvalidShareCount, len(list))
	}
	var seen [SharesPerProperty]bool
	for _, share := range list {
		if err := share.Number.Validate(); err != nil {
			return shares, err
		}
		if seen[share.Number-1] {
			return shares, fmt.Errorf("%w: duplicate share %d", ErrInvalidShareCount, share.Number)
		}
		seen[share.Number-1] = true
		shares[share.Number-1] = share
	}
	return shares, nil
}
