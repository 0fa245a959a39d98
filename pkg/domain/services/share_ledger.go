package services

import (
	"fmt"
	"time"

	"github.com/copropiedad/ledger/pkg/domain/entities"
)

// ShareLedger holds the four-share rules of a property: default pricing,
// status changes, aggregate status and owner assignment uniqueness.
// Every method is pure: inputs are never mutated and nothing is persisted.
type ShareLedger struct {
	now func() time.Time
}

// NewShareLedger creates a share ledger using the wall clock for assignment timestamps
func NewShareLedger() *ShareLedger {
	return &ShareLedger{now: time.Now}
}

// InitializeShares splits totalPrice into four available shares whose prices
// sum exactly to totalPrice.
func (l *ShareLedger) InitializeShares(totalPrice entities.Money) (entities.Shares, error) {
	prices, err := SplitPrice(totalPrice)
	if err != nil {
		return entities.Shares{}, err
	}

	var shares entities.Shares
	for i := range shares {
		shares[i] = entities.Share{
			Number: entities.ShareNumber(i + 1),
			Status: entities.ShareAvailable,
			Price:  prices[i],
		}
	}
	return shares, nil
}

// SplitPrice divides total into SharesPerProperty prices in minor units.
// Each share gets floor(total/4); the remainder cents go one each to the
// last shares, so 100.01 splits into 25.00, 25.00, 25.00, 25.01.
func SplitPrice(total entities.Money) ([entities.SharesPerProperty]entities.Money, error) {
	var prices [entities.SharesPerProperty]entities.Money
	if total.IsNegative() {
		return prices, fmt.Errorf("%w: total price %s", entities.ErrNegativePrice, total)
	}

	n := entities.Money(entities.SharesPerProperty)
	base := total / n
	remainder := int(total % n)
	for i := range prices {
		prices[i] = base
		if i >= entities.SharesPerProperty-remainder {
			prices[i]++
		}
	}
	return prices, nil
}

// SetShareStatus returns a copy of shares with the given share set to status.
// Any transition between statuses is allowed.
func (l *ShareLedger) SetShareStatus(shares entities.Shares, number entities.ShareNumber, status entities.ShareStatus) (entities.Shares, error) {
	if err := number.Validate(); err != nil {
		return shares, err
	}
	if !status.Valid() {
		return shares, fmt.Errorf("%w: %d", entities.ErrInvalidShareStatus, int(status))
	}

	shares[number-1].Status = status
	return shares, nil
}

// SetSharePrice returns a copy of shares with a manually overridden price for one share
func (l *ShareLedger) SetSharePrice(shares entities.Shares, number entities.ShareNumber, price entities.Money) (entities.Shares, error) {
	if err := number.Validate(); err != nil {
		return shares, err
	}
	if price.IsNegative() {
		return shares, fmt.Errorf("%w: share %d price %s", entities.ErrNegativePrice, number, price)
	}

	shares[number-1].Price = price
	return shares, nil
}

// ComputePropertyStatus derives the aggregate status of a property:
// all sold -> sold, all reserved -> reserved, any available -> available,
// otherwise (sold and reserved mixed) -> reserved.
func (l *ShareLedger) ComputePropertyStatus(shares entities.Shares) entities.PropertyStatus {
	sold := shares.CountByStatus(entities.ShareSold)
	reserved := shares.CountByStatus(entities.ShareReserved)
	available := shares.CountByStatus(entities.ShareAvailable)

	switch {
	case sold == entities.SharesPerProperty:
		return entities.PropertySold
	case reserved == entities.SharesPerProperty:
		return entities.PropertyReserved
	case available > 0:
		return entities.PropertyAvailable
	default:
		return entities.PropertyReserved
	}
}

// UpdateAllSharePrices recomputes every share price from totalPrice,
// discarding any manual overrides. Statuses are kept.
func (l *ShareLedger) UpdateAllSharePrices(shares entities.Shares, totalPrice entities.Money) (entities.Shares, error) {
	prices, err := SplitPrice(totalPrice)
	if err != nil {
		return shares, err
	}

	for i := range shares {
		shares[i].Number = entities.ShareNumber(i + 1)
		shares[i].Price = prices[i]
	}
	return shares, nil
}

// AssignOwnerToShare returns assignments with ownerID holding the given share.
// It fails with ErrShareAlreadyAssigned when a different owner already holds
// the share. Re-assigning the same owner updates the existing entry in place.
// Assignments the owner holds on other shares are left untouched; callers use
// ClearOwnerAssignment to remove them explicitly.
func (l *ShareLedger) AssignOwnerToShare(
	assignments []entities.ShareAssignment,
	ownerID entities.OwnerID,
	propertyID entities.PropertyID,
	number entities.ShareNumber,
	purchasePrice entities.Money,
) ([]entities.ShareAssignment, error) {
	if err := number.Validate(); err != nil {
		return assignments, err
	}
	if ownerID == "" {
		return assignments, fmt.Errorf("owner id cannot be empty")
	}
	if propertyID == "" {
		return assignments, fmt.Errorf("property id cannot be empty")
	}
	if purchasePrice.IsNegative() {
		return assignments, fmt.Errorf("%w: purchase price %s", entities.ErrNegativePrice, purchasePrice)
	}

	key := entities.ShareKey{PropertyID: propertyID, ShareNumber: number}
	result := make([]entities.ShareAssignment, len(assignments), len(assignments)+1)
	copy(result, assignments)

	for i, existing := range result {
		if existing.Key() != key {
			continue
		}
		if existing.OwnerID != ownerID {
			return assignments, fmt.Errorf("%w: property %s share %d is held by owner %s",
				entities.ErrShareAlreadyAssigned, propertyID, number, existing.OwnerID)
		}
		result[i].PurchasePrice = purchasePrice
		return result, nil
	}

	return append(result, entities.ShareAssignment{
		OwnerID:       ownerID,
		PropertyID:    propertyID,
		ShareNumber:   number,
		PurchasePrice: purchasePrice,
		AssignedAt:    l.now(),
	}), nil
}

// ClearOwnerAssignment returns assignments without any entry held by ownerID
func (l *ShareLedger) ClearOwnerAssignment(assignments []entities.ShareAssignment, ownerID entities.OwnerID) []entities.ShareAssignment {
	result := make([]entities.ShareAssignment, 0, len(assignments))
	for _, a := range assignments {
		if a.OwnerID != ownerID {
			result = append(result, a)
		}
	}
	return result
}

// CheckInvariants verifies the cardinality rules of a property's shares and
// the assignments that refer to it: four numbered shares, one owner per share.
func (l *ShareLedger) CheckInvariants(propertyID entities.PropertyID, shares entities.Shares, assignments []entities.ShareAssignment) error {
	for i, share := range shares {
		if share.Number != entities.ShareNumber(i+1) {
			return fmt.Errorf("%w: slot %d holds share %d", entities.ErrInvalidShareCount, i+1, share.Number)
		}
		if !share.Status.Valid() {
			return fmt.Errorf("%w: share %d", entities.ErrInvalidShareStatus, share.Number)
		}
	}

	holders := make(map[entities.ShareNumber]entities.OwnerID)
	for _, a := range assignments {
		if a.PropertyID != propertyID {
			continue
		}
		if err := a.ShareNumber.Validate(); err != nil {
			return err
		}
		if holder, ok := holders[a.ShareNumber]; ok && holder != a.OwnerID {
			return fmt.Errorf("%w: share %d held by %s and %s",
				entities.ErrShareAlreadyAssigned, a.ShareNumber, holder, a.OwnerID)
		}
		holders[a.ShareNumber] = a.OwnerID
	}
	return nil
}
