package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/copropiedad/ledger/pkg/domain/entities"
)

var hundred = decimal.NewFromInt(100)

// CommissionCalculator computes agent commissions on property prices
type CommissionCalculator struct{}

// NewCommissionCalculator creates a new commission calculator
func NewCommissionCalculator() *CommissionCalculator {
	return &CommissionCalculator{}
}

// Amount returns totalPrice * percentage / 100, rounded half-up to the cent.
// Results beyond the representable range saturate at MaxMoney; that needs a
// percentage above 100, which validated commissions never carry.
func (c *CommissionCalculator) Amount(totalPrice entities.Money, percentage decimal.Decimal) entities.Money {
	amount, err := entities.MoneyFromDecimal(totalPrice.Decimal().Mul(percentage).Div(hundred))
	if err != nil {
		if percentage.IsNegative() != totalPrice.IsNegative() {
			return -entities.MaxMoney
		}
		return entities.MaxMoney
	}
	return amount
}

// PropertyAmount returns the commission owed on a property
func (c *CommissionCalculator) PropertyAmount(p *entities.Property) entities.Money {
	return c.Amount(p.TotalPrice, p.Commission.Percentage)
}

// SetPercentage returns commission with a new validated percentage
func (c *CommissionCalculator) SetPercentage(commission entities.Commission, percentage decimal.Decimal) (entities.Commission, error) {
	return entities.NewCommission(percentage, commission.Status)
}

// SetStatus returns commission with a new status
func (c *CommissionCalculator) SetStatus(commission entities.Commission, status entities.CommissionStatus) (entities.Commission, error) {
	return entities.NewCommission(commission.Percentage, status)
}

// Toggle flips a commission between pending and paid
func (c *CommissionCalculator) Toggle(commission entities.Commission) (entities.Commission, error) {
	switch commission.Status {
	case entities.CommissionPending:
		commission.Status = entities.CommissionPaid
	case entities.CommissionPaid:
		commission.Status = entities.CommissionPending
	default:
		return commission, fmt.Errorf("%w: unknown status %d", entities.ErrInvalidCommission, int(commission.Status))
	}
	return commission, nil
}

// ParsePercentage parses a percentage such as "2.5" or "2,5"
func ParsePercentage(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(normalizeDecimal(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: percentage %q is not a number", entities.ErrInvalidCommission, s)
	}
	return d, nil
}
