package services

import (
	"strings"

	"github.com/copropiedad/ledger/pkg/domain/entities"
)

// PortfolioStats summarizes share sales across a set of properties
type PortfolioStats struct {
	TotalProperties    int            `json:"total_properties"`
	TotalValue         entities.Money `json:"total_value"`
	SoldValue          entities.Money `json:"sold_value"`
	AvailableShares    int            `json:"available_shares"`
	ReservedShares     int            `json:"reserved_shares"`
	SoldShares         int            `json:"sold_shares"`
	PropertiesByStatus map[string]int `json:"properties_by_status"`
	PendingCommissions entities.Money `json:"pending_commissions"`
	PaidCommissions    entities.Money `json:"paid_commissions"`
}

// PortfolioAnalyzer aggregates statistics over properties
type PortfolioAnalyzer struct {
	ledger      *ShareLedger
	commissions *CommissionCalculator
}

// NewPortfolioAnalyzer creates a new portfolio analyzer
func NewPortfolioAnalyzer(ledger *ShareLedger, commissions *CommissionCalculator) *PortfolioAnalyzer {
	return &PortfolioAnalyzer{ledger: ledger, commissions: commissions}
}

// Analyze computes portfolio statistics
func (a *PortfolioAnalyzer) Analyze(properties []*entities.Property) PortfolioStats {
	stats := PortfolioStats{
		PropertiesByStatus: map[string]int{
			entities.PropertyAvailable.String(): 0,
			entities.PropertyReserved.String():  0,
			entities.PropertySold.String():      0,
		},
	}

	for _, p := range properties {
		stats.TotalProperties++
		stats.TotalValue += p.TotalPrice
		stats.PropertiesByStatus[a.ledger.ComputePropertyStatus(p.Shares).String()]++

		for _, share := range p.Shares {
			switch share.Status {
			case entities.ShareAvailable:
				stats.AvailableShares++
			case entities.ShareReserved:
				stats.ReservedShares++
			case entities.ShareSold:
				stats.SoldShares++
				stats.SoldValue += share.Price
			}
		}

		if !p.HasAgent() {
			continue
		}
		amount := a.commissions.PropertyAmount(p)
		if p.Commission.Status == entities.CommissionPaid {
			stats.PaidCommissions += amount
		} else {
			stats.PendingCommissions += amount
		}
	}
	return stats
}

// normalizeDecimal accepts a single comma as decimal separator
func normalizeDecimal(s string) string {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}
