package services

import (
	"errors"
	"testing"
	"time"

	"github.com/copropiedad/ledger/pkg/domain/entities"
)

var allStatuses = []entities.ShareStatus{
	entities.ShareAvailable,
	entities.ShareReserved,
	entities.ShareSold,
}

func sharesWith(statuses ...entities.ShareStatus) entities.Shares {
	var shares entities.Shares
	for i := range shares {
		shares[i] = entities.Share{Number: entities.ShareNumber(i + 1), Status: statuses[i]}
	}
	return shares
}

func TestShareLedger_InitializeShares(t *testing.T) {
	ledger := NewShareLedger()

	shares, err := ledger.InitializeShares(entities.MustParseMoney("100.00"))
	if err != nil {
		t.Fatalf("Expected initialization to succeed: %v", err)
	}

	for i, share := range shares {
		if share.Number != entities.ShareNumber(i+1) {
			t.Errorf("Expected share number %d, got %d", i+1, share.Number)
		}
		if share.Status != entities.ShareAvailable {
			t.Errorf("Expected share %d to be available, got %s", share.Number, share.Status)
		}
		if share.Price != entities.MustParseMoney("25.00") {
			t.Errorf("Expected share %d price 25.00, got %s", share.Number, share.Price)
		}
	}

	if status := ledger.ComputePropertyStatus(shares); status != entities.PropertyAvailable {
		t.Errorf("Expected aggregate status available, got %s", status)
	}
}

func TestShareLedger_InitializeShares_Redistribution(t *testing.T) {
	ledger := NewShareLedger()

	tests := []struct {
		name     string
		total    string
		expected [4]string
	}{
		{"even split", "100.00", [4]string{"25.00", "25.00", "25.00", "25.00"}},
		{"one cent remainder", "100.01", [4]string{"25.00", "25.00", "25.00", "25.01"}},
		{"two cent remainder", "100.02", [4]string{"25.00", "25.00", "25.01", "25.01"}},
		{"three cent remainder", "100.03", [4]string{"25.00", "25.01", "25.01", "25.01"}},
		{"zero", "0", [4]string{"0.00", "0.00", "0.00", "0.00"}},
		{"single cent", "0.01", [4]string{"0.00", "0.00", "0.00", "0.01"}},
		{"two cents", "0.02", [4]string{"0.00", "0.00", "0.01", "0.01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := entities.MustParseMoney(tt.total)
			shares, err := ledger.InitializeShares(total)
			if err != nil {
				t.Fatalf("InitializeShares(%s) failed: %v", tt.total, err)
			}
			for i, share := range shares {
				if share.Price.String() != tt.expected[i] {
					t.Errorf("share %d: expected %s, got %s", i+1, tt.expected[i], share.Price)
				}
			}
			if shares.Total() != total {
				t.Errorf("Expected shares to sum to %s, got %s", total, shares.Total())
			}
		})
	}
}

func TestShareLedger_InitializeShares_SumIsExact(t *testing.T) {
	ledger := NewShareLedger()

	for cents := entities.Money(0); cents < 5000; cents++ {
		shares, err := ledger.InitializeShares(cents)
		if err != nil {
			t.Fatalf("InitializeShares(%d) failed: %v", cents, err)
		}
		if shares.Total() != cents {
			t.Fatalf("Expected sum %d, got %d", cents, shares.Total())
		}
		for _, share := range shares {
			if share.Price < 0 {
				t.Fatalf("Expected non-negative price for total %d, got %d", cents, share.Price)
			}
			if diff := share.Price - cents/4; diff < 0 || diff > 1 {
				t.Fatalf("Share price %d deviates from %d/4 by more than a cent", share.Price, cents)
			}
		}
	}

	large := entities.Money(987654321987)
	shares, err := ledger.InitializeShares(large)
	if err != nil {
		t.Fatalf("InitializeShares(large) failed: %v", err)
	}
	if shares.Total() != large {
		t.Errorf("Expected sum %d, got %d", large, shares.Total())
	}
}

func TestShareLedger_InitializeShares_Negative(t *testing.T) {
	ledger := NewShareLedger()

	_, err := ledger.InitializeShares(-1)
	if !errors.Is(err, entities.ErrNegativePrice) {
		t.Errorf("Expected ErrNegativePrice, got %v", err)
	}
}

func TestShareLedger_SetShareStatus(t *testing.T) {
	ledger := NewShareLedger()
	shares, _ := ledger.InitializeShares(entities.MustParseMoney("1000.00"))

	updated, err := ledger.SetShareStatus(shares, 2, entities.ShareSold)
	if err != nil {
		t.Fatalf("SetShareStatus failed: %v", err)
	}
	if updated[1].Status != entities.ShareSold {
		t.Errorf("Expected share 2 sold, got %s", updated[1].Status)
	}
	if shares[1].Status != entities.ShareAvailable {
		t.Errorf("Expected input shares to be left untouched, share 2 is %s", shares[1].Status)
	}

	// Any transition is allowed, including sold back to available
	reverted, err := ledger.SetShareStatus(updated, 2, entities.ShareAvailable)
	if err != nil {
		t.Fatalf("Expected sold -> available to be allowed: %v", err)
	}
	if reverted != shares {
		t.Errorf("Expected reverting to restore original shares")
	}
}

func TestShareLedger_SetShareStatus_Idempotent(t *testing.T) {
	ledger := NewShareLedger()
	shares, _ := ledger.InitializeShares(entities.MustParseMoney("400.00"))

	for number := entities.ShareNumber(1); number <= 4; number++ {
		for _, status := range allStatuses {
			once, err := ledger.SetShareStatus(shares, number, status)
			if err != nil {
				t.Fatalf("SetShareStatus(%d, %s) failed: %v", number, status, err)
			}
			twice, err := ledger.SetShareStatus(once, number, status)
			if err != nil {
				t.Fatalf("SetShareStatus(%d, %s) failed on second call: %v", number, status, err)
			}
			if once != twice {
				t.Errorf("Expected idempotent result for share %d status %s", number, status)
			}
		}
	}
}

func TestShareLedger_SetShareStatus_InvalidInput(t *testing.T) {
	ledger := NewShareLedger()
	shares, _ := ledger.InitializeShares(entities.MustParseMoney("400.00"))

	tests := []struct {
		name     string
		number   entities.ShareNumber
		status   entities.ShareStatus
		expected error
	}{
		{"share zero", 0, entities.ShareSold, entities.ErrInvalidShareNumber},
		{"share five", 5, entities.ShareSold, entities.ErrInvalidShareNumber},
		{"negative share", -1, entities.ShareReserved, entities.ErrInvalidShareNumber},
		{"unknown status", 1, entities.ShareStatus(7), entities.ErrInvalidShareStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ledger.SetShareStatus(shares, tt.number, tt.status)
			if !errors.Is(err, tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, err)
			}
			if result != shares {
				t.Errorf("Expected shares to be returned unchanged on error")
			}
		})
	}
}

func TestShareLedger_ComputePropertyStatus(t *testing.T) {
	ledger := NewShareLedger()

	avail, res, sold := entities.ShareAvailable, entities.ShareReserved, entities.ShareSold

	tests := []struct {
		name     string
		shares   entities.Shares
		expected entities.PropertyStatus
	}{
		{"all available", sharesWith(avail, avail, avail, avail), entities.PropertyAvailable},
		{"all sold", sharesWith(sold, sold, sold, sold), entities.PropertySold},
		{"all reserved", sharesWith(res, res, res, res), entities.PropertyReserved},
		{"two sold two reserved", sharesWith(sold, sold, res, res), entities.PropertyReserved},
		{"one available rest sold", sharesWith(avail, sold, sold, sold), entities.PropertyAvailable},
		{"one available rest reserved", sharesWith(res, res, avail, res), entities.PropertyAvailable},
		{"three sold one reserved", sharesWith(sold, res, sold, sold), entities.PropertyReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ledger.ComputePropertyStatus(tt.shares); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

// referenceStatus restates the aggregation rule in terms of counts only
func referenceStatus(statuses [4]entities.ShareStatus) entities.PropertyStatus {
	counts := map[entities.ShareStatus]int{}
	for _, s := range statuses {
		counts[s]++
	}
	switch {
	case counts[entities.ShareSold] == 4:
		return entities.PropertySold
	case counts[entities.ShareReserved] == 4:
		return entities.PropertyReserved
	case counts[entities.ShareAvailable] >= 1:
		return entities.PropertyAvailable
	default:
		return entities.PropertyReserved
	}
}

func TestShareLedger_ComputePropertyStatus_AllCombinations(t *testing.T) {
	ledger := NewShareLedger()

	permutations := [][4]int{}
	var permute func(prefix []int, rest []int)
	permute = func(prefix []int, rest []int) {
		if len(rest) == 0 {
			permutations = append(permutations, [4]int{prefix[0], prefix[1], prefix[2], prefix[3]})
			return
		}
		for i := range rest {
			next := append(append([]int{}, rest[:i]...), rest[i+1:]...)
			permute(append(append([]int{}, prefix...), rest[i]), next)
		}
	}
	permute(nil, []int{0, 1, 2, 3})

	for _, a := range allStatuses {
		for _, b := range allStatuses {
			for _, c := range allStatuses {
				for _, d := range allStatuses {
					statuses := [4]entities.ShareStatus{a, b, c, d}
					expected := referenceStatus(statuses)

					for _, perm := range permutations {
						shares := sharesWith(statuses[perm[0]], statuses[perm[1]], statuses[perm[2]], statuses[perm[3]])
						if got := ledger.ComputePropertyStatus(shares); got != expected {
							t.Fatalf("statuses %v permuted %v: expected %s, got %s", statuses, perm, expected, got)
						}
					}
				}
			}
		}
	}
}

func TestShareLedger_EndToEndScenario(t *testing.T) {
	ledger := NewShareLedger()

	shares, err := ledger.InitializeShares(entities.MustParseMoney("100.00"))
	if err != nil {
		t.Fatalf("InitializeShares failed: %v", err)
	}
	if got := ledger.ComputePropertyStatus(shares); got != entities.PropertyAvailable {
		t.Fatalf("Expected available after initialization, got %s", got)
	}

	setAll := func(shares entities.Shares, statuses ...entities.ShareStatus) entities.Shares {
		for i, status := range statuses {
			var err error
			shares, err = ledger.SetShareStatus(shares, entities.ShareNumber(i+1), status)
			if err != nil {
				t.Fatalf("SetShareStatus failed: %v", err)
			}
		}
		return shares
	}

	shares = setAll(shares, entities.ShareSold, entities.ShareSold, entities.ShareSold, entities.ShareSold)
	if got := ledger.ComputePropertyStatus(shares); got != entities.PropertySold {
		t.Errorf("Expected sold when all shares sold, got %s", got)
	}

	shares = setAll(shares, entities.ShareSold, entities.ShareSold, entities.ShareReserved, entities.ShareReserved)
	if got := ledger.ComputePropertyStatus(shares); got != entities.PropertyReserved {
		t.Errorf("Expected reserved for 2 sold / 2 reserved, got %s", got)
	}

	shares = setAll(shares, entities.ShareAvailable, entities.ShareSold, entities.ShareSold, entities.ShareSold)
	if got := ledger.ComputePropertyStatus(shares); got != entities.PropertyAvailable {
		t.Errorf("Expected available when one share is free, got %s", got)
	}

	if shares.Total() != entities.MustParseMoney("100.00") {
		t.Errorf("Expected status changes to leave prices alone, total is %s", shares.Total())
	}
}

func TestShareLedger_UpdateAllSharePrices(t *testing.T) {
	ledger := NewShareLedger()
	shares, _ := ledger.InitializeShares(entities.MustParseMoney("100.00"))
	shares, _ = ledger.SetShareStatus(shares, 3, entities.ShareReserved)
	shares, err := ledger.SetSharePrice(shares, 1, entities.MustParseMoney("40.00"))
	if err != nil {
		t.Fatalf("SetSharePrice failed: %v", err)
	}
	if shares[0].Price != entities.MustParseMoney("40.00") {
		t.Fatalf("Expected manual override 40.00, got %s", shares[0].Price)
	}

	repriced, err := ledger.UpdateAllSharePrices(shares, entities.MustParseMoney("200.01"))
	if err != nil {
		t.Fatalf("UpdateAllSharePrices failed: %v", err)
	}

	expected := []string{"50.00", "50.00", "50.00", "50.01"}
	for i, share := range repriced {
		if share.Price.String() != expected[i] {
			t.Errorf("share %d: expected %s, got %s", i+1, expected[i], share.Price)
		}
	}
	if repriced[2].Status != entities.ShareReserved {
		t.Errorf("Expected repricing to keep share 3 reserved, got %s", repriced[2].Status)
	}
	if repriced.Total() != entities.MustParseMoney("200.01") {
		t.Errorf("Expected total 200.01, got %s", repriced.Total())
	}

	if _, err := ledger.UpdateAllSharePrices(shares, -5); !errors.Is(err, entities.ErrNegativePrice) {
		t.Errorf("Expected ErrNegativePrice, got %v", err)
	}
}

func TestShareLedger_SetSharePrice_InvalidInput(t *testing.T) {
	ledger := NewShareLedger()
	shares, _ := ledger.InitializeShares(entities.MustParseMoney("100.00"))

	if _, err := ledger.SetSharePrice(shares, 9, 100); !errors.Is(err, entities.ErrInvalidShareNumber) {
		t.Errorf("Expected ErrInvalidShareNumber, got %v", err)
	}
	if _, err := ledger.SetSharePrice(shares, 1, -100); !errors.Is(err, entities.ErrNegativePrice) {
		t.Errorf("Expected ErrNegativePrice, got %v", err)
	}
}

func TestShareLedger_AssignOwnerToShare(t *testing.T) {
	ledger := NewShareLedger()
	fixed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return fixed }

	assignments, err := ledger.AssignOwnerToShare(nil, "owner-a", "prop-1", 1, entities.MustParseMoney("25.00"))
	if err != nil {
		t.Fatalf("First assignment failed: %v", err)
	}
	if len(assignments) != 1 {
		t.Fatalf("Expected 1 assignment, got %d", len(assignments))
	}
	if assignments[0].AssignedAt != fixed {
		t.Errorf("Expected assignment timestamp %v, got %v", fixed, assignments[0].AssignedAt)
	}

	// Different owner, same share: rejected
	rejected, err := ledger.AssignOwnerToShare(assignments, "owner-b", "prop-1", 1, 0)
	if !errors.Is(err, entities.ErrShareAlreadyAssigned) {
		t.Fatalf("Expected ErrShareAlreadyAssigned, got %v", err)
	}
	if len(rejected) != 1 || rejected[0].OwnerID != "owner-a" {
		t.Errorf("Expected assignments unchanged after rejection, got %+v", rejected)
	}

	// Same owner resubmits: update in place, no duplicate
	again, err := ledger.AssignOwnerToShare(assignments, "owner-a", "prop-1", 1, entities.MustParseMoney("30.00"))
	if err != nil {
		t.Fatalf("Expected same-owner reassignment to succeed: %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("Expected reassignment to update in place, got %d entries", len(again))
	}
	if again[0].PurchasePrice != entities.MustParseMoney("30.00") {
		t.Errorf("Expected purchase price 30.00, got %s", again[0].PurchasePrice)
	}
	if assignments[0].PurchasePrice != entities.MustParseMoney("25.00") {
		t.Errorf("Expected input slice untouched, got %s", assignments[0].PurchasePrice)
	}

	// Same owner, another share: prior assignment is kept
	more, err := ledger.AssignOwnerToShare(again, "owner-a", "prop-1", 2, 0)
	if err != nil {
		t.Fatalf("Expected assignment of second share to succeed: %v", err)
	}
	if len(more) != 2 {
		t.Fatalf("Expected 2 assignments, got %d", len(more))
	}

	// Same share number on a different property is independent
	other, err := ledger.AssignOwnerToShare(more, "owner-b", "prop-2", 1, 0)
	if err != nil {
		t.Fatalf("Expected assignment on other property to succeed: %v", err)
	}
	if len(other) != 3 {
		t.Fatalf("Expected 3 assignments, got %d", len(other))
	}
	if err := ledger.CheckInvariants("prop-1", entities.Shares{}, other); err == nil {
		t.Errorf("Expected zero-valued shares to fail invariant check")
	}
	shares, _ := ledger.InitializeShares(100)
	if err := ledger.CheckInvariants("prop-1", shares, other); err != nil {
		t.Errorf("Expected invariants to hold, got %v", err)
	}
}

func TestShareLedger_AssignOwnerToShare_InvalidInput(t *testing.T) {
	ledger := NewShareLedger()

	tests := []struct {
		name     string
		owner    entities.OwnerID
		property entities.PropertyID
		number   entities.ShareNumber
		price    entities.Money
		sentinel error
	}{
		{"invalid share number", "o", "p", 5, 0, entities.ErrInvalidShareNumber},
		{"negative purchase price", "o", "p", 1, -1, entities.ErrNegativePrice},
		{"empty owner", "", "p", 1, 0, nil},
		{"empty property", "o", "", 1, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.AssignOwnerToShare(nil, tt.owner, tt.property, tt.number, tt.price)
			if err == nil {
				t.Fatalf("Expected error for %s, got none", tt.name)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("Expected %v, got %v", tt.sentinel, err)
			}
		})
	}
}

func TestShareLedger_ClearOwnerAssignment(t *testing.T) {
	ledger := NewShareLedger()

	assignments := []entities.ShareAssignment{
		{OwnerID: "owner-a", PropertyID: "prop-1", ShareNumber: 1},
		{OwnerID: "owner-b", PropertyID: "prop-1", ShareNumber: 2},
		{OwnerID: "owner-a", PropertyID: "prop-2", ShareNumber: 4},
	}

	cleared := ledger.ClearOwnerAssignment(assignments, "owner-a")
	if len(cleared) != 1 {
		t.Fatalf("Expected 1 remaining assignment, got %d", len(cleared))
	}
	if cleared[0].OwnerID != "owner-b" {
		t.Errorf("Expected owner-b to keep its share, got %s", cleared[0].OwnerID)
	}
	if len(assignments) != 3 {
		t.Errorf("Expected input untouched")
	}

	// The freed share can now be claimed by someone else
	if _, err := ledger.AssignOwnerToShare(cleared, "owner-c", "prop-1", 1, 0); err != nil {
		t.Errorf("Expected freed share to be assignable: %v", err)
	}

	if got := ledger.ClearOwnerAssignment(cleared, "nobody"); len(got) != 1 {
		t.Errorf("Expected clearing an unknown owner to be a no-op, got %d entries", len(got))
	}
}
