package memory

import (
	"context"
	"sync"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
	"github.com/copropiedad/ledger/pkg/domain/services"
)

// AssignmentRepository provides in-memory share assignment storage.
// The uniqueness check and the write happen under one lock.
type AssignmentRepository struct {
	mu          sync.Mutex
	assignments []entities.ShareAssignment
	ledger      *services.ShareLedger
}

// NewAssignmentRepository creates a new in-memory assignment repository
func NewAssignmentRepository(ledger *services.ShareLedger) *AssignmentRepository {
	return &AssignmentRepository{
		assignments: []entities.ShareAssignment{},
		ledger:      ledger,
	}
}

// Verify interface compliance
var _ repositories.AssignmentRepository = (*AssignmentRepository)(nil)

// Assign records that an owner holds a share
func (r *AssignmentRepository) Assign(ctx context.Context, assignment entities.ShareAssignment) (*entities.ShareAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated, err := r.ledger.AssignOwnerToShare(
		r.assignments,
		assignment.OwnerID,
		assignment.PropertyID,
		assignment.ShareNumber,
		assignment.PurchasePrice,
	)
	if err != nil {
		return nil, err
	}
	r.assignments = updated

	for _, a := range r.assignments {
		if a.Key() == assignment.Key() {
			stored := a
			return &stored, nil
		}
	}
	return nil, nil
}

// ClearOwner removes every assignment held by an owner and reports how many were removed
func (r *AssignmentRepository) ClearOwner(ctx context.Context, ownerID entities.OwnerID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.assignments)
	r.assignments = r.ledger.ClearOwnerAssignment(r.assignments, ownerID)
	return before - len(r.assignments), nil
}

// DeleteByProperty removes every assignment referring to a property
func (r *AssignmentRepository) DeleteByProperty(ctx context.Context, propertyID entities.PropertyID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]entities.ShareAssignment, 0, len(r.assignments))
	for _, a := range r.assignments {
		if a.PropertyID != propertyID {
			kept = append(kept, a)
		}
	}
	removed := len(r.assignments) - len(kept)
	r.assignments = kept
	return removed, nil
}

// FindByOwner returns the assignments held by an owner
func (r *AssignmentRepository) FindByOwner(ctx context.Context, ownerID entities.OwnerID) ([]entities.ShareAssignment, error) {
	return r.filter(func(a entities.ShareAssignment) bool { return a.OwnerID == ownerID }), nil
}

// FindByProperty returns the assignments on a property's shares
func (r *AssignmentRepository) FindByProperty(ctx context.Context, propertyID entities.PropertyID) ([]entities.ShareAssignment, error) {
	return r.filter(func(a entities.ShareAssignment) bool { return a.PropertyID == propertyID }), nil
}

// FindAll returns every assignment
func (r *AssignmentRepository) FindAll(ctx context.Context) ([]entities.ShareAssignment, error) {
	return r.filter(func(entities.ShareAssignment) bool { return true }), nil
}

func (r *AssignmentRepository) filter(keep func(entities.ShareAssignment) bool) []entities.ShareAssignment {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := []entities.ShareAssignment{}
	for _, a := range r.assignments {
		if keep(a) {
			result = append(result, a)
		}
	}
	return result
}
