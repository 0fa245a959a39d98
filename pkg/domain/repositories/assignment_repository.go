package repositories

import (
	"context"

	"github.com/copropiedad/ledger/pkg/domain/entities"
)

// AssignmentRepository stores owner-to-share assignments.
//
// Assign must run the uniqueness check and the write inside one transaction
// (or under one lock) so that two sessions racing for the same share cannot
// both succeed. It returns entities.ErrShareAlreadyAssigned when another owner
// already holds the share.
type AssignmentRepository interface {
	Assign(ctx context.Context, assignment entities.ShareAssignment) (*entities.ShareAssignment, error)
	ClearOwner(ctx context.Context, ownerID entities.OwnerID) (int, error)
	DeleteByProperty(ctx context.Context, propertyID entities.PropertyID) (int, error)
	FindByOwner(ctx context.Context, ownerID entities.OwnerID) ([]entities.ShareAssignment, error)
	FindByProperty(ctx context.Context, propertyID entities.PropertyID) ([]entities.ShareAssignment, error)
	FindAll(ctx context.Context) ([]entities.ShareAssignment, error)
}
