package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
)

// AssignmentRepository stores owner-to-share assignments. The ledger rule is
// checked against the rows read inside the write transaction, and the unique
// index on (property_id, share_number) rejects anything that slips through.
type AssignmentRepository struct {
	store *Store
}

var _ repositories.AssignmentRepository = (*AssignmentRepository)(nil)

const assignmentColumns = `owner_id, property_id, share_number, purchase_price, assigned_at`

func (r *AssignmentRepository) Assign(ctx context.Context, assignment entities.ShareAssignment) (*entities.ShareAssignment, error) {
	var stored entities.ShareAssignment

	err := r.store.withTx(ctx, "assign share", func(tx *sql.Tx) error {
		existing, err := queryAssignments(ctx, tx, `WHERE property_id = ? AND share_number = ?`,
			string(assignment.PropertyID), int(assignment.ShareNumber))
		if err != nil {
			return err
		}

		updated, err := r.store.ledger.AssignOwnerToShare(existing,
			assignment.OwnerID, assignment.PropertyID, assignment.ShareNumber, assignment.PurchasePrice)
		if err != nil {
			return err
		}
		for _, a := range updated {
			if a.Key() == assignment.Key() {
				stored = a
			}
		}

		if len(existing) > 0 {
			_, err = tx.ExecContext(ctx, `UPDATE share_assignments SET purchase_price = ?
				WHERE property_id = ? AND share_number = ?`,
				int64(stored.PurchasePrice), string(stored.PropertyID), int(stored.ShareNumber))
			return entities.NewPersistenceError("update assignment", err)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO share_assignments (`+assignmentColumns+`) VALUES (?, ?, ?, ?, ?)`,
			string(stored.OwnerID), string(stored.PropertyID), int(stored.ShareNumber),
			int64(stored.PurchasePrice), formatTime(stored.AssignedAt))
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: property %s share %d", entities.ErrShareAlreadyAssigned,
				stored.PropertyID, stored.ShareNumber)
		}
		return entities.NewPersistenceError("insert assignment", err)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ClearOwner removes every assignment held by an owner and reports how many were removed
func (r *AssignmentRepository) ClearOwner(ctx context.Context, ownerID entities.OwnerID) (int, error) {
	return r.deleteWhere(ctx, "clear owner assignments", `owner_id = ?`, string(ownerID))
}

// DeleteByProperty removes every assignment referring to a property
func (r *AssignmentRepository) DeleteByProperty(ctx context.Context, propertyID entities.PropertyID) (int, error) {
	return r.deleteWhere(ctx, "delete property assignments", `property_id = ?`, string(propertyID))
}

func (r *AssignmentRepository) FindByOwner(ctx context.Context, ownerID entities.OwnerID) ([]entities.ShareAssignment, error) {
	return queryAssignments(ctx, r.store.db, `WHERE owner_id = ? ORDER BY property_id, share_number`, string(ownerID))
}

func (r *AssignmentRepository) FindByProperty(ctx context.Context, propertyID entities.PropertyID) ([]entities.ShareAssignment, error) {
	return queryAssignments(ctx, r.store.db, `WHERE property_id = ? ORDER BY share_number`, string(propertyID))
}

func (r *AssignmentRepository) FindAll(ctx context.Context) ([]entities.ShareAssignment, error) {
	return queryAssignments(ctx, r.store.db, `ORDER BY property_id, share_number`)
}

func (r *AssignmentRepository) deleteWhere(ctx context.Context, op, where string, args ...any) (int, error) {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM share_assignments WHERE `+where, args...)
	if err != nil {
		return 0, entities.NewPersistenceError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, entities.NewPersistenceError(op, err)
	}
	return int(n), nil
}

func queryAssignments(ctx context.Context, q querier, clause string, args ...any) ([]entities.ShareAssignment, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+assignmentColumns+` FROM share_assignments `+clause, args...)
	if err != nil {
		return nil, entities.NewPersistenceError("query assignments", err)
	}
	defer rows.Close()

	result := []entities.ShareAssignment{}
	for rows.Next() {
		var (
			ownerID, propertyID, assignedAt string
			number                          int
			price                           int64
		)
		if err := rows.Scan(&ownerID, &propertyID, &number, &price, &assignedAt); err != nil {
			return nil, entities.NewPersistenceError("query assignments", err)
		}
		at, err := parseTime(assignedAt)
		if err != nil {
			return nil, entities.NewPersistenceError("query assignments", err)
		}
		result = append(result, entities.ShareAssignment{
			OwnerID:       entities.OwnerID(ownerID),
			PropertyID:    entities.PropertyID(propertyID),
			ShareNumber:   entities.ShareNumber(number),
			PurchasePrice: entities.Money(price),
			AssignedAt:    at,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, entities.NewPersistenceError("query assignments", err)
	}
	return result, nil
}
