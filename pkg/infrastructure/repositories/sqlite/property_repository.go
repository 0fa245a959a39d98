package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
)

// PropertyRepository stores properties and their shares. The aggregate
// status column is computed by the share ledger and written in the same
// transaction as the share rows.
type PropertyRepository struct {
	store *Store
}

var _ repositories.PropertyRepository = (*PropertyRepository)(nil)

const propertyColumns = `id, name, category, street, city, state, zip_code, country, details,
	total_price, agent_id, commission_percentage, commission_status, created_at, updated_at`

func (r *PropertyRepository) Save(ctx context.Context, property *entities.Property) error {
	if err := r.store.ledger.CheckInvariants(property.ID, property.Shares, nil); err != nil {
		return err
	}

	return r.store.withTx(ctx, "save property", func(tx *sql.Tx) error {
		args, err := r.rowArgs(property)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO properties (`+propertyColumns+`, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
		if isUniqueViolation(err) {
			return fmt.Errorf("duplicate property id: %s", property.ID)
		}
		if err != nil {
			return entities.NewPersistenceError("insert property", err)
		}
		return r.writeShares(ctx, tx, property)
	})
}

func (r *PropertyRepository) Update(ctx context.Context, property *entities.Property) error {
	if err := r.store.ledger.CheckInvariants(property.ID, property.Shares, nil); err != nil {
		return err
	}

	return r.store.withTx(ctx, "update property", func(tx *sql.Tx) error {
		args, err := r.rowArgs(property)
		if err != nil {
			return err
		}
		// id moves from first to last for the WHERE clause
		args = append(args[1:], args[0])
		res, err := tx.ExecContext(ctx, `UPDATE properties SET
			name = ?, category = ?, street = ?, city = ?, state = ?, zip_code = ?, country = ?,
			details = ?, total_price = ?, agent_id = ?, commission_percentage = ?,
			commission_status = ?, created_at = ?, updated_at = ?, status = ?
			WHERE id = ?`, args...)
		if err != nil {
			return entities.NewPersistenceError("update property", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return entities.NewPersistenceError("update property", err)
		} else if n == 0 {
			return fmt.Errorf("%w: %s", entities.ErrPropertyNotFound, property.ID)
		}
		return r.writeShares(ctx, tx, property)
	})
}

func (r *PropertyRepository) FindByID(ctx context.Context, id entities.PropertyID) (*entities.Property, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, string(id))
	property, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entities.ErrPropertyNotFound, id)
	}
	if err != nil {
		return nil, entities.NewPersistenceError("find property", err)
	}

	if err := r.loadShares(ctx, r.store.db, property); err != nil {
		return nil, err
	}
	return property, nil
}

// FindAll returns the properties matching filter, newest first
func (r *PropertyRepository) FindAll(ctx context.Context, filter repositories.PropertyFilter) ([]*entities.Property, error) {
	var where []string
	var args []any

	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, filter.Status.String())
	}
	if filter.Category != "" {
		where = append(where, "LOWER(category) = LOWER(?)")
		args = append(args, filter.Category)
	}
	if filter.AgentID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, string(filter.AgentID))
	}
	if filter.MinPrice != nil {
		where = append(where, "total_price >= ?")
		args = append(args, int64(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where = append(where, "total_price <= ?")
		args = append(args, int64(*filter.MaxPrice))
	}
	if filter.SearchTerm != "" {
		where = append(where, "INSTR(LOWER(name || ' ' || street || ' ' || city), LOWER(?)) > 0")
		args = append(args, filter.SearchTerm)
	}

	query := `SELECT ` + propertyColumns + ` FROM properties`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid ASC"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, entities.NewPersistenceError("list properties", err)
	}

	var result []*entities.Property
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			rows.Close()
			return nil, entities.NewPersistenceError("list properties", err)
		}
		result = append(result, property)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, entities.NewPersistenceError("list properties", err)
	}
	rows.Close()

	// shares are loaded after the cursor is closed; the single connection
	// cannot serve a second query while rows are open
	for _, property := range result {
		if err := r.loadShares(ctx, r.store.db, property); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Delete removes a property. Shares and assignments cascade.
func (r *PropertyRepository) Delete(ctx context.Context, id entities.PropertyID) error {
	return r.store.withTx(ctx, "delete property", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, string(id))
		if err != nil {
			return entities.NewPersistenceError("delete property", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return entities.NewPersistenceError("delete property", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", entities.ErrPropertyNotFound, id)
		}
		return nil
	})
}

// StoredStatus returns the aggregate status column as persisted
func (r *PropertyRepository) StoredStatus(ctx context.Context, id entities.PropertyID) (entities.PropertyStatus, error) {
	var raw string
	err := r.store.db.QueryRowContext(ctx, `SELECT status FROM properties WHERE id = ?`, string(id)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.PropertyAvailable, fmt.Errorf("%w: %s", entities.ErrPropertyNotFound, id)
	}
	if err != nil {
		return entities.PropertyAvailable, entities.NewPersistenceError("read property status", err)
	}
	return entities.ParsePropertyStatus(raw)
}

func (r *PropertyRepository) rowArgs(p *entities.Property) ([]any, error) {
	details, err := json.Marshal(p.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode property details: %w", err)
	}
	status := r.store.ledger.ComputePropertyStatus(p.Shares)

	return []any{
		string(p.ID),
		p.Name,
		p.Category,
		p.Address.Street,
		p.Address.City,
		p.Address.State,
		p.Address.ZipCode,
		p.Address.Country,
		string(details),
		int64(p.TotalPrice),
		nullString(string(p.AgentID)),
		p.Commission.Percentage.String(),
		p.Commission.Status.String(),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
		status.String(),
	}, nil
}

func (r *PropertyRepository) writeShares(ctx context.Context, tx *sql.Tx, p *entities.Property) error {
	for _, share := range p.Shares {
		_, err := tx.ExecContext(ctx, `INSERT INTO property_shares (property_id, share_number, status, price)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (property_id, share_number) DO UPDATE SET status = excluded.status, price = excluded.price`,
			string(p.ID), int(share.Number), share.Status.String(), int64(share.Price))
		if err != nil {
			return entities.NewPersistenceError("write shares", err)
		}
	}
	return nil
}

func (r *PropertyRepository) loadShares(ctx context.Context, q querier, p *entities.Property) error {
	rows, err := q.QueryContext(ctx, `SELECT share_number, status, price FROM property_shares
		WHERE property_id = ? ORDER BY share_number`, string(p.ID))
	if err != nil {
		return entities.NewPersistenceError("load shares", err)
	}
	defer rows.Close()

	var list []entities.Share
	for rows.Next() {
		var number int
		var status string
		var price int64
		if err := rows.Scan(&number, &status, &price); err != nil {
			return entities.NewPersistenceError("load shares", err)
		}
		parsed, err := entities.ParseShareStatus(status)
		if err != nil {
			return entities.NewPersistenceError("load shares", err)
		}
		list = append(list, entities.Share{
			Number: entities.ShareNumber(number),
			Status: parsed,
			Price:  entities.Money(price),
		})
	}
	if err := rows.Err(); err != nil {
		return entities.NewPersistenceError("load shares", err)
	}

	shares, err := entities.SharesFromSlice(list)
	if err != nil {
		return entities.NewPersistenceError("load shares", fmt.Errorf("property %s: %w", p.ID, err))
	}
	p.Shares = shares
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*entities.Property, error) {
	var (
		p                     entities.Property
		id, details           string
		totalPrice            int64
		agentID               sql.NullString
		percentage, comStatus string
		createdAt, updatedAt  string
	)
	err := row.Scan(&id, &p.Name, &p.Category, &p.Address.Street, &p.Address.City, &p.Address.State,
		&p.Address.ZipCode, &p.Address.Country, &details, &totalPrice, &agentID,
		&percentage, &comStatus, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.ID = entities.PropertyID(id)
	p.TotalPrice = entities.Money(totalPrice)
	p.AgentID = entities.AgentID(agentID.String)

	if err := json.Unmarshal([]byte(details), &p.Details); err != nil {
		return nil, fmt.Errorf("property %s details: %w", id, err)
	}
	if p.Commission.Percentage, err = decimal.NewFromString(percentage); err != nil {
		return nil, fmt.Errorf("property %s commission: %w", id, err)
	}
	if p.Commission.Status, err = entities.ParseCommissionStatus(comStatus); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
