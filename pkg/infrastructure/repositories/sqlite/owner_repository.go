package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
)

// OwnerRepository stores owners
type OwnerRepository struct {
	store *Store
}

var _ repositories.OwnerRepository = (*OwnerRepository)(nil)

const ownerColumns = `id, first_name, last_names, email, phone, national_id, street, city, state,
	zip_code, country, birth_date, occupation, notes, created_at`

func (r *OwnerRepository) Save(ctx context.Context, owner *entities.Owner) error {
	_, err := r.store.db.ExecContext(ctx, `INSERT INTO owners (`+ownerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(owner.ID), owner.FirstName, owner.LastNames, owner.Email, owner.Phone, owner.NationalID,
		owner.Address.Street, owner.Address.City, owner.Address.State, owner.Address.ZipCode,
		owner.Address.Country, owner.BirthDate, owner.Occupation, owner.Notes, formatTime(owner.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("duplicate owner id: %s", owner.ID)
	}
	return entities.NewPersistenceError("save owner", err)
}

func (r *OwnerRepository) FindByID(ctx context.Context, id entities.OwnerID) (*entities.Owner, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = ?`, string(id))
	owner, err := scanOwner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entities.ErrOwnerNotFound, id)
	}
	if err != nil {
		return nil, entities.NewPersistenceError("find owner", err)
	}
	return owner, nil
}

// FindAll returns all owners in insertion order
func (r *OwnerRepository) FindAll(ctx context.Context) ([]*entities.Owner, error) {
	rows, err := r.store.db.QueryContext(ctx, `SELECT `+ownerColumns+` FROM owners ORDER BY rowid`)
	if err != nil {
		return nil, entities.NewPersistenceError("list owners", err)
	}
	defer rows.Close()

	owners := []*entities.Owner{}
	for rows.Next() {
		owner, err := scanOwner(rows)
		if err != nil {
			return nil, entities.NewPersistenceError("list owners", err)
		}
		owners = append(owners, owner)
	}
	return owners, entities.NewPersistenceError("list owners", rows.Err())
}

// Delete removes an owner. Assignments held by the owner cascade.
func (r *OwnerRepository) Delete(ctx context.Context, id entities.OwnerID) error {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM owners WHERE id = ?`, string(id))
	if err != nil {
		return entities.NewPersistenceError("delete owner", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return entities.NewPersistenceError("delete owner", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", entities.ErrOwnerNotFound, id)
	}
	return nil
}

func scanOwner(row rowScanner) (*entities.Owner, error) {
	var o entities.Owner
	var id, createdAt string
	err := row.Scan(&id, &o.FirstName, &o.LastNames, &o.Email, &o.Phone, &o.NationalID,
		&o.Address.Street, &o.Address.City, &o.Address.State, &o.Address.ZipCode, &o.Address.Country,
		&o.BirthDate, &o.Occupation, &o.Notes, &createdAt)
	if err != nil {
		return nil, err
	}
	o.ID = entities.OwnerID(id)
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// AgentRepository stores agents
type AgentRepository struct {
	store *Store
}

var _ repositories.AgentRepository = (*AgentRepository)(nil)

const agentColumns = `id, name, email, phone, license, bio, created_at`

func (r *AgentRepository) Save(ctx context.Context, agent *entities.Agent) error {
	_, err := r.store.db.ExecContext(ctx, `INSERT INTO agents (`+agentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(agent.ID), agent.Name, agent.Email, agent.Phone, agent.License, agent.Bio, formatTime(agent.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("duplicate agent id: %s", agent.ID)
	}
	return entities.NewPersistenceError("save agent", err)
}

func (r *AgentRepository) FindByID(ctx context.Context, id entities.AgentID) (*entities.Agent, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = ?`, string(id))
	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entities.ErrAgentNotFound, id)
	}
	if err != nil {
		return nil, entities.NewPersistenceError("find agent", err)
	}
	return agent, nil
}

// FindAll returns all agents in insertion order
func (r *AgentRepository) FindAll(ctx context.Context) ([]*entities.Agent, error) {
	rows, err := r.store.db.QueryContext(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY rowid`)
	if err != nil {
		return nil, entities.NewPersistenceError("list agents", err)
	}
	defer rows.Close()

	agents := []*entities.Agent{}
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, entities.NewPersistenceError("list agents", err)
		}
		agents = append(agents, agent)
	}
	return agents, entities.NewPersistenceError("list agents", rows.Err())
}

// Delete removes an agent. It fails with ErrAgentInUse while properties reference it.
func (r *AgentRepository) Delete(ctx context.Context, id entities.AgentID) error {
	return r.store.withTx(ctx, "delete agent", func(tx *sql.Tx) error {
		var refs int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties WHERE agent_id = ?`, string(id)).Scan(&refs); err != nil {
			return entities.NewPersistenceError("delete agent", err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: %s has %d properties", entities.ErrAgentInUse, id, refs)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, string(id))
		if err != nil {
			return entities.NewPersistenceError("delete agent", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return entities.NewPersistenceError("delete agent", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", entities.ErrAgentNotFound, id)
		}
		return nil
	})
}

func scanAgent(row rowScanner) (*entities.Agent, error) {
	var a entities.Agent
	var id, createdAt string
	if err := row.Scan(&id, &a.Name, &a.Email, &a.Phone, &a.License, &a.Bio, &createdAt); err != nil {
		return nil, err
	}
	a.ID = entities.AgentID(id)
	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &a, nil
}
