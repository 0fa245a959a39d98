package repositories

import (
	"context"

	"github.com/copropiedad/ledger/pkg/domain/entities"
)

// OwnerRepository provides access to owner records
type OwnerRepository interface {
	Save(ctx context.Context, owner *entities.Owner) error
	FindByID(ctx context.Context, id entities.OwnerID) (*entities.Owner, error)
	FindAll(ctx context.Context) ([]*entities.Owner, error)
	Delete(ctx context.Context, id entities.OwnerID) error
}

// AgentRepository provides access to agent records
type AgentRepository interface {
	Save(ctx context.Context, agent *entities.Agent) error
	FindByID(ctx context.Context, id entities.AgentID) (*entities.Agent, error)
	FindAll(ctx context.Context) ([]*entities.Agent, error)
	Delete(ctx context.Context, id entities.AgentID) error
}
