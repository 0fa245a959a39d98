package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
)

// OwnerRepository provides in-memory owner storage
type OwnerRepository struct {
	mu       sync.RWMutex
	owners   []entities.Owner
	ownerMap map[entities.OwnerID]int
}

// NewOwnerRepository creates a new in-memory owner repository
func NewOwnerRepository(expectedOwners int) *OwnerRepository {
	return &OwnerRepository{
		owners:   make([]entities.Owner, 0, expectedOwners),
		ownerMap: make(map[entities.OwnerID]int, expectedOwners),
	}
}

// Verify interface compliance
var _ repositories.OwnerRepository = (*OwnerRepository)(nil)

// Save stores a new owner
func (r *OwnerRepository) Save(ctx context.Context, owner *entities.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ownerMap[owner.ID]; exists {
		return fmt.Errorf("duplicate owner id: %s", owner.ID)
	}
	r.ownerMap[owner.ID] = len(r.owners)
	r.owners = append(r.owners, *owner)
	return nil
}

// FindByID returns an owner by id
func (r *OwnerRepository) FindByID(ctx context.Context, id entities.OwnerID) (*entities.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.ownerMap[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entities.ErrOwnerNotFound, id)
	}
	owner := r.owners[index]
	return &owner, nil
}

// FindAll returns all owners in insertion order
func (r *OwnerRepository) FindAll(ctx context.Context) ([]*entities.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owners := make([]*entities.Owner, 0, len(r.owners))
	for i := range r.owners {
		owner := r.owners[i]
		owners = append(owners, &owner)
	}
	return owners, nil
}

// Delete removes an owner
func (r *OwnerRepository) Delete(ctx context.Context, id entities.OwnerID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, exists := r.ownerMap[id]
	if !exists {
		return fmt.Errorf("%w: %s", entities.ErrOwnerNotFound, id)
	}
	r.owners = append(r.owners[:index], r.owners[index+1:]...)
	delete(r.ownerMap, id)
	for i := index; i < len(r.owners); i++ {
		r.ownerMap[r.owners[i].ID] = i
	}
	return nil
}

// AgentRepository provides in-memory agent storage
type AgentRepository struct {
	mu       sync.RWMutex
	agents   []entities.Agent
	agentMap map[entities.AgentID]int
}

// NewAgentRepository creates a new in-memory agent repository
func NewAgentRepository(expectedAgents int) *AgentRepository {
	return &AgentRepository{
		agents:   make([]entities.Agent, 0, expectedAgents),
		agentMap: make(map[entities.AgentID]int, expectedAgents),
	}
}

// Verify interface compliance
var _ repositories.AgentRepository = (*AgentRepository)(nil)

// Save stores a new agent
func (r *AgentRepository) Save(ctx context.Context, agent *entities.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agentMap[agent.ID]; exists {
		return fmt.Errorf("duplicate agent id: %s", agent.ID)
	}
	r.agentMap[agent.ID] = len(r.agents)
	r.agents = append(r.agents, *agent)
	return nil
}

// FindByID returns an agent by id
func (r *AgentRepository) FindByID(ctx context.Context, id entities.AgentID) (*entities.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.agentMap[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entities.ErrAgentNotFound, id)
	}
	agent := r.agents[index]
	return &agent, nil
}

// FindAll returns all agents in insertion order
func (r *AgentRepository) FindAll(ctx context.Context) ([]*entities.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]*entities.Agent, 0, len(r.agents))
	for i := range r.agents {
		agent := r.agents[i]
		agents = append(agents, &agent)
	}
	return agents, nil
}

// Delete removes an agent
func (r *AgentRepository) Delete(ctx context.Context, id entities.AgentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, exists := r.agentMap[id]
	if !exists {
		return fmt.Errorf("%w: %s", entities.ErrAgentNotFound, id)
	}
	r.agents = append(r.agents[:index], r.agents[index+1:]...)
	delete(r.agentMap, id)
	for i := index; i < len(r.agents); i++ {
		r.agentMap[r.agents[i].ID] = i
	}
	return nil
}
