package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/copropiedad/ledger/pkg/application/dto"
	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
)

// CreateAgentInput describes a new agent. ID is generated when empty.
type CreateAgentInput struct {
	ID      entities.AgentID
	Name    string
	Email   string
	Phone   string
	License string
	Bio     string
}

// AgentService manages sales agents
type AgentService struct {
	deps       Deps
	properties *PropertyService
	logger     *zap.Logger
}

// NewAgentService creates an agent service. Property listings are rendered
// through properties.
func NewAgentService(deps Deps, properties *PropertyService) *AgentService {
	deps = deps.withDefaults()
	return &AgentService{deps: deps, properties: properties, logger: deps.Logger.Named("agents")}
}

func (s *AgentService) CreateAgent(ctx context.Context, in CreateAgentInput) (*entities.Agent, error) {
	id := in.ID
	if id == "" {
		id = entities.AgentID(s.deps.NewID())
	}
	agent, err := entities.NewAgent(id, in.Name, in.Email)
	if err != nil {
		return nil, err
	}
	agent.Phone = in.Phone
	agent.License = in.License
	agent.Bio = in.Bio
	agent.CreatedAt = s.deps.Now()

	if err := s.deps.Agents.Save(ctx, agent); err != nil {
		return nil, storeError("save agent", err)
	}
	s.logger.Info("agent created", zap.String("agent_id", string(id)))
	return agent, nil
}

func (s *AgentService) GetAgent(ctx context.Context, id entities.AgentID) (*dto.AgentView, error) {
	agent, err := s.deps.Agents.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find agent", err)
	}
	count, err := s.propertyCount(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.AgentView{Agent: agent, Properties: count}, nil
}

func (s *AgentService) ListAgents(ctx context.Context) ([]*dto.AgentView, error) {
	agents, err := s.deps.Agents.FindAll(ctx)
	if err != nil {
		return nil, storeError("list agents", err)
	}
	properties, err := s.deps.Properties.FindAll(ctx, repositories.PropertyFilter{})
	if err != nil {
		return nil, storeError("list properties", err)
	}
	counts := make(map[entities.AgentID]int)
	for _, p := range properties {
		if p.HasAgent() {
			counts[p.AgentID]++
		}
	}

	result := make([]*dto.AgentView, 0, len(agents))
	for _, a := range agents {
		result = append(result, &dto.AgentView{Agent: a, Properties: counts[a.ID]})
	}
	return result, nil
}

// DeleteAgent removes an agent. It fails with ErrAgentInUse while any
// property references the agent.
func (s *AgentService) DeleteAgent(ctx context.Context, id entities.AgentID) error {
	if _, err := s.deps.Agents.FindByID(ctx, id); err != nil {
		return storeError("find agent", err)
	}
	count, err := s.propertyCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s has %d properties", entities.ErrAgentInUse, id, count)
	}
	if err := s.deps.Agents.Delete(ctx, id); err != nil {
		return storeError("delete agent", err)
	}
	s.logger.Info("agent deleted", zap.String("agent_id", string(id)))
	return nil
}

// AgentProperties lists the properties an agent is responsible for
func (s *AgentService) AgentProperties(ctx context.Context, id entities.AgentID) ([]*dto.PropertyView, error) {
	if _, err := s.deps.Agents.FindByID(ctx, id); err != nil {
		return nil, storeError("find agent", err)
	}
	return s.properties.ListProperties(ctx, repositories.PropertyFilter{AgentID: id})
}

func (s *AgentService) propertyCount(ctx context.Context, id entities.AgentID) (int, error) {
	properties, err := s.deps.Properties.FindAll(ctx, repositories.PropertyFilter{AgentID: id})
	if err != nil {
		return 0, storeError("list properties", err)
	}
	return len(properties), nil
}
