package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/copropiedad/ledger/pkg/application/dto"
	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/infrastructure/repositories/csv"
)

// ImportFiles names the CSV files of an import. Empty names are skipped.
type ImportFiles struct {
	Agents      string
	Owners      string
	Properties  string
	Assignments string
}

// ImportService loads CSV exports through the regular services, so every
// imported record passes the same validation as one created by hand.
type ImportService struct {
	loader     *csv.Loader
	properties *PropertyService
	owners     *OwnerService
	agents     *AgentService
	logger     *zap.Logger
}

// NewImportService creates an import service
func NewImportService(properties *PropertyService, owners *OwnerService, agents *AgentService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		loader:     csv.NewLoader(),
		properties: properties,
		owners:     owners,
		agents:     agents,
		logger:     logger.Named("import"),
	}
}

// Import loads agents, owners, properties and assignments in that order, so
// later files may reference ids from earlier ones. It stops at the first
// failing record; records created before it are kept.
func (s *ImportService) Import(ctx context.Context, files ImportFiles) (*dto.ImportResult, error) {
	result := &dto.ImportResult{}

	if files.Agents != "" {
		agents, err := s.loader.LoadAgents(files.Agents)
		if err != nil {
			return result, err
		}
		for i, a := range agents {
			_, err := s.agents.CreateAgent(ctx, CreateAgentInput{
				ID: a.ID, Name: a.Name, Email: a.Email, Phone: a.Phone, License: a.License,
			})
			if err != nil {
				return result, fmt.Errorf("agents CSV row %d: %w", i+2, err)
			}
			result.Agents++
		}
	}

	if files.Owners != "" {
		owners, err := s.loader.LoadOwners(files.Owners)
		if err != nil {
			return result, err
		}
		for i, o := range owners {
			_, err := s.owners.CreateOwner(ctx, CreateOwnerInput{
				ID: o.ID, FirstName: o.FirstName, LastNames: o.LastNames, Email: o.Email,
				Phone: o.Phone, NationalID: o.NationalID, Address: o.Address,
			})
			if err != nil {
				return result, fmt.Errorf("owners CSV row %d: %w", i+2, err)
			}
			result.Owners++
		}
	}

	if files.Properties != "" {
		properties, err := s.loader.LoadProperties(files.Properties)
		if err != nil {
			return result, err
		}
		for i, p := range properties {
			commission := p.Commission
			_, err := s.properties.CreateProperty(ctx, CreatePropertyInput{
				ID: p.ID, Name: p.Name, Category: p.Category, Address: p.Address, Details: p.Details,
				TotalPrice: p.TotalPrice, AgentID: p.AgentID, Commission: &commission,
			})
			if err != nil {
				return result, fmt.Errorf("properties CSV row %d: %w", i+2, err)
			}
			result.Properties++
		}
	}

	if files.Assignments != "" {
		assignments, err := s.loader.LoadAssignments(files.Assignments)
		if err != nil {
			return result, err
		}
		for i, a := range assignments {
			var price *entities.Money
			if a.PurchasePrice >= 0 {
				p := a.PurchasePrice
				price = &p
			}
			if _, err := s.owners.AssignShare(ctx, a.OwnerID, a.PropertyID, a.ShareNumber, price); err != nil {
				return result, fmt.Errorf("assignments CSV row %d: %w", i+2, err)
			}
			result.Assignments++
		}
	}

	s.logger.Info("import finished",
		zap.Int("agents", result.Agents),
		zap.Int("owners", result.Owners),
		zap.Int("properties", result.Properties),
		zap.Int("assignments", result.Assignments))
	return result, nil
}
