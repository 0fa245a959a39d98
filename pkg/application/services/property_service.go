package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/copropiedad/ledger/pkg/application/dto"
	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
	domain "github.com/copropiedad/ledger/pkg/domain/services"
	"github.com/copropiedad/ledger/pkg/infrastructure/events"
)

// CreatePropertyInput describes a new property. ID is generated when empty
// and Commission defaults to 1% pending when nil.
type CreatePropertyInput struct {
	ID         entities.PropertyID
	Name       string
	Category   string
	Address    entities.Address
	Details    entities.Details
	TotalPrice entities.Money
	AgentID    entities.AgentID
	Commission *entities.Commission
}

// UpdatePropertyInput changes descriptive fields. Nil fields are left as they are.
type UpdatePropertyInput struct {
	Name     *string
	Category *string
	Address  *entities.Address
	Details  *entities.Details
	AgentID  *entities.AgentID
}

// PropertyService coordinates the share ledger with property persistence.
// Share computations are pure ledger calls; only the surrounding loads and
// saves can fail with a PersistenceError.
type PropertyService struct {
	deps        Deps
	commissions *domain.CommissionCalculator
	analyzer    *domain.PortfolioAnalyzer
	logger      *zap.Logger

	// serializes read-modify-write cycles on properties within the process
	mu sync.Mutex
}

// NewPropertyService creates a property service
func NewPropertyService(deps Deps) *PropertyService {
	deps = deps.withDefaults()
	commissions := domain.NewCommissionCalculator()
	return &PropertyService{
		deps:        deps,
		commissions: commissions,
		analyzer:    domain.NewPortfolioAnalyzer(deps.Ledger, commissions),
		logger:      deps.Logger.Named("properties"),
	}
}

// CreateProperty validates the input, splits the total price into four
// available shares and stores the property.
func (s *PropertyService) CreateProperty(ctx context.Context, in CreatePropertyInput) (*dto.PropertyView, error) {
	commission := entities.DefaultCommission()
	if in.Commission != nil {
		commission = *in.Commission
	}
	id := in.ID
	if id == "" {
		id = entities.PropertyID(s.deps.NewID())
	}

	property, err := entities.NewProperty(id, in.Name, in.TotalPrice, commission)
	if err != nil {
		return nil, err
	}
	property.Category = in.Category
	property.Address = in.Address
	property.Details = in.Details

	if in.AgentID != "" {
		if _, err := s.deps.Agents.FindByID(ctx, in.AgentID); err != nil {
			return nil, storeError("find agent", err)
		}
		property.AgentID = in.AgentID
	}

	property.Shares, err = s.deps.Ledger.InitializeShares(property.TotalPrice)
	if err != nil {
		return nil, err
	}
	now := s.deps.Now()
	property.CreatedAt = now
	property.UpdatedAt = now

	if err := s.deps.Properties.Save(ctx, property); err != nil {
		s.logger.Warn("failed to save property", zap.String("property_id", string(id)), zap.Error(err))
		return nil, storeError("save property", err)
	}

	s.logger.Info("property created",
		zap.String("property_id", string(id)),
		zap.String("name", property.Name),
		zap.Stringer("total_price", property.TotalPrice))
	recordEvent(s.deps, s.logger, events.NewPropertyCreatedEvent(property))

	return s.view(ctx, property)
}

// GetProperty returns a property with its share owners
func (s *PropertyService) GetProperty(ctx context.Context, id entities.PropertyID) (*dto.PropertyView, error) {
	property, err := s.deps.Properties.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find property", err)
	}
	return s.view(ctx, property)
}

// ListProperties returns the properties matching filter, newest first
func (s *PropertyService) ListProperties(ctx context.Context, filter repositories.PropertyFilter) ([]*dto.PropertyView, error) {
	properties, err := s.deps.Properties.FindAll(ctx, filter)
	if err != nil {
		return nil, storeError("list properties", err)
	}
	return s.views(ctx, properties)
}

// UpdateProperty changes the descriptive fields of a property
func (s *PropertyService) UpdateProperty(ctx context.Context, id entities.PropertyID, in UpdatePropertyInput) (*dto.PropertyView, error) {
	var fields []string
	return s.mutate(ctx, id, "update property", func(p *entities.Property) ([]events.Event, error) {
		if in.Name != nil {
			if *in.Name == "" {
				return nil, fmt.Errorf("property name cannot be empty")
			}
			p.Name = *in.Name
			fields = append(fields, "name")
		}
		if in.Category != nil {
			p.Category = *in.Category
			fields = append(fields, "category")
		}
		if in.Address != nil {
			p.Address = *in.Address
			fields = append(fields, "address")
		}
		if in.Details != nil {
			p.Details = *in.Details
			fields = append(fields, "details")
		}
		if in.AgentID != nil {
			if *in.AgentID != "" {
				if _, err := s.deps.Agents.FindByID(ctx, *in.AgentID); err != nil {
					return nil, storeError("find agent", err)
				}
			}
			p.AgentID = *in.AgentID
			fields = append(fields, "agent")
		}
		if len(fields) == 0 {
			return nil, nil
		}
		return []events.Event{events.NewPropertyUpdatedEvent(p.ID, fields)}, nil
	})
}

// DeleteProperty removes a property, its shares and every assignment on them
func (s *PropertyService) DeleteProperty(ctx context.Context, id entities.PropertyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, err := s.deps.Assignments.FindByProperty(ctx, id)
	if err != nil {
		return storeError("find assignments", err)
	}

	// The property goes first so a failure leaves every row in place. Leftover
	// assignments of a property that is already gone are removed on retry.
	err = s.deps.Properties.Delete(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, entities.ErrPropertyNotFound) && len(held) > 0:
		s.logger.Warn("removing assignments left by an interrupted delete",
			zap.String("property_id", string(id)), zap.Int("assignments", len(held)))
	default:
		return storeError("delete property", err)
	}
	if _, err := s.deps.Assignments.DeleteByProperty(ctx, id); err != nil {
		return storeError("delete assignments", err)
	}

	s.logger.Info("property deleted", zap.String("property_id", string(id)), zap.Int("removed_assignments", len(held)))
	recordEvent(s.deps, s.logger, events.NewPropertyDeletedEvent(id, len(held)))
	return nil
}

// SetShareStatus changes one share's status. Any transition is allowed and
// each one is recorded in the property's history.
func (s *PropertyService) SetShareStatus(ctx context.Context, id entities.PropertyID, number entities.ShareNumber, status entities.ShareStatus) (*dto.PropertyView, error) {
	return s.mutate(ctx, id, "set share status", func(p *entities.Property) ([]events.Event, error) {
		if err := number.Validate(); err != nil {
			return nil, err
		}
		old := p.Shares[number-1].Status

		shares, err := s.deps.Ledger.SetShareStatus(p.Shares, number, status)
		if err != nil {
			return nil, err
		}
		p.Shares = shares
		if old == status {
			return nil, nil
		}
		return []events.Event{events.NewShareStatusChangedEvent(p.ID, number, old, status,
			s.deps.Ledger.ComputePropertyStatus(shares))}, nil
	})
}

// SetSharePrice overrides the price of one share
func (s *PropertyService) SetSharePrice(ctx context.Context, id entities.PropertyID, number entities.ShareNumber, price entities.Money) (*dto.PropertyView, error) {
	return s.mutate(ctx, id, "set share price", func(p *entities.Property) ([]events.Event, error) {
		if err := number.Validate(); err != nil {
			return nil, err
		}
		old := p.Shares[number-1].Price

		shares, err := s.deps.Ledger.SetSharePrice(p.Shares, number, price)
		if err != nil {
			return nil, err
		}
		p.Shares = shares
		if old == price {
			return nil, nil
		}
		return []events.Event{events.NewSharePriceChangedEvent(p.ID, number, old, price)}, nil
	})
}

// ChangeTotalPrice sets a new total price. Share prices are only re-split
// when resplit is true, since that discards manual overrides.
func (s *PropertyService) ChangeTotalPrice(ctx context.Context, id entities.PropertyID, total entities.Money, resplit bool) (*dto.PropertyView, error) {
	return s.mutate(ctx, id, "change total price", func(p *entities.Property) ([]events.Event, error) {
		if total.IsNegative() {
			return nil, fmt.Errorf("%w: total price %s", entities.ErrNegativePrice, total)
		}
		p.TotalPrice = total
		evts := []events.Event{events.NewPropertyUpdatedEvent(p.ID, []string{"total_price"})}
		if !resplit {
			return evts, nil
		}

		before := p.Shares
		shares, err := s.deps.Ledger.UpdateAllSharePrices(p.Shares, total)
		if err != nil {
			return nil, err
		}
		p.Shares = shares
		return append(evts, events.NewSharePricesResetEvent(p.ID, total, before, shares)), nil
	})
}

// ResetSharePrices recomputes every share price from the current total price
func (s *PropertyService) ResetSharePrices(ctx context.Context, id entities.PropertyID) (*dto.PropertyView, error) {
	return s.mutate(ctx, id, "reset share prices", func(p *entities.Property) ([]events.Event, error) {
		before := p.Shares
		shares, err := s.deps.Ledger.UpdateAllSharePrices(p.Shares, p.TotalPrice)
		if err != nil {
			return nil, err
		}
		p.Shares = shares
		return []events.Event{events.NewSharePricesResetEvent(p.ID, p.TotalPrice, before, shares)}, nil
	})
}

// SetCommission changes the commission percentage, keeping its status
func (s *PropertyService) SetCommission(ctx context.Context, id entities.PropertyID, percentage decimal.Decimal) (*dto.PropertyView, error) {
	return s.updateCommission(ctx, id, func(c entities.Commission) (entities.Commission, error) {
		return s.commissions.SetPercentage(c, percentage)
	})
}

// SetCommissionStatus marks the commission pending or paid
func (s *PropertyService) SetCommissionStatus(ctx context.Context, id entities.PropertyID, status entities.CommissionStatus) (*dto.PropertyView, error) {
	return s.updateCommission(ctx, id, func(c entities.Commission) (entities.Commission, error) {
		return s.commissions.SetStatus(c, status)
	})
}

// ToggleCommissionStatus flips the commission between pending and paid
func (s *PropertyService) ToggleCommissionStatus(ctx context.Context, id entities.PropertyID) (*dto.PropertyView, error) {
	return s.updateCommission(ctx, id, s.commissions.Toggle)
}

func (s *PropertyService) updateCommission(
	ctx context.Context,
	id entities.PropertyID,
	change func(entities.Commission) (entities.Commission, error),
) (*dto.PropertyView, error) {
	return s.mutate(ctx, id, "update commission", func(p *entities.Property) ([]events.Event, error) {
		before := p.Commission
		after, err := change(before)
		if err != nil {
			return nil, err
		}
		p.Commission = after
		return []events.Event{events.NewCommissionUpdatedEvent(p.ID, before, after)}, nil
	})
}

// CommissionReport lists the commissions of properties with an agent
func (s *PropertyService) CommissionReport(ctx context.Context, filter repositories.PropertyFilter) (*dto.CommissionReport, error) {
	properties, err := s.deps.Properties.FindAll(ctx, filter)
	if err != nil {
		return nil, storeError("list properties", err)
	}
	agents, err := s.agentNames(ctx)
	if err != nil {
		return nil, err
	}

	report := &dto.CommissionReport{Lines: []dto.CommissionLine{}}
	for _, p := range properties {
		if !p.HasAgent() {
			continue
		}
		amount := s.commissions.PropertyAmount(p)
		report.Lines = append(report.Lines, dto.CommissionLine{
			PropertyID:   p.ID,
			PropertyName: p.Name,
			AgentID:      p.AgentID,
			AgentName:    agents[p.AgentID],
			TotalPrice:   p.TotalPrice,
			Commission:   p.Commission,
			Amount:       amount,
		})
		if p.Commission.Status == entities.CommissionPaid {
			report.TotalPaid += amount
		} else {
			report.TotalPending += amount
		}
	}
	return report, nil
}

// PortfolioSummary computes share and commission statistics over every property
func (s *PropertyService) PortfolioSummary(ctx context.Context) (*dto.PortfolioSummary, error) {
	properties, err := s.deps.Properties.FindAll(ctx, repositories.PropertyFilter{})
	if err != nil {
		return nil, storeError("list properties", err)
	}
	owners, err := s.deps.Owners.FindAll(ctx)
	if err != nil {
		return nil, storeError("list owners", err)
	}
	agents, err := s.deps.Agents.FindAll(ctx)
	if err != nil {
		return nil, storeError("list agents", err)
	}
	assignments, err := s.deps.Assignments.FindAll(ctx)
	if err != nil {
		return nil, storeError("list assignments", err)
	}

	return &dto.PortfolioSummary{
		PortfolioStats: s.analyzer.Analyze(properties),
		Owners:         len(owners),
		Agents:         len(agents),
		Assignments:    len(assignments),
	}, nil
}

// History returns the recorded events of a property, oldest first. The
// history of a deleted property remains readable.
func (s *PropertyService) History(ctx context.Context, id entities.PropertyID) ([]events.Event, error) {
	if s.deps.Events == nil {
		return []events.Event{}, nil
	}
	history, err := s.deps.Events.ReadEvents(string(id), 1)
	if err != nil {
		return nil, storeError("read history", err)
	}
	return history, nil
}

// mutate loads a property, applies change and saves the result together with
// its recomputed aggregate status. Events returned by change are recorded
// after a successful save.
func (s *PropertyService) mutate(
	ctx context.Context,
	id entities.PropertyID,
	op string,
	change func(*entities.Property) ([]events.Event, error),
) (*dto.PropertyView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	property, err := s.deps.PropertyStore.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find property", err)
	}

	evts, err := change(property)
	if err != nil {
		return nil, err
	}
	property.UpdatedAt = s.deps.Now()

	if err := s.deps.Properties.Update(ctx, property); err != nil {
		s.logger.Warn("failed to save property",
			zap.String("op", op),
			zap.String("property_id", string(id)),
			zap.Error(err))
		return nil, storeError(op, err)
	}

	s.logger.Info(op,
		zap.String("property_id", string(id)),
		zap.Stringer("status", s.deps.Ledger.ComputePropertyStatus(property.Shares)))
	for _, e := range evts {
		recordEvent(s.deps, s.logger, e)
	}
	return s.view(ctx, property)
}

func (s *PropertyService) view(ctx context.Context, property *entities.Property) (*dto.PropertyView, error) {
	views, err := s.views(ctx, []*entities.Property{property})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *PropertyService) views(ctx context.Context, properties []*entities.Property) ([]*dto.PropertyView, error) {
	result := make([]*dto.PropertyView, 0, len(properties))
	if len(properties) == 0 {
		return result, nil
	}

	assignments, err := s.deps.Assignments.FindAll(ctx)
	if err != nil {
		return nil, storeError("list assignments", err)
	}
	holders := make(map[entities.ShareKey]entities.OwnerID, len(assignments))
	for _, a := range assignments {
		holders[a.Key()] = a.OwnerID
	}

	owners, err := s.deps.Owners.FindAll(ctx)
	if err != nil {
		return nil, storeError("list owners", err)
	}
	ownerNames := make(map[entities.OwnerID]string, len(owners))
	for _, o := range owners {
		ownerNames[o.ID] = o.FullName()
	}

	agentNames, err := s.agentNames(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range properties {
		v := &dto.PropertyView{
			Property:         p,
			Status:           s.deps.Ledger.ComputePropertyStatus(p.Shares),
			AgentName:        agentNames[p.AgentID],
			CommissionAmount: s.commissions.PropertyAmount(p),
			Shares:           make([]dto.ShareView, 0, entities.SharesPerProperty),
		}
		for _, share := range p.Shares {
			owner := holders[entities.ShareKey{PropertyID: p.ID, ShareNumber: share.Number}]
			v.Shares = append(v.Shares, dto.ShareView{
				Number:    share.Number,
				Period:    share.Period(),
				Status:    share.Status,
				Price:     share.Price,
				OwnerID:   owner,
				OwnerName: ownerNames[owner],
			})
		}
		result = append(result, v)
	}
	return result, nil
}

func (s *PropertyService) agentNames(ctx context.Context) (map[entities.AgentID]string, error) {
	agents, err := s.deps.Agents.FindAll(ctx)
	if err != nil {
		return nil, storeError("list agents", err)
	}
	names := make(map[entities.AgentID]string, len(agents))
	for _, a := range agents {
		names[a.ID] = a.Name
	}
	return names, nil
}
