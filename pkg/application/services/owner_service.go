package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/copropiedad/ledger/pkg/application/dto"
	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/infrastructure/events"
)

// CreateOwnerInput describes a new owner. ID is generated when empty.
type CreateOwnerInput struct {
	ID         entities.OwnerID
	FirstName  string
	LastNames  string
	Email      string
	Phone      string
	NationalID string
	Address    entities.Address
	BirthDate  string
	Occupation string
	Notes      string
}

// OwnerService manages owners and the shares they hold
type OwnerService struct {
	deps   Deps
	logger *zap.Logger
}

// NewOwnerService creates an owner service
func NewOwnerService(deps Deps) *OwnerService {
	deps = deps.withDefaults()
	return &OwnerService{deps: deps, logger: deps.Logger.Named("owners")}
}

func (s *OwnerService) CreateOwner(ctx context.Context, in CreateOwnerInput) (*dto.OwnerView, error) {
	id := in.ID
	if id == "" {
		id = entities.OwnerID(s.deps.NewID())
	}
	owner, err := entities.NewOwner(id, in.FirstName, in.LastNames, in.Email)
	if err != nil {
		return nil, err
	}
	owner.Phone = in.Phone
	owner.NationalID = in.NationalID
	owner.Address = in.Address
	owner.BirthDate = in.BirthDate
	owner.Occupation = in.Occupation
	owner.Notes = in.Notes
	owner.CreatedAt = s.deps.Now()

	if err := s.deps.Owners.Save(ctx, owner); err != nil {
		return nil, storeError("save owner", err)
	}
	s.logger.Info("owner created", zap.String("owner_id", string(id)))
	return &dto.OwnerView{Owner: owner, Shares: []dto.AssignmentView{}}, nil
}

// GetOwner returns an owner and the shares they hold
func (s *OwnerService) GetOwner(ctx context.Context, id entities.OwnerID) (*dto.OwnerView, error) {
	owner, err := s.deps.Owners.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find owner", err)
	}
	assignments, err := s.deps.Assignments.FindByOwner(ctx, id)
	if err != nil {
		return nil, storeError("find assignments", err)
	}
	return s.view(ctx, owner, assignments)
}

func (s *OwnerService) ListOwners(ctx context.Context) ([]*dto.OwnerView, error) {
	owners, err := s.deps.Owners.FindAll(ctx)
	if err != nil {
		return nil, storeError("list owners", err)
	}
	assignments, err := s.deps.Assignments.FindAll(ctx)
	if err != nil {
		return nil, storeError("list assignments", err)
	}
	byOwner := make(map[entities.OwnerID][]entities.ShareAssignment)
	for _, a := range assignments {
		byOwner[a.OwnerID] = append(byOwner[a.OwnerID], a)
	}

	result := make([]*dto.OwnerView, 0, len(owners))
	for _, owner := range owners {
		v, err := s.view(ctx, owner, byOwner[owner.ID])
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// DeleteOwner clears the owner's assignments explicitly, then removes the owner
func (s *OwnerService) DeleteOwner(ctx context.Context, id entities.OwnerID) error {
	if _, err := s.deps.Owners.FindByID(ctx, id); err != nil {
		return storeError("find owner", err)
	}
	if _, err := s.ClearAssignment(ctx, id); err != nil {
		return err
	}
	if err := s.deps.Owners.Delete(ctx, id); err != nil {
		return storeError("delete owner", err)
	}
	s.logger.Info("owner deleted", zap.String("owner_id", string(id)))
	return nil
}

// AssignShare gives an owner a share of a property. It fails with
// ErrShareAlreadyAssigned when another owner holds the share; assigning the
// same owner again only updates the purchase price. The purchase price
// defaults to the share's current price.
func (s *OwnerService) AssignShare(
	ctx context.Context,
	ownerID entities.OwnerID,
	propertyID entities.PropertyID,
	number entities.ShareNumber,
	purchasePrice *entities.Money,
) (*entities.ShareAssignment, error) {
	if err := number.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.deps.Owners.FindByID(ctx, ownerID); err != nil {
		return nil, storeError("find owner", err)
	}
	property, err := s.deps.PropertyStore.FindByID(ctx, propertyID)
	if err != nil {
		return nil, storeError("find property", err)
	}

	price := property.Shares[number-1].Price
	if purchasePrice != nil {
		price = *purchasePrice
	}

	assignment, err := s.deps.Assignments.Assign(ctx, entities.ShareAssignment{
		OwnerID:       ownerID,
		PropertyID:    propertyID,
		ShareNumber:   number,
		PurchasePrice: price,
	})
	if err != nil {
		s.logger.Warn("share assignment rejected",
			zap.String("owner_id", string(ownerID)),
			zap.String("property_id", string(propertyID)),
			zap.Int("share", int(number)),
			zap.Error(err))
		return nil, storeError("assign share", err)
	}

	s.logger.Info("share assigned",
		zap.String("owner_id", string(ownerID)),
		zap.String("property_id", string(propertyID)),
		zap.Int("share", int(number)))
	recordEvent(s.deps, s.logger, events.NewOwnerAssignedEvent(*assignment))
	return assignment, nil
}

// ClearAssignment removes every share the owner holds and reports how many were removed
func (s *OwnerService) ClearAssignment(ctx context.Context, ownerID entities.OwnerID) (int, error) {
	removed, err := s.deps.Assignments.ClearOwner(ctx, ownerID)
	if err != nil {
		return 0, storeError("clear assignments", err)
	}
	if removed > 0 {
		s.logger.Info("owner assignments cleared", zap.String("owner_id", string(ownerID)), zap.Int("removed", removed))
		recordEvent(s.deps, s.logger, events.NewOwnerAssignmentClearedEvent(ownerID, removed))
	}
	return removed, nil
}

func (s *OwnerService) view(ctx context.Context, owner *entities.Owner, assignments []entities.ShareAssignment) (*dto.OwnerView, error) {
	v := &dto.OwnerView{Owner: owner, Shares: make([]dto.AssignmentView, 0, len(assignments))}
	for _, a := range assignments {
		name := ""
		if property, err := s.deps.Properties.FindByID(ctx, a.PropertyID); err == nil {
			name = property.Name
		} else if !isNotFound(err) {
			return nil, storeError("find property", err)
		}
		v.Shares = append(v.Shares, dto.AssignmentView{
			Assignment:   a,
			PropertyName: name,
			Period:       a.ShareNumber.Period(),
		})
	}
	return v, nil
}
