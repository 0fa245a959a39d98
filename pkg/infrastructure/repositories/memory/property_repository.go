package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
	"github.com/copropiedad/ledger/pkg/domain/services"
)

// PropertyRepository provides in-memory property storage
type PropertyRepository struct {
	mu         sync.RWMutex
	properties map[entities.PropertyID]entities.Property
	order      []entities.PropertyID
	ledger     *services.ShareLedger
}

// NewPropertyRepository creates a new in-memory property repository
func NewPropertyRepository(ledger *services.ShareLedger) *PropertyRepository {
	return &PropertyRepository{
		properties: make(map[entities.PropertyID]entities.Property),
		order:      []entities.PropertyID{},
		ledger:     ledger,
	}
}

// Verify interface compliance
var _ repositories.PropertyRepository = (*PropertyRepository)(nil)

// Save stores a new property
func (r *PropertyRepository) Save(ctx context.Context, property *entities.Property) error {
	if err := r.ledger.CheckInvariants(property.ID, property.Shares, nil); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.properties[property.ID]; exists {
		return fmt.Errorf("duplicate property id: %s", property.ID)
	}
	r.properties[property.ID] = cloneProperty(property)
	r.order = append(r.order, property.ID)
	return nil
}

// Update replaces an existing property and its shares
func (r *PropertyRepository) Update(ctx context.Context, property *entities.Property) error {
	if err := r.ledger.CheckInvariants(property.ID, property.Shares, nil); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.properties[property.ID]; !exists {
		return fmt.Errorf("%w: %s", entities.ErrPropertyNotFound, property.ID)
	}
	r.properties[property.ID] = cloneProperty(property)
	return nil
}

// FindByID returns a property by id
func (r *PropertyRepository) FindByID(ctx context.Context, id entities.PropertyID) (*entities.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	property, exists := r.properties[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entities.ErrPropertyNotFound, id)
	}
	clone := cloneProperty(&property)
	return &clone, nil
}

// FindAll returns the properties matching filter, newest first
func (r *PropertyRepository) FindAll(ctx context.Context, filter repositories.PropertyFilter) ([]*entities.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entities.Property
	for _, id := range r.order {
		property := r.properties[id]
		if !filter.Matches(&property, r.ledger.ComputePropertyStatus(property.Shares)) {
			continue
		}
		clone := cloneProperty(&property)
		result = append(result, &clone)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Delete removes a property
func (r *PropertyRepository) Delete(ctx context.Context, id entities.PropertyID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.properties[id]; !exists {
		return fmt.Errorf("%w: %s", entities.ErrPropertyNotFound, id)
	}
	delete(r.properties, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func cloneProperty(p *entities.Property) entities.Property {
	clone := *p
	clone.Details.Features = append([]string(nil), p.Details.Features...)
	clone.Details.Amenities = append([]string(nil), p.Details.Amenities...)
	return clone
}
