package repositories

import (
	"context"
	"strings"

	"github.com/copropiedad/ledger/pkg/domain/entities"
)

// PropertyFilter narrows a property listing. Zero values match everything.
type PropertyFilter struct {
	Status     *entities.PropertyStatus
	Category   string
	AgentID    entities.AgentID
	MinPrice   *entities.Money
	MaxPrice   *entities.Money
	SearchTerm string
}

// Matches reports whether a property with the given aggregate status passes the filter
func (f PropertyFilter) Matches(p *entities.Property, status entities.PropertyStatus) bool {
	if f.Status != nil && *f.Status != status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, p.Category) {
		return false
	}
	if f.AgentID != "" && f.AgentID != p.AgentID {
		return false
	}
	if f.MinPrice != nil && p.TotalPrice < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.TotalPrice > *f.MaxPrice {
		return false
	}
	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		haystack := strings.ToLower(p.Name + " " + p.Address.Street + " " + p.Address.City)
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// PropertyRepository provides access to properties and their four shares.
// Implementations write the property row, its shares and the derived
// aggregate status atomically.
type PropertyRepository interface {
	Save(ctx context.Context, property *entities.Property) error
	Update(ctx context.Context, property *entities.Property) error
	FindByID(ctx context.Context, id entities.PropertyID) (*entities.Property, error)
	FindAll(ctx context.Context, filter PropertyFilter) ([]*entities.Property, error)
	Delete(ctx context.Context, id entities.PropertyID) error
}
