// Package cache provides a read-through cache in front of a property
// repository. Lookups by id hit a local ccache first and, when configured,
// a shared memcached tier so separate copro processes reuse each other's reads.
//
// Cached entries may trail the store by up to the TTL. Callers that modify a
// property read it from the store underneath, never from here.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/karlseguin/ccache/v3"
	"go.uber.org/zap"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/repositories"
)

const keyPrefix = "copro:property:"

// Options configures the cache tiers
type Options struct {
	MaxSize   int64
	TTL       time.Duration
	Memcached string // host:port, empty disables the shared tier
	// Namespace identifies the backing store in shared keys, so stores that
	// reuse property ids never see each other's entries
	Namespace string
}

// StoreNamespace derives a short key namespace from a backend name and the
// location of its data
func StoreNamespace(backend, location string) string {
	sum := sha256.Sum256([]byte(backend + "\x00" + location))
	return hex.EncodeToString(sum[:8])
}

// PropertyRepository decorates a PropertyRepository with caching of FindByID.
// Writes go to the wrapped repository first and then evict the entry.
type PropertyRepository struct {
	next   repositories.PropertyRepository
	local  *ccache.Cache[entities.Property]
	remote *memcache.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// Verify interface compliance
var _ repositories.PropertyRepository = (*PropertyRepository)(nil)

// NewPropertyRepository wraps next
func NewPropertyRepository(next repositories.PropertyRepository, opts Options, logger *zap.Logger) *PropertyRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 1000
	}
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}

	r := &PropertyRepository{
		next:   next,
		local:  ccache.New(ccache.Configure[entities.Property]().MaxSize(opts.MaxSize)),
		prefix: keyPrefix + opts.Namespace + ":",
		ttl:    opts.TTL,
		logger: logger,
	}
	if opts.Memcached != "" {
		r.remote = memcache.New(opts.Memcached)
		r.remote.Timeout = 200 * time.Millisecond
	}
	return r
}

// Save stores a new property
func (r *PropertyRepository) Save(ctx context.Context, property *entities.Property) error {
	if err := r.next.Save(ctx, property); err != nil {
		return err
	}
	r.evict(property.ID)
	return nil
}

// Update replaces a property and evicts the cached copy
func (r *PropertyRepository) Update(ctx context.Context, property *entities.Property) error {
	if err := r.next.Update(ctx, property); err != nil {
		return err
	}
	r.evict(property.ID)
	return nil
}

// FindByID returns a property, reading through both cache tiers
func (r *PropertyRepository) FindByID(ctx context.Context, id entities.PropertyID) (*entities.Property, error) {
	key := r.key(id)

	if item := r.local.Get(key); item != nil && !item.Expired() {
		r.logger.Debug("property cache hit", zap.String("id", string(id)), zap.String("tier", "local"))
		return clone(item.Value()), nil
	}

	if p, ok := r.getRemote(key); ok {
		r.logger.Debug("property cache hit", zap.String("id", string(id)), zap.String("tier", "memcached"))
		r.local.Set(key, *p, r.ttl)
		return clone(*p), nil
	}

	p, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.local.Set(key, *clone(*p), r.ttl)
	r.setRemote(key, p)
	return p, nil
}

// FindAll is not cached; filters vary too much to key on
func (r *PropertyRepository) FindAll(ctx context.Context, filter repositories.PropertyFilter) ([]*entities.Property, error) {
	return r.next.FindAll(ctx, filter)
}

// Delete removes a property and evicts the cached copy
func (r *PropertyRepository) Delete(ctx context.Context, id entities.PropertyID) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(id)
	return nil
}

// Close stops the local cache's background worker
func (r *PropertyRepository) Close() error {
	r.local.Stop()
	return nil
}

func (r *PropertyRepository) key(id entities.PropertyID) string {
	return r.prefix + string(id)
}

func (r *PropertyRepository) evict(id entities.PropertyID) {
	key := r.key(id)
	r.local.Delete(key)
	if r.remote == nil {
		return
	}
	if err := r.remote.Delete(key); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		r.logger.Warn("memcached delete failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *PropertyRepository) getRemote(key string) (*entities.Property, bool) {
	if r.remote == nil {
		return nil, false
	}
	item, err := r.remote.Get(key)
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			r.logger.Warn("memcached get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var p entities.Property
	if err := json.Unmarshal(item.Value, &p); err != nil {
		r.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &p, true
}

func (r *PropertyRepository) setRemote(key string, p *entities.Property) {
	if r.remote == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Warn("failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	err = r.remote.Set(&memcache.Item{Key: key, Value: data, Expiration: int32(r.ttl / time.Second)})
	if err != nil {
		r.logger.Warn("memcached set failed", zap.String("key", key), zap.Error(err))
	}
}

func clone(p entities.Property) *entities.Property {
	c := p
	c.Details.Features = append([]string(nil), p.Details.Features...)
	c.Details.Amenities = append([]string(nil), p.Details.Amenities...)
	return &c
}
