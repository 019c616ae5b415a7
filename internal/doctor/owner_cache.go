package doctor

import (
	"context"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Lookup loads doctors by id.
type Lookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
}

// OwnerCache resolves the owning user of a doctor. Ownership never changes once
// a doctor is registered, so entries are never invalidated.
type OwnerCache struct {
	lookup Lookup
	cache  *lru.Cache[uuid.UUID, uuid.UUID]
}

func NewOwnerCache(lookup Lookup, size int) (*OwnerCache, error) {
	if size < 1 {
		size = 1
	}
	c, err := lru.New[uuid.UUID, uuid.UUID](size)
	if err != nil {
		return nil, err
	}
	return &OwnerCache{lookup: lookup, cache: c}, nil
}

func (c *OwnerCache) OwnerOf(ctx context.Context, doctorID uuid.UUID) (uuid.UUID, error) {
	if owner, ok := c.cache.Get(doctorID); ok {
		return owner, nil
	}

	d, err := c.lookup.GetByID(ctx, doctorID)
	if err != nil {
		return uuid.Nil, err
	}

	c.cache.Add(doctorID, d.OwnerUserID)
	return d.OwnerUserID, nil
}
