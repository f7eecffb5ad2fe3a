// Package catalog provides a read-through cache over the furniture catalog.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/move-estimator/internal/planner"
	"github.com/eugenenazirov/move-estimator/internal/policy"
)

// ErrUnknownFurniture is returned when an id or sensor class is not in the catalog.
var ErrUnknownFurniture = errors.New("unknown furniture")

// Loader returns the full furniture catalog.
type Loader func() ([]policy.Furniture, error)

// View is one immutable furniture catalog, indexed by id and sensor class.
type View struct {
	src      *policy.Snapshot
	byID     map[string]policy.Furniture
	bySensor map[int]string
	ordered  []policy.Furniture
}

func newView(rows []policy.Furniture, src *policy.Snapshot) *View {
	v := &View{
		src:      src,
		byID:     make(map[string]policy.Furniture, len(rows)),
		bySensor: make(map[int]string, len(rows)),
		ordered:  append([]policy.Furniture(nil), rows...),
	}
	for _, f := range rows {
		v.byID[f.ID] = f
		if f.SensorClass != nil {
			v.bySensor[*f.SensorClass] = f.ID
		}
	}
	sort.Slice(v.ordered, func(i, j int) bool { return v.ordered[i].ID < v.ordered[j].ID })
	return v
}

// Furniture returns the catalog row for id.
func (v *View) Furniture(id string) (policy.Furniture, error) {
	f, ok := v.byID[id]
	if !ok {
		return policy.Furniture{}, fmt.Errorf("%w: id %q", ErrUnknownFurniture, id)
	}
	return f, nil
}

// BySensorClass resolves a detector class id to its catalog row.
func (v *View) BySensorClass(class int) (policy.Furniture, error) {
	id, ok := v.bySensor[class]
	if !ok {
		return policy.Furniture{}, fmt.Errorf("%w: sensor class %d", ErrUnknownFurniture, class)
	}
	return v.byID[id], nil
}

// SensorClass returns the detector class id mapped to a furniture id.
func (v *View) SensorClass(id string) (int, error) {
	f, err := v.Furniture(id)
	if err != nil {
		return 0, err
	}
	if f.SensorClass == nil {
		return 0, fmt.Errorf("%w: %q has no sensor class", ErrUnknownFurniture, id)
	}
	return *f.SensorClass, nil
}

// List returns the catalog ordered by id.
func (v *View) List() []policy.Furniture {
	return append([]policy.Furniture(nil), v.ordered...)
}

// Cache loads the catalog on first use and keeps it until Invalidate is called.
type Cache struct {
	load Loader

	mu   sync.RWMutex
	view *View
}

// New creates a cache backed by load.
func New(load Loader) *Cache {
	return &Cache{load: load}
}

// Invalidate drops the cached catalog; the next lookup reloads it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.view = nil
	c.mu.Unlock()
}

// For returns the catalog of snap. The cached view is reused when it was built
// from snap, and replaced when snap is at least as new as the cached source.
// Older snapshots get a view of their own that is not cached.
func (c *Cache) For(snap *policy.Snapshot) *View {
	c.mu.RLock()
	cached := c.view
	c.mu.RUnlock()
	if cached != nil && cached.src == snap {
		return cached
	}

	v := newView(snap.FurnitureList(), snap)

	c.mu.Lock()
	if c.view == nil || c.view.src == nil || !snap.LoadedAt.Before(c.view.src.LoadedAt) {
		c.view = v
	}
	c.mu.Unlock()
	return v
}

// Furniture returns the catalog row for id.
func (c *Cache) Furniture(id string) (policy.Furniture, error) {
	v, err := c.current()
	if err != nil {
		return policy.Furniture{}, err
	}
	return v.Furniture(id)
}

// BySensorClass resolves a detector class id to its catalog row.
func (c *Cache) BySensorClass(class int) (policy.Furniture, error) {
	v, err := c.current()
	if err != nil {
		return policy.Furniture{}, err
	}
	return v.BySensorClass(class)
}

// SensorClass returns the detector class id mapped to a furniture id.
func (c *Cache) SensorClass(id string) (int, error) {
	v, err := c.current()
	if err != nil {
		return 0, err
	}
	return v.SensorClass(id)
}

// List returns the catalog ordered by id.
func (c *Cache) List() ([]policy.Furniture, error) {
	v, err := c.current()
	if err != nil {
		return nil, err
	}
	return v.List(), nil
}

func (c *Cache) current() (*View, error) {
	c.mu.RLock()
	v := c.view
	c.mu.RUnlock()
	if v != nil {
		return v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != nil {
		return c.view, nil
	}

	rows, err := c.load()
	if err != nil {
		return nil, fmt.Errorf("load furniture catalog: %w", err)
	}
	c.view = newView(rows, nil)
	return c.view, nil
}

// Dimensions are measured raw sizes in centimetres. Zero fields fall back to catalog defaults.
type Dimensions struct {
	WidthCm  decimal.Decimal
	DepthCm  decimal.Decimal
	HeightCm decimal.Decimal
}

// BuildItem turns a catalog row and optional measurements into a planner item.
// Packed dimensions are raw dimensions plus padding on both sides.
func BuildItem(f policy.Furniture, raw Dimensions, needsDisassembly *bool) planner.Item {
	pad := f.Padding().Mul(decimal.NewFromInt(2))
	pick := func(measured decimal.Decimal, fallback int) decimal.Decimal {
		if measured.IsPositive() {
			return measured.Add(pad)
		}
		return decimal.NewFromInt(int64(fallback)).Add(pad)
	}

	disassembly := f.NeedsDisassembly
	if needsDisassembly != nil {
		disassembly = *needsDisassembly
	}

	return planner.Item{
		FurnitureID:      f.ID,
		WidthCm:          pick(raw.WidthCm, f.WidthCm),
		DepthCm:          pick(raw.DepthCm, f.DepthCm),
		HeightCm:         pick(raw.HeightCm, f.HeightCm),
		Stackable:        f.Stackable,
		CanStackOnTop:    f.CanStackOnTop,
		Rotations:        append([]string(nil), f.Rotations...),
		NeedsDisassembly: disassembly,
	}
}
