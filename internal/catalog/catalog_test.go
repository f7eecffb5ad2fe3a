package catalog

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/move-estimator/internal/policy"
)

func intPtr(v int) *int { return &v }

func fixture() []policy.Furniture {
	return []policy.Furniture{
		{ID: "sofa", SensorClass: intPtr(4), WidthCm: 210, DepthCm: 90, HeightCm: 85, PaddingCm: 2, Rotations: []string{"WDH", "DWH"}},
		{ID: "box", WidthCm: 48, DepthCm: 38, HeightCm: 34, PaddingCm: 1, Stackable: true},
		{ID: "fridge", SensorClass: intPtr(10), WidthCm: 90, DepthCm: 90, HeightCm: 180, NeedsDisassembly: true},
	}
}

func TestCacheLoadsOnceUntilInvalidated(t *testing.T) {
	t.Parallel()

	var loads atomic.Int32
	cache := New(func() ([]policy.Furniture, error) {
		loads.Add(1)
		return fixture(), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Furniture("sofa"); err != nil {
				t.Errorf("Furniture returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Fatalf("expected a single load, got %d", got)
	}

	cache.Invalidate()
	if _, err := cache.BySensorClass(10); err != nil {
		t.Fatalf("BySensorClass returned error: %v", err)
	}
	if got := loads.Load(); got != 2 {
		t.Fatalf("expected reload after invalidate, got %d loads", got)
	}
}

func TestCacheForSnapshot(t *testing.T) {
	t.Parallel()

	loaded := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	old := &policy.Snapshot{Version: "old", Furniture: fixture(), LoadedAt: loaded}
	next := &policy.Snapshot{Version: "next", Furniture: fixture()[:1], LoadedAt: loaded.Add(time.Minute)}

	var loads atomic.Int32
	cache := New(func() ([]policy.Furniture, error) {
		loads.Add(1)
		return nil, nil
	})

	first := cache.For(old)
	if cache.For(old) != first {
		t.Fatalf("expected the cached view to be reused for the same snapshot")
	}
	if _, err := first.Furniture("fridge"); err != nil {
		t.Fatalf("expected fridge in old catalog: %v", err)
	}

	view := cache.For(next)
	if _, err := view.Furniture("fridge"); !errors.Is(err, ErrUnknownFurniture) {
		t.Fatalf("expected fridge to be unknown in next catalog, got %v", err)
	}

	// An in-flight request still on the old snapshot resolves against it
	// without displacing the newer cached view.
	stale := cache.For(old)
	if _, err := stale.Furniture("fridge"); err != nil {
		t.Fatalf("expected old snapshot view to keep fridge: %v", err)
	}
	if _, err := cache.Furniture("fridge"); !errors.Is(err, ErrUnknownFurniture) {
		t.Fatalf("expected cache to keep the newer view, got %v", err)
	}
	if got := loads.Load(); got != 0 {
		t.Fatalf("expected snapshot views to bypass the loader, got %d loads", got)
	}
}

func TestCacheLookups(t *testing.T) {
	t.Parallel()

	cache := New(func() ([]policy.Furniture, error) { return fixture(), nil })

	f, err := cache.BySensorClass(4)
	if err != nil || f.ID != "sofa" {
		t.Fatalf("expected sofa for class 4, got %+v (%v)", f, err)
	}

	class, err := cache.SensorClass("fridge")
	if err != nil || class != 10 {
		t.Fatalf("expected class 10, got %d (%v)", class, err)
	}

	if _, err := cache.SensorClass("box"); !errors.Is(err, ErrUnknownFurniture) {
		t.Fatalf("expected ErrUnknownFurniture for unmapped row, got %v", err)
	}
	if _, err := cache.Furniture("piano"); !errors.Is(err, ErrUnknownFurniture) {
		t.Fatalf("expected ErrUnknownFurniture, got %v", err)
	}
	if _, err := cache.BySensorClass(99); !errors.Is(err, ErrUnknownFurniture) {
		t.Fatalf("expected ErrUnknownFurniture, got %v", err)
	}

	list, err := cache.List()
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 3 || list[0].ID != "box" || list[2].ID != "sofa" {
		t.Fatalf("expected id-ordered list, got %+v", list)
	}
}

func TestCacheLoaderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	cache := New(func() ([]policy.Furniture, error) { return nil, boom })

	if _, err := cache.Furniture("sofa"); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
}

func TestBuildItem(t *testing.T) {
	t.Parallel()

	sofa := fixture()[0]

	item := BuildItem(sofa, Dimensions{WidthCm: decimal.NewFromInt(200)}, nil)
	if !item.WidthCm.Equal(decimal.NewFromInt(204)) {
		t.Fatalf("expected measured width plus padding, got %s", item.WidthCm)
	}
	if !item.DepthCm.Equal(decimal.NewFromInt(94)) || !item.HeightCm.Equal(decimal.NewFromInt(89)) {
		t.Fatalf("expected catalog defaults plus padding, got %s×%s", item.DepthCm, item.HeightCm)
	}
	if len(item.Rotations) != 2 || item.FurnitureID != "sofa" {
		t.Fatalf("unexpected item %+v", item)
	}

	fridge := fixture()[2]
	if !BuildItem(fridge, Dimensions{}, nil).NeedsDisassembly {
		t.Fatal("expected catalog disassembly default")
	}
	no := false
	if BuildItem(fridge, Dimensions{}, &no).NeedsDisassembly {
		t.Fatal("explicit needs_disassembly must override the catalog")
	}
}
