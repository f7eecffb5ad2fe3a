// Package distance resolves road distances between two addresses.
package distance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownRoute is returned when a provider has no distance for the pair.
var ErrUnknownRoute = errors.New("unknown route")

// Provider returns the road distance in kilometres between origin and destination.
type Provider interface {
	DistanceKm(ctx context.Context, origin, destination string) (decimal.Decimal, error)
}

// Route is one configured distance entry.
type Route struct {
	Origin      string  `yaml:"origin"`
	Destination string  `yaml:"destination"`
	Km          float64 `yaml:"km"`
}

// StaticProvider answers from a fixed table. Lookups are symmetric and ignore case and surrounding spaces.
type StaticProvider struct {
	routes map[string]decimal.Decimal
}

// NewStaticProvider builds a provider from routes. Negative distances are rejected.
func NewStaticProvider(routes []Route) (*StaticProvider, error) {
	p := &StaticProvider{routes: make(map[string]decimal.Decimal, len(routes))}
	for i, r := range routes {
		if r.Km < 0 {
			return nil, fmt.Errorf("routes[%d]: distance must not be negative", i)
		}
		if normalize(r.Origin) == "" || normalize(r.Destination) == "" {
			return nil, fmt.Errorf("routes[%d]: origin and destination are required", i)
		}
		p.routes[key(r.Origin, r.Destination)] = decimal.NewFromFloat(r.Km)
	}
	return p, nil
}

// DistanceKm implements Provider.
func (p *StaticProvider) DistanceKm(ctx context.Context, origin, destination string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	if normalize(origin) == normalize(destination) && normalize(origin) != "" {
		return decimal.Zero, nil
	}
	km, ok := p.routes[key(origin, destination)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q → %q", ErrUnknownRoute, origin, destination)
	}
	return km, nil
}

func key(a, b string) string {
	a, b = normalize(a), normalize(b)
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
