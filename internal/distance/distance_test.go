package distance

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestStaticProvider(t *testing.T) {
	t.Parallel()

	p, err := NewStaticProvider([]Route{{Origin: "Seoul", Destination: "Incheon", Km: 35.5}})
	if err != nil {
		t.Fatalf("NewStaticProvider returned error: %v", err)
	}

	tests := []struct {
		name        string
		origin      string
		destination string
		want        string
		wantErr     error
	}{
		{name: "Forward", origin: "Seoul", destination: "Incheon", want: "35.5"},
		{name: "Symmetric", origin: " incheon ", destination: "SEOUL", want: "35.5"},
		{name: "SamePlace", origin: "Seoul", destination: "seoul", want: "0"},
		{name: "Unknown", origin: "Seoul", destination: "Busan", wantErr: ErrUnknownRoute},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := p.DistanceKm(context.Background(), tt.origin, tt.destination)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DistanceKm returned error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("expected %s km, got %s", tt.want, got)
			}
		})
	}
}

func TestStaticProviderRejectsBadRoutes(t *testing.T) {
	t.Parallel()

	if _, err := NewStaticProvider([]Route{{Origin: "a", Destination: "b", Km: -1}}); err == nil {
		t.Fatal("expected error for negative distance")
	}
	if _, err := NewStaticProvider([]Route{{Origin: "a", Km: 3}}); err == nil {
		t.Fatal("expected error for missing destination")
	}
}

func TestStaticProviderHonoursContext(t *testing.T) {
	t.Parallel()

	p, _ := NewStaticProvider(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.DistanceKm(ctx, "a", "b"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
