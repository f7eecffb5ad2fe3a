package api

import (
	"strings"
	"testing"
)

func TestRequestValidatorMessages(t *testing.T) {
	t.Parallel()

	valid := func() estimateRequest {
		return estimateRequest{
			Area:     5,
			MoveType: "GENERAL",
			Items:    []itemRequest{{FurnitureID: "chair"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*estimateRequest)
		want   string
	}{
		{
			name:   "AddressTooLong",
			mutate: func(r *estimateRequest) { r.OriginAddress = strings.Repeat("a", 301) },
			want:   "origin_address must contain at most 300 characters",
		},
		{
			name:   "NoItems",
			mutate: func(r *estimateRequest) { r.Items = []itemRequest{} },
			want:   "items must contain at least 1 entries",
		},
		{
			name:   "UnknownMoveType",
			mutate: func(r *estimateRequest) { r.MoveType = "OFFICE" },
			want:   "move_type must be one of [GENERAL PACKING] (got: OFFICE)",
		},
		{
			name:   "MissingFurnitureReference",
			mutate: func(r *estimateRequest) { r.Items = []itemRequest{{}} },
			want:   "items[0].furniture_id is required when sensorclass is not set",
		},
		{
			name:   "NegativeArea",
			mutate: func(r *estimateRequest) { r.Area = -1 },
			want:   "area must be >= 0 (got: -1)",
		},
	}

	v := newRequestValidator()
	if err := v.Struct(valid()); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := valid()
			tt.mutate(&req)
			err := v.Struct(req)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}
