package planner

import "errors"

var (
	// ErrInvalidInput is returned for empty inventories, non-positive dimensions or unknown rotations.
	ErrInvalidInput = errors.New("invalid planning input")
	// ErrNoFeasibleCombination is returned when every candidate combination fails capacity or packing.
	ErrNoFeasibleCombination = errors.New("no feasible truck combination")
)
