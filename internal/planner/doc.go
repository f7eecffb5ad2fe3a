// Package planner chooses a truck combination that can physically carry a move.
//
// The flow is Normalize (items plus standard boxes become packable units), Search (walk the
// ordered combination catalog, pre-checking capacity and then running the per-truck
// Orient → MergeStacks → PackShelf heuristic) and BuildLoadPlan (per-truck volume figures).
// The heuristics are approximate and deterministic; they are not a 3D bin-packing optimiser.
package planner
