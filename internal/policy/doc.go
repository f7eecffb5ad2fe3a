// Package policy holds the read-only rule tables the estimator prices against: truck specs,
// box rules, base/ladder/stairs/distance/special fees and the furniture catalog.
//
// A Snapshot is immutable once loaded. Reloading builds a new Snapshot and publishes it through
// Store.Swap; callers that already hold the previous pointer finish against it untouched.
package policy
