// Package application wires the policy store, furniture catalog, estimator,
// estimate persistence and HTTP server together so the main package only
// deals with CLI parsing and process lifecycle.
package application
