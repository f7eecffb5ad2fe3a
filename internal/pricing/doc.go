// Package pricing turns a load plan into an itemised quote.
//
// Price evaluates BASE, LADDER/STAIRS access, DISTANCE and SPECIAL sections against one policy
// snapshot. Money is integer currency units throughout. Any missing required rule aborts the
// whole run with policy.ErrMissingRule; no partial quote is ever returned.
package pricing
