// Package types holds the small value objects shared across modules.
package types

// ID is an opaque identifier. Caller IDs come from the identity provider
// and are never parsed; trip IDs are UUIDs.
type ID string

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// Money is an integer amount in a minor-unit-free currency (TZS has no
// fractional units in practice).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
