// Package uid provides identifier generators.
//
// Numeric identifiers (users, devices, backup codes) come from a snowflake
// node; string identifiers (sessions, events, correlation ids) are UUIDv7.
package uid

// NumberID generates unique, roughly time-ordered int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
