// Package uid provides unique identifier generators with different shapes:
// time-ordered int64 (snowflake), UUID strings, and opaque hex object IDs.
package uid

// NumberID generates unique numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
