// Package hash provides helpers for hashing and verifying secrets.
//
// Typical usage is keyed hashing of tokens at rest: store only the hash,
// then verify presented values by comparing against the stored hash.
package hash
