// Package kvstore abstracts an expiring key-value store with the small set
// of atomic operations the service relies on: get/set with TTL, set-if-absent,
// increment, and expire-if-unset.
//
// The production implementation is backed by Redis. An in-memory
// implementation with an injectable clock is provided for tests.
package kvstore
