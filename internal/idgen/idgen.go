// Package idgen provides the engine's id-generation strategy. Production
// code uses the uuid-backed Generator; tests substitute a deterministic one
// (see MockGenerator, generated by go.uber.org/mock) when they need to
// assert exact id sequencing.
package idgen

import "github.com/google/uuid"

// Generator produces fresh, unique string ids.
//
//go:generate mockgen -source=idgen.go -destination=mock_idgen.go -package=idgen
type Generator interface {
	NewID() string
}

// UUIDGenerator generates RFC 4122 v4 ids via google/uuid.
type UUIDGenerator struct{}

// NewID returns a fresh uuid string.
func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}

// Default is the package-level generator used wherever callers don't thread
// their own through explicitly.
var Default Generator = UUIDGenerator{}
