package state

import "github.com/google/uuid"

// IDGenerator produces box identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDs generates random 128-bit identifiers.
type UUIDs struct{}

func (UUIDs) NewID() string { return uuid.NewString() }

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }

// UniqueID draws from gen until it returns an ID for which taken is false.
func UniqueID(gen IDGenerator, taken func(id string) bool) string {
	for {
		id := gen.NewID()
		if !taken(id) {
			return id
		}
	}
}
