// Package uuid provides time-ordered UUID v7 identifiers.
// Conversation ids minted by the service use v7 so they sort by creation time.
package uuid

import (
	"crypto/rand"

	guuid "github.com/google/uuid"
)

// UUID represents a UUID v7 identifier.
type UUID [16]byte

// NewV7 generates a new UUID v7. If the time source or entropy pool fails the
// v7 constructor, it falls back to a random v4 so callers never see an error.
func NewV7() UUID {
	u, err := guuid.NewV7()
	if err != nil {
		u = guuid.Must(guuid.NewRandomFromReader(rand.Reader))
	}
	return UUID(u)
}

// Version returns the UUID version nibble.
func (u UUID) Version() int {
	return int(guuid.UUID(u).Version())
}

// String returns the UUID in standard form: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
func (u UUID) String() string {
	return guuid.UUID(u).String()
}
