package uuid

import (
	"github.com/google/uuid"

	"github.com/connstate/connstate/server/basen"
)

var base62 = basen.NewEncoder(basen.AlphabetBase62)

// New returns a new base62-encoded UUID. Used for connection and watcher IDs.
func New() string {
	value := uuid.New()

	return base62.Encode(value[:])
}
