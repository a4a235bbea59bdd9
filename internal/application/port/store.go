package port

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Load when the key has never been saved.
var ErrNotFound = errors.New("storage: key not found")

// Store is the persistence collaborator: an opaque key-value blob store used
// for trade/signal history and runner state durability. The core only ever
// does read-modify-write at cycle boundaries and never holds a transaction.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Close() error
}
