package repository

import (
	"context"
	"errors"
	"time"
)

var ErrSnapshotNotFound = errors.New("cart snapshot not found")

// SnapshotRepository defines the interface for durable cart snapshot
// storage. Consumers define this interface, not the MongoDB
// implementation. The payload is the opaque versioned snapshot encoding;
// the repository never interprets it.
type SnapshotRepository interface {
	Get(ctx context.Context, userID string) ([]byte, error)
	Put(ctx context.Context, userID string, payload []byte, at time.Time) error
	Delete(ctx context.Context, userID string) error
}
