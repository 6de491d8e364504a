// Package snapshot encodes and decodes the durable cart snapshot. The
// payload carries an explicit schema version so a future shape change
// can migrate old snapshots instead of silently discarding them.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kleankickx/storefront-api/internal/domain"
)

const SchemaVersion = 1

var (
	ErrMalformed      = errors.New("malformed cart snapshot")
	ErrUnknownVersion = errors.New("unknown snapshot schema version")
)

type Snapshot struct {
	Items     []domain.CartItem
	Timestamp time.Time
}

type payload struct {
	SchemaVersion *int              `json:"schema_version"`
	Items         []domain.CartItem `json:"items"`
	Timestamp     *int64            `json:"timestamp"`
}

func Encode(items []domain.CartItem, at time.Time) ([]byte, error) {
	v := SchemaVersion
	ts := at.Unix()
	if items == nil {
		items = []domain.CartItem{}
	}
	data, err := json.Marshal(payload{
		SchemaVersion: &v,
		Items:         items,
		Timestamp:     &ts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot failed: %w", err)
	}
	return data, nil
}

// Decode validates the payload shape strictly: a JSON object with an
// integer schema_version, an items sequence and an integer unix
// timestamp. Anything else is ErrMalformed so the store can fall back to
// an empty cart deliberately rather than by accident.
func Decode(raw []byte) (*Snapshot, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.SchemaVersion == nil || p.Timestamp == nil || p.Items == nil {
		return nil, ErrMalformed
	}
	if *p.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, *p.SchemaVersion)
	}
	return &Snapshot{
		Items:     p.Items,
		Timestamp: time.Unix(*p.Timestamp, 0),
	}, nil
}

// Age returns how long ago the snapshot was written.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}
