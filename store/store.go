/*
Package store defines the durable key-value store shared by the app and the
read-only widget context.

PURPOSE:
  Everything the engine persists is a JSON blob under a well-known key:
  settings, the visits collection, and the widget snapshot. The KV interface
  is the boundary between domain packages and the database.

KEYS:
  KeySettings        settings blob (settings.Settings)
  KeyVisits          versioned visits envelope (visit codec)
  KeyWidgetSnapshot  progress snapshot read by widget consumers

  Legacy keys (read once during migration, then deleted):
  KeyLegacyInOffice      boolean "currently in office" flag
  KeyLegacyCurrentVisit  snapshot of the in-progress visit

IMPLEMENTATIONS:
  - store/memory: in-memory, for tests and dev
  - store/sqlite: SQLite (WAL) for production

SEE ALSO:
  - visit/store.go: main writer of KeyVisits
  - settings/repository.go: reader/writer of KeySettings
*/
package store

import (
	"context"
	"errors"
)

const (
	KeySettings       = "settings"
	KeyVisits         = "visits"
	KeyVisitsCorrupt  = "visits.corrupt"
	KeyWidgetSnapshot = "widget.snapshot"

	KeyLegacyInOffice     = "isCurrentlyInOffice"
	KeyLegacyCurrentVisit = "currentVisit"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// KV is a durable key-value store.
type KV interface {
	// Get returns the value for key. ok is false when the key does not exist.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Put creates or replaces the value for key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys in lexical order.
	Keys(ctx context.Context) ([]string, error)
}
