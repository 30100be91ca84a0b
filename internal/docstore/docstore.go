package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when an update targets a document that does not
// exist. Deletes of missing documents are a no-op instead.
var ErrNotFound = errors.New("document not found")

// serverTimestamp is the sentinel type for server-resolved timestamp fields.
type serverTimestamp struct{}

// ServerTimestamp marks a field to be resolved to the store's clock at write
// time, so creation times are assigned by the server, never by the client.
var ServerTimestamp = serverTimestamp{}

// Ref identifies a single document inside an owner-scoped collection.
type Ref struct {
	Collection string
	ID         string
}

// Snapshot is the read-side view of a document. A missing document is
// reported with Exists=false rather than an error, matching getDoc semantics.
type Snapshot struct {
	ID     string
	Exists bool
	Data   map[string]any
}

// Time decodes a timestamp field from the snapshot data.
func (s Snapshot) Time(key string) (time.Time, error) {
	v, ok := s.Data[key]
	if !ok {
		return time.Time{}, fmt.Errorf("field %q missing from document %s", key, s.ID)
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %q of document %s is not a timestamp: %w", key, s.ID, err)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("field %q of document %s is not a timestamp", key, s.ID)
	}
}

// Store defines the remote document store operations the services rely on.
// Implementations assign document ids and resolve ServerTimestamp sentinels.
type Store interface {
	CreateDocument(ctx context.Context, collection string, fields map[string]any) (Ref, error)
	GetDocument(ctx context.Context, ref Ref) (Snapshot, error)
	QueryCollection(ctx context.Context, collection string) ([]Snapshot, error)
	UpdateDocument(ctx context.Context, ref Ref, fields map[string]any) error
	DeleteDocument(ctx context.Context, ref Ref) error
}
