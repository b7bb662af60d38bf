package metadata_service

import (
	"context"
	"time"
)

type EntryType string

const (
	EntryTypeFile EntryType = "file"
	EntryTypeDir  EntryType = "dir"
)

// Entry is one file or directory in one owner's namespace. Path is
// unique per owner. ParentPath is "" only for the root entry at "/".
type Entry struct {
	ID         string
	OwnerID    string
	Type       EntryType
	Path       string
	Name       string
	ParentPath string
	BlobID     string
	Size       int64
	MimeType   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EntryUpdate carries a partial update; nil fields are left unchanged.
type EntryUpdate struct {
	Path       *string
	Name       *string
	ParentPath *string
	BlobID     *string
	Size       *int64
	MimeType   *string
}

type MetadataService interface {
	CreateEntry(ctx context.Context, entry Entry) (*Entry, error)
	FindByPath(ctx context.Context, ownerID string, path string) (*Entry, error)
	// FindByParentPath lists direct children ordered by name. A limit of
	// zero or less means no limit.
	FindByParentPath(ctx context.Context, ownerID string, parentPath string, limit int, offset int) ([]Entry, error)
	UpdateEntry(ctx context.Context, id string, update EntryUpdate) (*Entry, error)
	DeleteEntry(ctx context.Context, id string) error
}
