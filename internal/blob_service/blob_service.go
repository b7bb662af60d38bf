package blob_service

import (
	"context"
	"time"
)

// Blob is a content-addressed record shared by every file entry whose
// content hashes to the same digest. RefCount tracks how many entries
// reference the blob; a blob with RefCount zero is an orphan.
type Blob struct {
	ID         string
	Sha256     string
	Size       int64
	StorageKey string
	RefCount   int64
	CreatedAt  time.Time
}

type BlobService interface {
	// UpsertBlob returns the existing blob for the digest, or creates
	// one with a ref count of zero. Callers increment the ref count
	// separately once an entry references the blob.
	UpsertBlob(ctx context.Context, sha256 string, size int64, storageKey string) (*Blob, error)
	FindByID(ctx context.Context, id string) (*Blob, error)
	FindBySha256(ctx context.Context, sha256 string) (*Blob, error)
	IncrementRefCount(ctx context.Context, id string) error
	// DecrementRefCount lowers the ref count by one, flooring at zero.
	DecrementRefCount(ctx context.Context, id string) error
	// FindOrphans returns up to limit blobs with a ref count of zero.
	// A limit of zero or less means no limit.
	FindOrphans(ctx context.Context, limit int) ([]Blob, error)
	DeleteBlob(ctx context.Context, id string) error
}
