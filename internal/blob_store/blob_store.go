package blob_store

import "context"

// BlobStore holds blob content keyed by the hex SHA-256 digest of the
// content. Put is idempotent: storing a digest that already exists is
// a no-op. Delete of a missing digest succeeds.
type BlobStore interface {
	Put(ctx context.Context, sha256 string, content []byte) error
	Get(ctx context.Context, sha256 string) ([]byte, error)
	Delete(ctx context.Context, sha256 string) error
}

// StorageKey shards blobs by the first two digest characters so no
// single directory collects every object.
func StorageKey(sha256 string) string {
	if len(sha256) < 2 {
		return sha256
	}
	return sha256[:2] + "/" + sha256
}
