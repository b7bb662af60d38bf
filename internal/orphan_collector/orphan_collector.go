package orphan_collector

import "context"

// OrphanCollector reclaims blobs no entry references anymore. Blob
// content is never deleted inline with filesystem operations; the
// sweep is the single place storage is reclaimed.
type OrphanCollector interface {
	// Sweep removes up to limit orphaned blobs and returns how many
	// were reclaimed. A limit of zero or less means no limit. Failures
	// on individual blobs are logged and skipped.
	Sweep(ctx context.Context, limit int) (int, error)
}
