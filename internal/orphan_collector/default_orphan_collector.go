package orphan_collector

import (
	"context"

	"github.com/casfs/casfs/internal/blob_service"
	"github.com/casfs/casfs/internal/blob_store"
	"github.com/casfs/casfs/internal/log_service"
)

type DefaultOrphanCollector struct {
	bs    blob_service.BlobService
	store blob_store.BlobStore
	ls    log_service.LogService
}

func NewDefaultOrphanCollector(bs blob_service.BlobService, store blob_store.BlobStore, ls log_service.LogService) *DefaultOrphanCollector {
	return &DefaultOrphanCollector{bs: bs, store: store, ls: ls}
}

func (oc *DefaultOrphanCollector) Sweep(ctx context.Context, limit int) (int, error) {
	orphans, err := oc.bs.FindOrphans(ctx, limit)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, orphan := range orphans {
		// Content goes first: if the record delete fails the blob is
		// picked up again by the next sweep.
		if err := oc.store.Delete(ctx, orphan.Sha256); err != nil {
			oc.ls.Warn(log_service.LogEvent{
				Component: "orphan_collector",
				Message:   "failed to delete blob content, skipping",
				Metadata:  map[string]any{"blobID": orphan.ID, "sha256": orphan.Sha256, "error": err.Error()},
			})
			continue
		}
		if err := oc.bs.DeleteBlob(ctx, orphan.ID); err != nil {
			oc.ls.Warn(log_service.LogEvent{
				Component: "orphan_collector",
				Message:   "failed to delete blob record, skipping",
				Metadata:  map[string]any{"blobID": orphan.ID, "sha256": orphan.Sha256, "error": err.Error()},
			})
			continue
		}
		removed++
	}

	if removed > 0 {
		oc.ls.Info(log_service.LogEvent{
			Component: "orphan_collector",
			Message:   "sweep completed",
			Metadata:  map[string]any{"candidates": len(orphans), "removed": removed},
		})
	}
	return removed, nil
}
