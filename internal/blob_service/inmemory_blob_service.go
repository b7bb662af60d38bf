package blob_service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type InMemoryBlobService struct {
	mu    sync.RWMutex
	byID  map[string]*Blob
	bySha map[string]*Blob
}

func NewInMemoryBlobService() *InMemoryBlobService {
	return &InMemoryBlobService{
		byID:  make(map[string]*Blob),
		bySha: make(map[string]*Blob),
	}
}

func (bs *InMemoryBlobService) UpsertBlob(ctx context.Context, sha256 string, size int64, storageKey string) (*Blob, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if existing, ok := bs.bySha[sha256]; ok {
		copied := *existing
		return &copied, nil
	}

	blob := &Blob{
		ID:         uuid.NewString(),
		Sha256:     sha256,
		Size:       size,
		StorageKey: storageKey,
		RefCount:   0,
		CreatedAt:  time.Now().UTC(),
	}
	bs.byID[blob.ID] = blob
	bs.bySha[sha256] = blob

	copied := *blob
	return &copied, nil
}

func (bs *InMemoryBlobService) FindByID(ctx context.Context, id string) (*Blob, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	blob, ok := bs.byID[id]
	if !ok {
		return nil, ErrBlobNotFound
	}
	copied := *blob
	return &copied, nil
}

func (bs *InMemoryBlobService) FindBySha256(ctx context.Context, sha256 string) (*Blob, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	blob, ok := bs.bySha[sha256]
	if !ok {
		return nil, ErrBlobNotFound
	}
	copied := *blob
	return &copied, nil
}

func (bs *InMemoryBlobService) IncrementRefCount(ctx context.Context, id string) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	blob, ok := bs.byID[id]
	if !ok {
		return ErrBlobNotFound
	}
	blob.RefCount++
	return nil
}

func (bs *InMemoryBlobService) DecrementRefCount(ctx context.Context, id string) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	blob, ok := bs.byID[id]
	if !ok {
		return ErrBlobNotFound
	}
	if blob.RefCount > 0 {
		blob.RefCount--
	}
	return nil
}

func (bs *InMemoryBlobService) FindOrphans(ctx context.Context, limit int) ([]Blob, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	var orphans []Blob
	for _, blob := range bs.byID {
		if blob.RefCount == 0 {
			orphans = append(orphans, *blob)
		}
	}
	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].Sha256 < orphans[j].Sha256
	})
	if limit > 0 && len(orphans) > limit {
		orphans = orphans[:limit]
	}
	return orphans, nil
}

func (bs *InMemoryBlobService) DeleteBlob(ctx context.Context, id string) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	blob, ok := bs.byID[id]
	if !ok {
		return ErrBlobNotFound
	}
	delete(bs.byID, id)
	delete(bs.bySha, blob.Sha256)
	return nil
}
