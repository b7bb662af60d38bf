package blob_store

import (
	"context"
	"sync"
)

type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{
		blobs: make(map[string][]byte),
	}
}

func (bs *InMemoryBlobStore) Put(ctx context.Context, sha256 string, content []byte) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if _, ok := bs.blobs[sha256]; ok {
		return nil
	}

	copied := make([]byte, len(content))
	copy(copied, content)
	bs.blobs[sha256] = copied
	return nil
}

func (bs *InMemoryBlobStore) Get(ctx context.Context, sha256 string) ([]byte, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	content, ok := bs.blobs[sha256]
	if !ok {
		return nil, ErrBlobNotFound
	}

	copied := make([]byte, len(content))
	copy(copied, content)
	return copied, nil
}

func (bs *InMemoryBlobStore) Delete(ctx context.Context, sha256 string) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	delete(bs.blobs, sha256)
	return nil
}
