package metadata_service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entryKey struct {
	ownerID string
	path    string
}

type InMemoryMetadataService struct {
	mu     sync.RWMutex
	byPath map[entryKey]*Entry
	byID   map[string]*Entry
}

func NewInMemoryMetadataService() *InMemoryMetadataService {
	return &InMemoryMetadataService{
		byPath: make(map[entryKey]*Entry),
		byID:   make(map[string]*Entry),
	}
}

func (ms *InMemoryMetadataService) CreateEntry(ctx context.Context, entry Entry) (*Entry, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := entryKey{ownerID: entry.OwnerID, path: entry.Path}
	if _, exists := ms.byPath[key]; exists {
		return nil, ErrEntryAlreadyExists
	}

	now := time.Now().UTC()
	entry.ID = uuid.NewString()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	stored := entry
	ms.byPath[key] = &stored
	ms.byID[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (ms *InMemoryMetadataService) FindByPath(ctx context.Context, ownerID string, path string) (*Entry, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entry, exists := ms.byPath[entryKey{ownerID: ownerID, path: path}]
	if !exists {
		return nil, ErrEntryNotFound
	}

	result := *entry
	return &result, nil
}

func (ms *InMemoryMetadataService) FindByParentPath(ctx context.Context, ownerID string, parentPath string, limit int, offset int) ([]Entry, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var children []Entry
	for _, entry := range ms.byPath {
		if entry.OwnerID == ownerID && entry.ParentPath == parentPath {
			children = append(children, *entry)
		}
	}

	sort.Slice(children, func(i, j int) bool {
		return children[i].Name < children[j].Name
	})

	if offset >= len(children) {
		return nil, nil
	}
	children = children[offset:]
	if limit > 0 && len(children) > limit {
		children = children[:limit]
	}

	return children, nil
}

func (ms *InMemoryMetadataService) UpdateEntry(ctx context.Context, id string, update EntryUpdate) (*Entry, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry, exists := ms.byID[id]
	if !exists {
		return nil, ErrEntryNotFound
	}

	if update.Path != nil && *update.Path != entry.Path {
		oldKey := entryKey{ownerID: entry.OwnerID, path: entry.Path}
		newKey := entryKey{ownerID: entry.OwnerID, path: *update.Path}
		if _, occupied := ms.byPath[newKey]; occupied {
			return nil, ErrEntryAlreadyExists
		}
		delete(ms.byPath, oldKey)
		entry.Path = *update.Path
		ms.byPath[newKey] = entry
	}
	if update.Name != nil {
		entry.Name = *update.Name
	}
	if update.ParentPath != nil {
		entry.ParentPath = *update.ParentPath
	}
	if update.BlobID != nil {
		entry.BlobID = *update.BlobID
	}
	if update.Size != nil {
		entry.Size = *update.Size
	}
	if update.MimeType != nil {
		entry.MimeType = *update.MimeType
	}
	entry.UpdatedAt = time.Now().UTC()

	result := *entry
	return &result, nil
}

func (ms *InMemoryMetadataService) DeleteEntry(ctx context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry, exists := ms.byID[id]
	if !exists {
		return ErrEntryNotFound
	}

	delete(ms.byPath, entryKey{ownerID: entry.OwnerID, path: entry.Path})
	delete(ms.byID, id)

	return nil
}

var _ MetadataService = (*InMemoryMetadataService)(nil)
