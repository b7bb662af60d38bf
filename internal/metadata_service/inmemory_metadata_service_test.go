package metadata_service

import (
	"context"
	"errors"
	"testing"
)

func newDirEntry(ownerID, path, name, parentPath string) Entry {
	return Entry{
		OwnerID:    ownerID,
		Type:       EntryTypeDir,
		Path:       path,
		Name:       name,
		ParentPath: parentPath,
	}
}

func TestInMemoryMetadataService_CreateEntry(t *testing.T) {
	tests := []struct {
		name    string
		setup   []Entry
		entry   Entry
		wantErr error
	}{
		{
			name:  "create root",
			entry: newDirEntry("owner1", "/", "/", ""),
		},
		{
			name:  "create nested directory",
			setup: []Entry{newDirEntry("owner1", "/", "/", "")},
			entry: newDirEntry("owner1", "/docs", "docs", "/"),
		},
		{
			name:    "duplicate path rejected",
			setup:   []Entry{newDirEntry("owner1", "/docs", "docs", "/")},
			entry:   newDirEntry("owner1", "/docs", "docs", "/"),
			wantErr: ErrEntryAlreadyExists,
		},
		{
			name:  "same path different owner allowed",
			setup: []Entry{newDirEntry("owner1", "/docs", "docs", "/")},
			entry: newDirEntry("owner2", "/docs", "docs", "/"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := NewInMemoryMetadataService()
			ctx := context.Background()
			for _, entry := range tt.setup {
				if _, err := ms.CreateEntry(ctx, entry); err != nil {
					t.Fatalf("setup CreateEntry() error = %v", err)
				}
			}

			created, err := ms.CreateEntry(ctx, tt.entry)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateEntry() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateEntry() error = %v", err)
			}
			if created.ID == "" {
				t.Error("CreateEntry() did not assign an ID")
			}
			if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
				t.Error("CreateEntry() did not assign timestamps")
			}
		})
	}
}

func TestInMemoryMetadataService_FindByPath(t *testing.T) {
	ms := NewInMemoryMetadataService()
	ctx := context.Background()

	created, err := ms.CreateEntry(ctx, newDirEntry("owner1", "/docs", "docs", "/"))
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	found, err := ms.FindByPath(ctx, "owner1", "/docs")
	if err != nil {
		t.Fatalf("FindByPath() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("FindByPath() ID = %v, want %v", found.ID, created.ID)
	}

	if _, err := ms.FindByPath(ctx, "owner1", "/missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("FindByPath() missing path error = %v, want ErrEntryNotFound", err)
	}
	if _, err := ms.FindByPath(ctx, "owner2", "/docs"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("FindByPath() other owner error = %v, want ErrEntryNotFound", err)
	}
}

func TestInMemoryMetadataService_FindByParentPath(t *testing.T) {
	ms := NewInMemoryMetadataService()
	ctx := context.Background()

	for _, name := range []string{"cherry", "apple", "banana", "date"} {
		if _, err := ms.CreateEntry(ctx, newDirEntry("owner1", "/"+name, name, "/")); err != nil {
			t.Fatalf("CreateEntry() error = %v", err)
		}
	}
	if _, err := ms.CreateEntry(ctx, newDirEntry("owner2", "/other", "other", "/")); err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	tests := []struct {
		name      string
		limit     int
		offset    int
		wantNames []string
	}{
		{
			name:      "all children sorted by name",
			wantNames: []string{"apple", "banana", "cherry", "date"},
		},
		{
			name:      "limit applies after sort",
			limit:     2,
			wantNames: []string{"apple", "banana"},
		},
		{
			name:      "offset skips entries",
			limit:     2,
			offset:    2,
			wantNames: []string{"cherry", "date"},
		},
		{
			name:      "offset beyond end",
			offset:    10,
			wantNames: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			children, err := ms.FindByParentPath(ctx, "owner1", "/", tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("FindByParentPath() error = %v", err)
			}
			if len(children) != len(tt.wantNames) {
				t.Fatalf("FindByParentPath() returned %d entries, want %d", len(children), len(tt.wantNames))
			}
			for i, want := range tt.wantNames {
				if children[i].Name != want {
					t.Errorf("FindByParentPath()[%d].Name = %q, want %q", i, children[i].Name, want)
				}
			}
		})
	}
}

func TestInMemoryMetadataService_UpdateEntry(t *testing.T) {
	ms := NewInMemoryMetadataService()
	ctx := context.Background()

	created, err := ms.CreateEntry(ctx, newDirEntry("owner1", "/docs", "docs", "/"))
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}
	if _, err := ms.CreateEntry(ctx, newDirEntry("owner1", "/taken", "taken", "/")); err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	newPath := "/archive"
	newName := "archive"
	newParent := "/"
	updated, err := ms.UpdateEntry(ctx, created.ID, EntryUpdate{
		Path:       &newPath,
		Name:       &newName,
		ParentPath: &newParent,
	})
	if err != nil {
		t.Fatalf("UpdateEntry() error = %v", err)
	}
	if updated.Path != "/archive" || updated.Name != "archive" {
		t.Errorf("UpdateEntry() = %q %q, want /archive archive", updated.Path, updated.Name)
	}

	// Old path is released, new path is indexed.
	if _, err := ms.FindByPath(ctx, "owner1", "/docs"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("FindByPath() old path error = %v, want ErrEntryNotFound", err)
	}
	if _, err := ms.FindByPath(ctx, "owner1", "/archive"); err != nil {
		t.Errorf("FindByPath() new path error = %v", err)
	}

	occupied := "/taken"
	if _, err := ms.UpdateEntry(ctx, created.ID, EntryUpdate{Path: &occupied}); !errors.Is(err, ErrEntryAlreadyExists) {
		t.Errorf("UpdateEntry() to occupied path error = %v, want ErrEntryAlreadyExists", err)
	}

	if _, err := ms.UpdateEntry(ctx, "missing-id", EntryUpdate{Name: &newName}); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("UpdateEntry() missing id error = %v, want ErrEntryNotFound", err)
	}
}

func TestInMemoryMetadataService_DeleteEntry(t *testing.T) {
	ms := NewInMemoryMetadataService()
	ctx := context.Background()

	created, err := ms.CreateEntry(ctx, newDirEntry("owner1", "/docs", "docs", "/"))
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	if err := ms.DeleteEntry(ctx, created.ID); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	if _, err := ms.FindByPath(ctx, "owner1", "/docs"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("FindByPath() after delete error = %v, want ErrEntryNotFound", err)
	}
	if err := ms.DeleteEntry(ctx, created.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("DeleteEntry() twice error = %v, want ErrEntryNotFound", err)
	}
}
