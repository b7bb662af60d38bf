package file_service

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/casfs/casfs/internal/blob_service"
	"github.com/casfs/casfs/internal/blob_store"
	"github.com/casfs/casfs/internal/log_service"
	"github.com/casfs/casfs/internal/metadata_service"
	"github.com/casfs/casfs/internal/sqlite_pool"
	"github.com/casfs/casfs/internal/transaction_manager"
)

func newSqliteHarness(t *testing.T) *testHarness {
	t.Helper()

	pool, err := sqlite_pool.Open(filepath.Join(t.TempDir(), "test.db"), 2)
	if err != nil {
		t.Fatalf("sqlite_pool.Open() error = %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	ms, err := metadata_service.NewSqliteMetadataService(pool)
	if err != nil {
		t.Fatalf("NewSqliteMetadataService() error = %v", err)
	}
	bs, err := blob_service.NewSqliteBlobService(pool)
	if err != nil {
		t.Fatalf("NewSqliteBlobService() error = %v", err)
	}
	store, err := blob_store.NewLocalDiscBlobStore(t.TempDir(), true)
	if err != nil {
		t.Fatalf("NewLocalDiscBlobStore() error = %v", err)
	}
	tm := transaction_manager.NewSqliteTransactionManager(pool)
	ls := log_service.NewStdoutLogService(log_service.ErrorLevel)

	return &testHarness{
		fs:    NewDefaultFileService(ms, bs, store, tm, ls),
		ms:    ms,
		bs:    bs,
		store: store,
	}
}

func TestDefaultFileService_SqliteRoundtrip(t *testing.T) {
	h := newSqliteHarness(t)
	ctx := context.Background()

	content := []byte("persistent content")
	if _, err := h.fs.CreateDirectory(ctx, "owner1", "/docs"); err != nil {
		t.Fatalf("CreateDirectory() error = %v", err)
	}
	if _, err := h.fs.WriteFile(ctx, "owner1", "/docs/readme.txt", content, "text/plain"); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := h.fs.ReadFile(ctx, "owner1", "/docs/readme.txt")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("ReadFile() = %q, want %q", got, content)
	}

	if rc := refCountOf(t, h, content); rc != 1 {
		t.Errorf("ref count = %d, want 1", rc)
	}
}

func TestDefaultFileService_SqliteRecursiveDelete(t *testing.T) {
	h := newSqliteHarness(t)
	ctx := context.Background()

	content := []byte("tree content")
	if _, err := h.fs.CreateDirectory(ctx, "owner1", "/tree/branch"); err != nil {
		t.Fatalf("CreateDirectory() error = %v", err)
	}
	for _, path := range []string{"/tree/a.txt", "/tree/branch/b.txt"} {
		if _, err := h.fs.WriteFile(ctx, "owner1", path, content, "text/plain"); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", path, err)
		}
	}

	if err := h.fs.DeleteDirectory(ctx, "owner1", "/tree", true); err != nil {
		t.Fatalf("DeleteDirectory() error = %v", err)
	}

	page, err := h.fs.ListDirectory(ctx, "owner1", "/", 10, "")
	if err != nil {
		t.Fatalf("ListDirectory() error = %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("root still holds %d entries after recursive delete", len(page.Items))
	}
	if rc := refCountOf(t, h, content); rc != 0 {
		t.Errorf("ref count after recursive delete = %d, want 0", rc)
	}
}

func TestDefaultFileService_SqliteDirectoryCopyRefCounts(t *testing.T) {
	h := newSqliteHarness(t)
	ctx := context.Background()

	content := []byte("copied content")
	if _, err := h.fs.CreateDirectory(ctx, "owner1", "/src"); err != nil {
		t.Fatalf("CreateDirectory() error = %v", err)
	}
	if _, err := h.fs.WriteFile(ctx, "owner1", "/src/file.txt", content, "text/plain"); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := h.fs.CopyDirectory(ctx, "owner1", "/src", "/dst"); err != nil {
		t.Fatalf("CopyDirectory() error = %v", err)
	}

	if rc := refCountOf(t, h, content); rc != 2 {
		t.Errorf("ref count after copy = %d, want 2", rc)
	}

	got, err := h.fs.ReadFile(ctx, "owner1", "/dst/file.txt")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("ReadFile() copy = %q, want %q", got, content)
	}
}
