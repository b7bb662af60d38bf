package blob_service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/casfs/casfs/internal/transaction_manager"
)

const blobSchema = `
CREATE TABLE IF NOT EXISTS blobs (
	id          TEXT PRIMARY KEY,
	sha256      TEXT NOT NULL UNIQUE,
	size        INTEGER NOT NULL,
	storage_key TEXT NOT NULL,
	ref_count   INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_blobs_ref_count ON blobs(ref_count);
`

type SqliteBlobService struct {
	pool *sqlitex.Pool
}

func NewSqliteBlobService(pool *sqlitex.Pool) (*SqliteBlobService, error) {
	conn, err := pool.Take(context.Background())
	if err != nil {
		return nil, err
	}
	defer pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, blobSchema, nil); err != nil {
		return nil, fmt.Errorf("creating blobs schema: %w", err)
	}

	return &SqliteBlobService{pool: pool}, nil
}

func (bs *SqliteBlobService) conn(ctx context.Context) (*sqlite.Conn, func(), error) {
	if conn := transaction_manager.ConnFromContext(ctx); conn != nil {
		return conn, func() {}, nil
	}
	conn, err := bs.pool.Take(ctx)
	if err != nil {
		return nil, nil, err
	}
	return conn, func() { bs.pool.Put(conn) }, nil
}

func (bs *SqliteBlobService) UpsertBlob(ctx context.Context, sha256 string, size int64, storageKey string) (*Blob, error) {
	conn, release, err := bs.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	err = sqlitex.Execute(conn, `
		INSERT INTO blobs (id, sha256, size, storage_key, ref_count, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(sha256) DO NOTHING`,
		&sqlitex.ExecOptions{
			Args: []any{uuid.NewString(), sha256, size, storageKey, time.Now().UTC().UnixMilli()},
		})
	if err != nil {
		return nil, fmt.Errorf("upserting blob %s: %w", sha256, err)
	}

	return bs.findOne(conn, "sha256", sha256)
}

func (bs *SqliteBlobService) FindByID(ctx context.Context, id string) (*Blob, error) {
	conn, release, err := bs.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return bs.findOne(conn, "id", id)
}

func (bs *SqliteBlobService) FindBySha256(ctx context.Context, sha256 string) (*Blob, error) {
	conn, release, err := bs.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return bs.findOne(conn, "sha256", sha256)
}

func (bs *SqliteBlobService) findOne(conn *sqlite.Conn, column, value string) (*Blob, error) {
	var found *Blob
	err := sqlitex.Execute(conn,
		"SELECT id, sha256, size, storage_key, ref_count, created_at FROM blobs WHERE "+column+" = ?",
		&sqlitex.ExecOptions{
			Args: []any{value},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				blob := scanBlob(stmt)
				found = &blob
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("finding blob by %s: %w", column, err)
	}
	if found == nil {
		return nil, ErrBlobNotFound
	}
	return found, nil
}

func (bs *SqliteBlobService) IncrementRefCount(ctx context.Context, id string) error {
	return bs.adjustRefCount(ctx, id, "UPDATE blobs SET ref_count = ref_count + 1 WHERE id = ?")
}

func (bs *SqliteBlobService) DecrementRefCount(ctx context.Context, id string) error {
	return bs.adjustRefCount(ctx, id, "UPDATE blobs SET ref_count = MAX(ref_count - 1, 0) WHERE id = ?")
}

func (bs *SqliteBlobService) adjustRefCount(ctx context.Context, id, query string) error {
	conn, release, err := bs.conn(ctx)
	if err != nil {
		return err
	}
	defer release()

	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return fmt.Errorf("adjusting ref count for %s: %w", id, err)
	}
	if conn.Changes() == 0 {
		return ErrBlobNotFound
	}
	return nil
}

func (bs *SqliteBlobService) FindOrphans(ctx context.Context, limit int) ([]Blob, error) {
	conn, release, err := bs.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if limit <= 0 {
		limit = -1
	}

	var orphans []Blob
	err = sqlitex.Execute(conn, `
		SELECT id, sha256, size, storage_key, ref_count, created_at
		FROM blobs WHERE ref_count = 0 ORDER BY sha256 ASC LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				orphans = append(orphans, scanBlob(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("finding orphan blobs: %w", err)
	}
	return orphans, nil
}

func (bs *SqliteBlobService) DeleteBlob(ctx context.Context, id string) error {
	conn, release, err := bs.conn(ctx)
	if err != nil {
		return err
	}
	defer release()

	err = sqlitex.Execute(conn, "DELETE FROM blobs WHERE id = ?",
		&sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return fmt.Errorf("deleting blob %s: %w", id, err)
	}
	if conn.Changes() == 0 {
		return ErrBlobNotFound
	}
	return nil
}

func scanBlob(stmt *sqlite.Stmt) Blob {
	return Blob{
		ID:         stmt.ColumnText(0),
		Sha256:     stmt.ColumnText(1),
		Size:       stmt.ColumnInt64(2),
		StorageKey: stmt.ColumnText(3),
		RefCount:   stmt.ColumnInt64(4),
		CreatedAt:  time.UnixMilli(stmt.ColumnInt64(5)).UTC(),
	}
}
