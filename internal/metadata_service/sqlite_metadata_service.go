package metadata_service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/casfs/casfs/internal/transaction_manager"
)

const metadataSchema = `
CREATE TABLE IF NOT EXISTS entries (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	type        TEXT NOT NULL,
	path        TEXT NOT NULL,
	name        TEXT NOT NULL,
	parent_path TEXT NOT NULL DEFAULT '',
	blob_id     TEXT NOT NULL DEFAULT '',
	size        INTEGER NOT NULL DEFAULT 0,
	mime_type   TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL,
	UNIQUE(owner_id, path)
);

CREATE INDEX IF NOT EXISTS idx_entries_parent
	ON entries(owner_id, parent_path, name);
`

type SqliteMetadataService struct {
	pool *sqlitex.Pool
}

func NewSqliteMetadataService(pool *sqlitex.Pool) (*SqliteMetadataService, error) {
	conn, err := pool.Take(context.Background())
	if err != nil {
		return nil, err
	}
	defer pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, metadataSchema, nil); err != nil {
		return nil, fmt.Errorf("creating entries schema: %w", err)
	}

	return &SqliteMetadataService{pool: pool}, nil
}

// conn returns the transaction connection from the context when one is
// attached, otherwise a connection from the pool with a release func.
func (ms *SqliteMetadataService) conn(ctx context.Context) (*sqlite.Conn, func(), error) {
	if conn := transaction_manager.ConnFromContext(ctx); conn != nil {
		return conn, func() {}, nil
	}
	conn, err := ms.pool.Take(ctx)
	if err != nil {
		return nil, nil, err
	}
	return conn, func() { ms.pool.Put(conn) }, nil
}

func (ms *SqliteMetadataService) CreateEntry(ctx context.Context, entry Entry) (*Entry, error) {
	conn, release, err := ms.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	stored := entry
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	err = sqlitex.Execute(conn, `
		INSERT INTO entries (id, owner_id, type, path, name, parent_path, blob_id, size, mime_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				stored.ID, stored.OwnerID, string(stored.Type), stored.Path,
				stored.Name, stored.ParentPath, stored.BlobID, stored.Size,
				stored.MimeType, now.UnixMilli(), now.UnixMilli(),
			},
		})
	if err != nil {
		if sqlite.ErrCode(err) == sqlite.ResultConstraintUnique {
			return nil, ErrEntryAlreadyExists
		}
		return nil, fmt.Errorf("inserting entry %s: %w", stored.Path, err)
	}

	return &stored, nil
}

func (ms *SqliteMetadataService) FindByPath(ctx context.Context, ownerID, path string) (*Entry, error) {
	conn, release, err := ms.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var found *Entry
	err = sqlitex.Execute(conn, `
		SELECT id, owner_id, type, path, name, parent_path, blob_id, size, mime_type, created_at, updated_at
		FROM entries WHERE owner_id = ? AND path = ?`,
		&sqlitex.ExecOptions{
			Args: []any{ownerID, path},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entry := scanEntry(stmt)
				found = &entry
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("finding entry %s: %w", path, err)
	}
	if found == nil {
		return nil, ErrEntryNotFound
	}
	return found, nil
}

func (ms *SqliteMetadataService) FindByParentPath(ctx context.Context, ownerID, parentPath string, limit, offset int) ([]Entry, error) {
	conn, release, err := ms.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	var entries []Entry
	err = sqlitex.Execute(conn, `
		SELECT id, owner_id, type, path, name, parent_path, blob_id, size, mime_type, created_at, updated_at
		FROM entries WHERE owner_id = ? AND parent_path = ?
		ORDER BY name ASC LIMIT ? OFFSET ?`,
		&sqlitex.ExecOptions{
			Args: []any{ownerID, parentPath, limit, offset},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entries = append(entries, scanEntry(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("listing children of %s: %w", parentPath, err)
	}
	return entries, nil
}

func (ms *SqliteMetadataService) UpdateEntry(ctx context.Context, id string, update EntryUpdate) (*Entry, error) {
	conn, release, err := ms.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := "UPDATE entries SET updated_at = ?"
	args := []any{time.Now().UTC().UnixMilli()}

	if update.Path != nil {
		query += ", path = ?"
		args = append(args, *update.Path)
	}
	if update.Name != nil {
		query += ", name = ?"
		args = append(args, *update.Name)
	}
	if update.ParentPath != nil {
		query += ", parent_path = ?"
		args = append(args, *update.ParentPath)
	}
	if update.BlobID != nil {
		query += ", blob_id = ?"
		args = append(args, *update.BlobID)
	}
	if update.Size != nil {
		query += ", size = ?"
		args = append(args, *update.Size)
	}
	if update.MimeType != nil {
		query += ", mime_type = ?"
		args = append(args, *update.MimeType)
	}

	query += " WHERE id = ?"
	args = append(args, id)

	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args})
	if err != nil {
		if sqlite.ErrCode(err) == sqlite.ResultConstraintUnique {
			return nil, ErrEntryAlreadyExists
		}
		return nil, fmt.Errorf("updating entry %s: %w", id, err)
	}
	if conn.Changes() == 0 {
		return nil, ErrEntryNotFound
	}

	var found *Entry
	err = sqlitex.Execute(conn, `
		SELECT id, owner_id, type, path, name, parent_path, blob_id, size, mime_type, created_at, updated_at
		FROM entries WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entry := scanEntry(stmt)
				found = &entry
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("reloading entry %s: %w", id, err)
	}
	if found == nil {
		return nil, ErrEntryNotFound
	}
	return found, nil
}

func (ms *SqliteMetadataService) DeleteEntry(ctx context.Context, id string) error {
	conn, release, err := ms.conn(ctx)
	if err != nil {
		return err
	}
	defer release()

	err = sqlitex.Execute(conn, "DELETE FROM entries WHERE id = ?",
		&sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return fmt.Errorf("deleting entry %s: %w", id, err)
	}
	if conn.Changes() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func scanEntry(stmt *sqlite.Stmt) Entry {
	return Entry{
		ID:         stmt.ColumnText(0),
		OwnerID:    stmt.ColumnText(1),
		Type:       EntryType(stmt.ColumnText(2)),
		Path:       stmt.ColumnText(3),
		Name:       stmt.ColumnText(4),
		ParentPath: stmt.ColumnText(5),
		BlobID:     stmt.ColumnText(6),
		Size:       stmt.ColumnInt64(7),
		MimeType:   stmt.ColumnText(8),
		CreatedAt:  time.UnixMilli(stmt.ColumnInt64(9)).UTC(),
		UpdatedAt:  time.UnixMilli(stmt.ColumnInt64(10)).UTC(),
	}
}
