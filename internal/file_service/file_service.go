package file_service

import (
	"context"

	"github.com/casfs/casfs/internal/metadata_service"
)

// DirectoryPage is one page of directory children. NextCursor is empty
// when there are no further pages.
type DirectoryPage struct {
	Items      []metadata_service.Entry
	NextCursor string
}

// FileService is the virtual filesystem engine. Every owner gets an
// isolated namespace rooted at "/", provisioned lazily on first use.
// Relative paths resolve against the owner's working directory.
type FileService interface {
	CreateDirectory(ctx context.Context, ownerID, path string) (*metadata_service.Entry, error)
	DeleteDirectory(ctx context.Context, ownerID, path string, recursive bool) error
	CopyDirectory(ctx context.Context, ownerID, sourcePath, destPath string) (*metadata_service.Entry, error)
	MoveDirectory(ctx context.Context, ownerID, sourcePath, destPath string) (*metadata_service.Entry, error)
	ListDirectory(ctx context.Context, ownerID, path string, limit int, cursor string) (*DirectoryPage, error)

	WriteFile(ctx context.Context, ownerID, path string, content []byte, mimeType string) (*metadata_service.Entry, error)
	ReadFile(ctx context.Context, ownerID, path string) ([]byte, error)
	ReadFileText(ctx context.Context, ownerID, path string) (string, error)
	DeleteFile(ctx context.Context, ownerID, path string) error
	CopyFile(ctx context.Context, ownerID, sourcePath, destPath string) (*metadata_service.Entry, error)
	MoveFile(ctx context.Context, ownerID, sourcePath, destPath string) (*metadata_service.Entry, error)

	GetInfo(ctx context.Context, ownerID, path string) (*metadata_service.Entry, error)
	GetWorkingDirectory(ownerID string) string
	SetWorkingDirectory(ctx context.Context, ownerID, path string) error
}
