package file_service

import (
	"context"

	"github.com/casfs/casfs/internal/metadata_service"
)

// ScopedFileService binds a FileService to a single owner so callers
// holding one cannot reach another owner's namespace.
type ScopedFileService struct {
	fs      FileService
	ownerID string
}

func NewScopedFileService(fs FileService, ownerID string) *ScopedFileService {
	return &ScopedFileService{fs: fs, ownerID: ownerID}
}

func (s *ScopedFileService) CreateDirectory(ctx context.Context, path string) (*metadata_service.Entry, error) {
	return s.fs.CreateDirectory(ctx, s.ownerID, path)
}

func (s *ScopedFileService) DeleteDirectory(ctx context.Context, path string, recursive bool) error {
	return s.fs.DeleteDirectory(ctx, s.ownerID, path, recursive)
}

func (s *ScopedFileService) CopyDirectory(ctx context.Context, sourcePath, destPath string) (*metadata_service.Entry, error) {
	return s.fs.CopyDirectory(ctx, s.ownerID, sourcePath, destPath)
}

func (s *ScopedFileService) MoveDirectory(ctx context.Context, sourcePath, destPath string) (*metadata_service.Entry, error) {
	return s.fs.MoveDirectory(ctx, s.ownerID, sourcePath, destPath)
}

func (s *ScopedFileService) ListDirectory(ctx context.Context, path string, limit int, cursor string) (*DirectoryPage, error) {
	return s.fs.ListDirectory(ctx, s.ownerID, path, limit, cursor)
}

func (s *ScopedFileService) WriteFile(ctx context.Context, path string, content []byte, mimeType string) (*metadata_service.Entry, error) {
	return s.fs.WriteFile(ctx, s.ownerID, path, content, mimeType)
}

func (s *ScopedFileService) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return s.fs.ReadFile(ctx, s.ownerID, path)
}

func (s *ScopedFileService) ReadFileText(ctx context.Context, path string) (string, error) {
	return s.fs.ReadFileText(ctx, s.ownerID, path)
}

func (s *ScopedFileService) DeleteFile(ctx context.Context, path string) error {
	return s.fs.DeleteFile(ctx, s.ownerID, path)
}

func (s *ScopedFileService) CopyFile(ctx context.Context, sourcePath, destPath string) (*metadata_service.Entry, error) {
	return s.fs.CopyFile(ctx, s.ownerID, sourcePath, destPath)
}

func (s *ScopedFileService) MoveFile(ctx context.Context, sourcePath, destPath string) (*metadata_service.Entry, error) {
	return s.fs.MoveFile(ctx, s.ownerID, sourcePath, destPath)
}

func (s *ScopedFileService) GetInfo(ctx context.Context, path string) (*metadata_service.Entry, error) {
	return s.fs.GetInfo(ctx, s.ownerID, path)
}

func (s *ScopedFileService) GetWorkingDirectory() string {
	return s.fs.GetWorkingDirectory(s.ownerID)
}

func (s *ScopedFileService) SetWorkingDirectory(ctx context.Context, path string) error {
	return s.fs.SetWorkingDirectory(ctx, s.ownerID, path)
}
