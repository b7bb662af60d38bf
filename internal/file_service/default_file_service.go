package file_service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/casfs/casfs/internal/blob_service"
	"github.com/casfs/casfs/internal/blob_store"
	"github.com/casfs/casfs/internal/fserr"
	"github.com/casfs/casfs/internal/log_service"
	"github.com/casfs/casfs/internal/metadata_service"
	"github.com/casfs/casfs/internal/path_resolver"
	"github.com/casfs/casfs/internal/transaction_manager"
)

const deleteBatchSize = 100

type DefaultFileService struct {
	ms    metadata_service.MetadataService
	bs    blob_service.BlobService
	store blob_store.BlobStore
	tm    transaction_manager.TransactionManager
	ls    log_service.LogService

	wdMu        sync.RWMutex
	workingDirs map[string]string
}

func NewDefaultFileService(
	ms metadata_service.MetadataService,
	bs blob_service.BlobService,
	store blob_store.BlobStore,
	tm transaction_manager.TransactionManager,
	ls log_service.LogService,
) *DefaultFileService {
	return &DefaultFileService{
		ms:          ms,
		bs:          bs,
		store:       store,
		tm:          tm,
		ls:          ls,
		workingDirs: make(map[string]string),
	}
}

// resolve turns a caller path into an absolute normalized path using
// the owner's working directory as the base.
func (fs *DefaultFileService) resolve(ownerID, path string) (string, error) {
	return path_resolver.Resolve(fs.GetWorkingDirectory(ownerID), path)
}

// parentOf and nameOf operate on paths that resolve already normalized,
// so the resolver cannot fail on them.
func parentOf(path string) string {
	parent, _ := path_resolver.ParentOf(path)
	return parent
}

func nameOf(path string) string {
	name, _ := path_resolver.NameOf(path)
	return name
}

// ensureRoot provisions the owner's root directory entry on first use.
// Concurrent first calls may race on creation; losing the race is fine.
func (fs *DefaultFileService) ensureRoot(ctx context.Context, ownerID string) (*metadata_service.Entry, error) {
	root, err := fs.ms.FindByPath(ctx, ownerID, "/")
	if err == nil {
		return root, nil
	}
	if !errors.Is(err, metadata_service.ErrEntryNotFound) {
		return nil, err
	}

	root, err = fs.ms.CreateEntry(ctx, metadata_service.Entry{
		OwnerID:    ownerID,
		Type:       metadata_service.EntryTypeDir,
		Path:       "/",
		Name:       "/",
		ParentPath: "",
	})
	if errors.Is(err, metadata_service.ErrEntryAlreadyExists) {
		return fs.ms.FindByPath(ctx, ownerID, "/")
	}
	return root, err
}

func (fs *DefaultFileService) findEntry(ctx context.Context, ownerID, path string) (*metadata_service.Entry, error) {
	entry, err := fs.ms.FindByPath(ctx, ownerID, path)
	if errors.Is(err, metadata_service.ErrEntryNotFound) {
		return nil, fserr.New(fserr.CodeNotFound, "not found: "+path)
	}
	return entry, err
}

// requireParentDirectory checks that the parent of path exists and is a
// directory. The root parent always exists (provisioned lazily).
func (fs *DefaultFileService) requireParentDirectory(ctx context.Context, ownerID, path string) error {
	parentPath := parentOf(path)
	if parentPath == "/" {
		_, err := fs.ensureRoot(ctx, ownerID)
		return err
	}
	parent, err := fs.ms.FindByPath(ctx, ownerID, parentPath)
	if errors.Is(err, metadata_service.ErrEntryNotFound) {
		return fserr.New(fserr.CodeNotFound, "parent directory not found: "+parentPath)
	}
	if err != nil {
		return err
	}
	if parent.Type != metadata_service.EntryTypeDir {
		return fserr.New(fserr.CodeNotADirectory, "not a directory: "+parentPath)
	}
	return nil
}

func (fs *DefaultFileService) CreateDirectory(ctx context.Context, ownerID, path string) (*metadata_service.Entry, error) {
	resolved, err := fs.resolve(ownerID, path)
	if err != nil {
		return nil, err
	}
	if resolved == "/" {
		return fs.ensureRoot(ctx, ownerID)
	}
	if _, err := fs.ensureRoot(ctx, ownerID); err != nil {
		return nil, err
	}

	// Walk the path creating missing intermediate directories. The
	// leaf itself must not already exist.
	var created *metadata_service.Entry
	err = fs.tm.RunInTransaction(ctx, func(ctx context.Context) error {
		segments := strings.Split(strings.TrimPrefix(resolved, "/"), "/")
		current := ""
		for i, segment := range segments {
			current += "/" + segment
			leaf := i == len(segments)-1

			existing, err := fs.ms.FindByPath(ctx, ownerID, current)
			if err == nil {
				if leaf {
					return fserr.New(fserr.CodeAlreadyExists, "already exists: "+current)
				}
				if existing.Type != metadata_service.EntryTypeDir {
					return fserr.New(fserr.CodeNotADirectory, "not a directory: "+current)
				}
				continue
			}
			if !errors.Is(err, metadata_service.ErrEntryNotFound) {
				return err
			}

			created, err = fs.ms.CreateEntry(ctx, metadata_service.Entry{
				OwnerID:    ownerID,
				Type:       metadata_service.EntryTypeDir,
				Path:       current,
				Name:       segment,
				ParentPath: parentOf(current),
			})
			if err != nil {
				if errors.Is(err, metadata_service.ErrEntryAlreadyExists) {
					return fserr.New(fserr.CodeAlreadyExists, "already exists: "+current)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fs.ls.Info(log_service.LogEvent{
		Component: "file_service",
		Message:   "directory created",
		Metadata:  map[string]any{"ownerID": ownerID, "path": resolved},
	})
	return created, nil
}

func (fs *DefaultFileService) DeleteDirectory(ctx context.Context, ownerID, path string, recursive bool) error {
	resolved, err := fs.resolve(ownerID, path)
	if err != nil {
		return err
	}
	if resolved == "/" {
		return fserr.New(fserr.CodeConflict, "cannot delete the root directory")
	}

	entry, err := fs.findEntry(ctx, ownerID, resolved)
	if err != nil {
		return err
	}
	if entry.Type != metadata_service.EntryTypeDir {
		return fserr.New(fserr.CodeNotADirectory, "not a directory: "+resolved)
	}

	if !recursive {
		children, err := fs.ms.FindByParentPath(ctx, ownerID, resolved, 1, 0)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return fserr.New(fserr.CodeConflict, "directory not empty: "+resolved)
		}
	}

	err = fs.tm.RunInTransaction(ctx, func(ctx context.Context) error {
		return fs.deleteTree(ctx, ownerID, entry)
	})
	if err != nil {
		return err
	}

	fs.ls.Info(log_service.LogEvent{
		Component: "file_service",
		Message:   "directory deleted",
		Metadata:  map[string]any{"ownerID": ownerID, "path": resolved, "recursive": recursive},
	})
	return nil
}

// deleteTree removes a directory and everything under it, draining
// each directory in batches and releasing one blob reference per file.
func (fs *DefaultFileService) deleteTree(ctx context.Context, ownerID string, dir *metadata_service.Entry) error {
	for {
		children, err := fs.ms.FindByParentPath(ctx, ownerID, dir.Path, deleteBatchSize, 0)
		if err != nil {
			return err
		}
		if len(children) == 0 {
			break
		}
		for i := range children {
			child := children[i]
			if child.Type == metadata_service.EntryTypeDir {
				if err := fs.deleteTree(ctx, ownerID, &child); err != nil {
					return err
				}
				continue
			}
			if err := fs.ms.DeleteEntry(ctx, child.ID); err != nil {
				return err
			}
			if child.BlobID != "" {
				if err := fs.bs.DecrementRefCount(ctx, child.BlobID); err != nil {
					return err
				}
			}
		}
	}
	return fs.ms.DeleteEntry(ctx, dir.ID)
}

func (fs *DefaultFileService) CopyDirectory(ctx context.Context, ownerID, sourcePath, destPath string) (*metadata_service.Entry, error) {
	source, dest, err := fs.resolvePair(ownerID, sourcePath, destPath)
	if err != nil {
		return nil, err
	}
	if dest == source || strings.HasPrefix(dest, source+"/") {
		return nil, fserr.New(fserr.CodeConflict, "cannot copy a directory into itself")
	}

	sourceEntry, err := fs.findEntry(ctx, ownerID, source)
	if err != nil {
		return nil, err
	}
	if sourceEntry.Type != metadata_service.EntryTypeDir {
		return nil, fserr.New(fserr.CodeNotADirectory, "not a directory: "+source)
	}
	if err := fs.requireDestinationFree(ctx, ownerID, dest); err != nil {
		return nil, err
	}
	if err := fs.requireParentDirectory(ctx, ownerID, dest); err != nil {
		return nil, err
	}

	var created *metadata_service.Entry
	err = fs.tm.RunInTransaction(ctx, func(ctx context.Context) error {
		created, err = fs.copyTree(ctx, ownerID, sourceEntry, dest)
		return err
	})
	if err != nil {
		return nil, err
	}

	fs.ls.Info(log_service.LogEvent{
		Component: "file_service",
		Message:   "directory copied",
		Metadata:  map[string]any{"ownerID": ownerID, "source": source, "dest": dest},
	})
	return created, nil
}

// copyTree duplicates dir at destPath. Children are snapshotted before
// the destination directory is created so the copy never recurses into
// its own output.
func (fs *DefaultFileService) copyTree(ctx context.Context, ownerID string, dir *metadata_service.Entry, destPath string) (*metadata_service.Entry, error) {
	children, err := fs.ms.FindByParentPath(ctx, ownerID, dir.Path, 0, 0)
	if err != nil {
		return nil, err
	}

	created, err := fs.ms.CreateEntry(ctx, metadata_service.Entry{
		OwnerID:    ownerID,
		Type:       metadata_service.EntryTypeDir,
		Path:       destPath,
		Name:       nameOf(destPath),
		ParentPath: parentOf(destPath),
	})
	if err != nil {
		if errors.Is(err, metadata_service.ErrEntryAlreadyExists) {
			return nil, fserr.New(fserr.CodeAlreadyExists, "already exists: "+destPath)
		}
		return nil, err
	}

	for i := range children {
		child := children[i]
		childDest := destPath + "/" + child.Name
		if child.Type == metadata_service.EntryTypeDir {
			if _, err := fs.copyTree(ctx, ownerID, &child, childDest); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := fs.copyFileEntry(ctx, &child, childDest); err != nil {
			return nil, err
		}
	}

	return created, nil
}

// copyFileEntry creates a new file entry sharing the source's blob and
// takes one extra reference on that blob.
func (fs *DefaultFileService) copyFileEntry(ctx context.Context, source *metadata_service.Entry, destPath string) (*metadata_service.Entry, error) {
	created, err := fs.ms.CreateEntry(ctx, metadata_service.Entry{
		OwnerID:    source.OwnerID,
		Type:       metadata_service.EntryTypeFile,
		Path:       destPath,
		Name:       nameOf(destPath),
		ParentPath: parentOf(destPath),
		BlobID:     source.BlobID,
		Size:       source.Size,
		MimeType:   source.MimeType,
	})
	if err != nil {
		if errors.Is(err, metadata_service.ErrEntryAlreadyExists) {
			return nil, fserr.New(fserr.CodeAlreadyExists, "already exists: "+destPath)
		}
		return nil, err
	}
	if source.BlobID != "" {
		if err := fs.bs.IncrementRefCount(ctx, source.BlobID); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (fs *DefaultFileService) MoveDirectory(ctx context.Context, ownerID, sourcePath, destPath string) (*metadata_service.Entry, error) {
	source, dest, err := fs.resolvePair(ownerID, sourcePath, destPath)
	if err != nil {
		return nil, err
	}
	if source == "/" {
		return nil, fserr.New(fserr.CodeConflict, "cannot move the root directory")
	}
	if dest == source || strings.HasPrefix(dest, source+"/") {
		return nil, fserr.New(fserr.CodeConflict, "cannot move a directory into itself")
	}

	sourceEntry, err := fs.findEntry(ctx, ownerID, source)
	if err != nil {
		return nil, err
	}
	if sourceEntry.Type != metadata_service.EntryTypeDir {
		return nil, fserr.New(fserr.CodeNotADirectory, "not a directory: "+source)
	}
	if err := fs.requireDestinationFree(ctx, ownerID, dest); err != nil {
		return nil, err
	}
	if err := fs.requireParentDirectory(ctx, ownerID, dest); err != nil {
		return nil, err
	}

	var moved *metadata_service.Entry
	err = fs.tm.RunInTransaction(ctx, func(ctx context.Context) error {
		moved, err = fs.moveTree(ctx, ownerID, sourceEntry, dest)
		return err
	})
	if err != nil {
		return nil, err
	}

	fs.ls.Info(log_service.LogEvent{
		Component: "file_service",
		Message:   "directory moved",
		Metadata:  map[string]any{"ownerID": ownerID, "source": source, "dest": dest},
	})
	return moved, nil
}

// moveTree rewrites dir's path and the path prefix of every descendant.
func (fs *DefaultFileService) moveTree(ctx context.Context, ownerID string, dir *metadata_service.Entry, destPath string) (*metadata_service.Entry, error) {
	name := nameOf(destPath)
	parentPath := parentOf(destPath)
	moved, err := fs.ms.UpdateEntry(ctx, dir.ID, metadata_service.EntryUpdate{
		Path:       &destPath,
		Name:       &name,
		ParentPath: &parentPath,
	})
	if err != nil {
		if errors.Is(err, metadata_service.ErrEntryAlreadyExists) {
			return nil, fserr.New(fserr.CodeAlreadyExists, "already exists: "+destPath)
		}
		return nil, err
	}

	children, err := fs.ms.FindByParentPath(ctx, ownerID, dir.Path, 0, 0)
	if err != nil {
		return nil, err
	}
	for i := range children {
		child := children[i]
		childDest := destPath + "/" + child.Name
		if child.Type == metadata_service.EntryTypeDir {
			if _, err := fs.moveTree(ctx, ownerID, &child, childDest); err != nil {
				return nil, err
			}
			continue
		}
		childName := child.Name
		if _, err := fs.ms.UpdateEntry(ctx, child.ID, metadata_service.EntryUpdate{
			Path:       &childDest,
			Name:       &childName,
			ParentPath: &destPath,
		}); err != nil {
			return nil, err
		}
	}

	return moved, nil
}

func (fs *DefaultFileService) ListDirectory(ctx context.Context, ownerID, path string, limit int, cursor string) (*DirectoryPage, error) {
	resolved, err := fs.resolve(ownerID, path)
	if err != nil {
		return nil, err
	}
	if _, err := fs.ensureRoot(ctx, ownerID); err != nil {
		return nil, err
	}

	entry, err := fs.findEntry(ctx, ownerID, resolved)
	if err != nil {
		return nil, err
	}
	if entry.Type != metadata_service.EntryTypeDir {
		return nil, fserr.New(fserr.CodeNotADirectory, "not a directory: "+resolved)
	}

	if limit <= 0 {
		children, err := fs.ms.FindByParentPath(ctx, ownerID, resolved, 0, 0)
		if err != nil {
			return nil, err
		}
		return &DirectoryPage{Items: children}, nil
	}

	offset := decodeCursor(cursor, resolved)

	// Fetch one extra row to learn whether another page exists.
	children, err := fs.ms.FindByParentPath(ctx, ownerID, resolved, limit+1, offset)
	if err != nil {
		return nil, err
	}

	page := &DirectoryPage{}
	if len(children) > limit {
		page.Items = children[:limit]
		page.NextCursor = encodeCursor(listCursor{Offset: offset + limit, Path: resolved})
	} else {
		page.Items = children
	}
	return page, nil
}

func (fs *DefaultFileService) WriteFile(ctx context.Context, ownerID, path string, content []byte, mimeType string) (*metadata_service.Entry, error) {
	resolved, err := fs.resolve(ownerID, path)
	if err != nil {
		return nil, err
	}
	if resolved == "/" {
		return nil, fserr.New(fserr.CodeConflict, "cannot write a file over the root directory")
	}
	if _, err := fs.ensureRoot(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := fs.requireParentDirectory(ctx, ownerID, resolved); err != nil {
		return nil, err
	}

	existing, err := fs.ms.FindByPath(ctx, ownerID, resolved)
	if err != nil && !errors.Is(err, metadata_service.ErrEntryNotFound) {
		return nil, err
	}
	if existing != nil && existing.Type != metadata_service.EntryTypeFile {
		return nil, fserr.New(fserr.CodeConflict, "cannot overwrite a directory with a file: "+resolved)
	}

	if mimeType == "" {
		mimeType = http.DetectContentType(content)
	}

	digest := sha256.Sum256(content)
	hexDigest := hex.EncodeToString(digest[:])
	size := int64(len(content))

	// Upload before touching metadata: a failed transaction then
	// leaves at worst an unreferenced object the sweeper can ignore.
	if err := fs.store.Put(ctx, hexDigest, content); err != nil {
		return nil, err
	}

	var result *metadata_service.Entry
	err = fs.tm.RunInTransaction(ctx, func(ctx context.Context) error {
		blob, err := fs.bs.UpsertBlob(ctx, hexDigest, size, blob_store.StorageKey(hexDigest))
		if err != nil {
			return err
		}

		if existing == nil {
			result, err = fs.ms.CreateEntry(ctx, metadata_service.Entry{
				OwnerID:    ownerID,
				Type:       metadata_service.EntryTypeFile,
				Path:       resolved,
				Name:       nameOf(resolved),
				ParentPath: parentOf(resolved),
				BlobID:     blob.ID,
				Size:       size,
				MimeType:   mimeType,
			})
			if errors.Is(err, metadata_service.ErrEntryAlreadyExists) {
				return fserr.New(fserr.CodeAlreadyExists, "already exists: "+resolved)
			}
			if err != nil {
				return err
			}
			return fs.bs.IncrementRefCount(ctx, blob.ID)
		}

		// Overwrite: repoint the entry, then settle references. The
		// old blob loses its reference only after the entry is updated.
		result, err = fs.ms.UpdateEntry(ctx, existing.ID, metadata_service.EntryUpdate{
			BlobID:   &blob.ID,
			Size:     &size,
			MimeType: &mimeType,
		})
		if err != nil {
			return err
		}
		if existing.BlobID == blob.ID {
			return nil
		}
		if err := fs.bs.IncrementRefCount(ctx, blob.ID); err != nil {
			return err
		}
		if existing.BlobID != "" {
			return fs.bs.DecrementRefCount(ctx, existing.BlobID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fs.ls.Info(log_service.LogEvent{
		Component: "file_service",
		Message:   "file written",
		Metadata:  map[string]any{"ownerID": ownerID, "path": resolved, "size": size, "sha256": hexDigest},
	})
	return result, nil
}

func (fs *DefaultFileService) ReadFile(ctx context.Context, ownerID, path string) ([]byte, error) {
	resolved, err := fs.resolve(ownerID, path)
	if err != nil {
		return nil, err
	}

	entry, err := fs.findEntry(ctx, ownerID, resolved)
	if err != nil {
		return nil, err
	}
	if entry.Type != metadata_service.EntryTypeFile {
		return nil, fserr.New(fserr.CodeNotAFile, "not a file: "+resolved)
	}
	if entry.BlobID == "" {
		return nil, fserr.New(fserr.CodeConflict, "file has no content reference: "+resolved)
	}

	blob, err := fs.bs.FindByID(ctx, entry.BlobID)
	if err != nil {
		if errors.Is(err, blob_service.ErrBlobNotFound) {
			return nil, fserr.New(fserr.CodeNotFound, "content not found: "+resolved)
		}
		return nil, err
	}

	content, err := fs.store.Get(ctx, blob.Sha256)
	if err != nil {
		if errors.Is(err, blob_store.ErrBlobNotFound) {
			return nil, fserr.New(fserr.CodeNotFound, "content not found: "+resolved)
		}
		return nil, err
	}
	return content, nil
}

func (fs *DefaultFileService) ReadFileText(ctx context.Context, ownerID, path string) (string, error) {
	content, err := fs.ReadFile(ctx, ownerID, path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (fs *DefaultFileService) DeleteFile(ctx context.Context, ownerID, path string) error {
	resolved, err := fs.resolve(ownerID, path)
	if err != nil {
		return err
	}

	entry, err := fs.findEntry(ctx, ownerID, resolved)
	if err != nil {
		return err
	}
	if entry.Type != metadata_service.EntryTypeFile {
		return fserr.New(fserr.CodeNotAFile, "not a file: "+resolved)
	}

	err = fs.tm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := fs.ms.DeleteEntry(ctx, entry.ID); err != nil {
			return err
		}
		if entry.BlobID != "" {
			return fs.bs.DecrementRefCount(ctx, entry.BlobID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fs.ls.Info(log_service.LogEvent{
		Component: "file_service",
		Message:   "file deleted",
		Metadata:  map[string]any{"ownerID": ownerID, "path": resolved},
	})
	return nil
}

func (fs *DefaultFileService) CopyFile(ctx context.Context, ownerID, sourcePath, destPath string) (*metadata_service.Entry, error) {
	source, dest, err := fs.resolvePair(ownerID, sourcePath, destPath)
	if err != nil {
		return nil, err
	}

	sourceEntry, err := fs.findEntry(ctx, ownerID, source)
	if err != nil {
		return nil, err
	}
	if sourceEntry.Type != metadata_service.EntryTypeFile {
		return nil, fserr.New(fserr.CodeNotAFile, "not a file: "+source)
	}
	if err := fs.requireDestinationFree(ctx, ownerID, dest); err != nil {
		return nil, err
	}
	if err := fs.requireParentDirectory(ctx, ownerID, dest); err != nil {
		return nil, err
	}

	var created *metadata_service.Entry
	err = fs.tm.RunInTransaction(ctx, func(ctx context.Context) error {
		created, err = fs.copyFileEntry(ctx, sourceEntry, dest)
		return err
	})
	if err != nil {
		return nil, err
	}

	fs.ls.Info(log_service.LogEvent{
		Component: "file_service",
		Message:   "file copied",
		Metadata:  map[string]any{"ownerID": ownerID, "source": source, "dest": dest},
	})
	return created, nil
}

func (fs *DefaultFileService) MoveFile(ctx context.Context, ownerID, sourcePath, destPath string) (*metadata_service.Entry, error) {
	source, dest, err := fs.resolvePair(ownerID, sourcePath, destPath)
	if err != nil {
		return nil, err
	}

	sourceEntry, err := fs.findEntry(ctx, ownerID, source)
	if err != nil {
		return nil, err
	}
	if sourceEntry.Type != metadata_service.EntryTypeFile {
		return nil, fserr.New(fserr.CodeNotAFile, "not a file: "+source)
	}
	if err := fs.requireDestinationFree(ctx, ownerID, dest); err != nil {
		return nil, err
	}
	if err := fs.requireParentDirectory(ctx, ownerID, dest); err != nil {
		return nil, err
	}

	name := nameOf(dest)
	parentPath := parentOf(dest)
	moved, err := fs.ms.UpdateEntry(ctx, sourceEntry.ID, metadata_service.EntryUpdate{
		Path:       &dest,
		Name:       &name,
		ParentPath: &parentPath,
	})
	if err != nil {
		if errors.Is(err, metadata_service.ErrEntryAlreadyExists) {
			return nil, fserr.New(fserr.CodeAlreadyExists, "already exists: "+dest)
		}
		return nil, err
	}

	fs.ls.Info(log_service.LogEvent{
		Component: "file_service",
		Message:   "file moved",
		Metadata:  map[string]any{"ownerID": ownerID, "source": source, "dest": dest},
	})
	return moved, nil
}

func (fs *DefaultFileService) GetInfo(ctx context.Context, ownerID, path string) (*metadata_service.Entry, error) {
	resolved, err := fs.resolve(ownerID, path)
	if err != nil {
		return nil, err
	}
	if resolved == "/" {
		return fs.ensureRoot(ctx, ownerID)
	}
	return fs.findEntry(ctx, ownerID, resolved)
}

func (fs *DefaultFileService) GetWorkingDirectory(ownerID string) string {
	fs.wdMu.RLock()
	defer fs.wdMu.RUnlock()

	if wd, ok := fs.workingDirs[ownerID]; ok {
		return wd
	}
	return "/"
}

func (fs *DefaultFileService) SetWorkingDirectory(ctx context.Context, ownerID, path string) error {
	resolved, err := fs.resolve(ownerID, path)
	if err != nil {
		return err
	}

	if resolved == "/" {
		if _, err := fs.ensureRoot(ctx, ownerID); err != nil {
			return err
		}
	} else {
		entry, err := fs.findEntry(ctx, ownerID, resolved)
		if err != nil {
			return err
		}
		if entry.Type != metadata_service.EntryTypeDir {
			return fserr.New(fserr.CodeNotADirectory, "not a directory: "+resolved)
		}
	}

	fs.wdMu.Lock()
	fs.workingDirs[ownerID] = resolved
	fs.wdMu.Unlock()
	return nil
}

func (fs *DefaultFileService) resolvePair(ownerID, sourcePath, destPath string) (string, string, error) {
	source, err := fs.resolve(ownerID, sourcePath)
	if err != nil {
		return "", "", err
	}
	dest, err := fs.resolve(ownerID, destPath)
	if err != nil {
		return "", "", err
	}
	return source, dest, nil
}

func (fs *DefaultFileService) requireDestinationFree(ctx context.Context, ownerID, dest string) error {
	_, err := fs.ms.FindByPath(ctx, ownerID, dest)
	if err == nil {
		return fserr.New(fserr.CodeAlreadyExists, "already exists: "+dest)
	}
	if errors.Is(err, metadata_service.ErrEntryNotFound) {
		return nil
	}
	return err
}
