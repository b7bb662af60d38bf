package blob_store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// LocalDiscBlobStore keeps blob content under baseDir, sharded by the
// storage key. When compression is enabled, content is zstd-compressed
// on disk and decompressed on read.
type LocalDiscBlobStore struct {
	baseDir string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewLocalDiscBlobStore(baseDir string, compress bool) (*LocalDiscBlobStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating blob directory %s: %w", baseDir, err)
	}

	store := &LocalDiscBlobStore{baseDir: baseDir}

	if compress {
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		store.encoder = encoder
		store.decoder = decoder
	}

	return store, nil
}

func (bs *LocalDiscBlobStore) blobPath(sha256 string) string {
	return filepath.Join(bs.baseDir, filepath.FromSlash(StorageKey(sha256)))
}

func (bs *LocalDiscBlobStore) Put(ctx context.Context, sha256 string, content []byte) error {
	path := bs.blobPath(sha256)

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating shard directory for %s: %w", sha256, err)
	}

	data := content
	if bs.encoder != nil {
		data = bs.encoder.EncodeAll(content, nil)
	}

	// Write to a temp file and rename so readers never observe a
	// partially written blob.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", sha256, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing blob %s: %w", sha256, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing blob %s: %w", sha256, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming blob %s: %w", sha256, err)
	}

	return nil
}

func (bs *LocalDiscBlobStore) Get(ctx context.Context, sha256 string) ([]byte, error) {
	data, err := os.ReadFile(bs.blobPath(sha256))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("reading blob %s: %w", sha256, err)
	}

	if bs.decoder != nil {
		content, err := bs.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing blob %s: %w", sha256, err)
		}
		return content, nil
	}

	return data, nil
}

func (bs *LocalDiscBlobStore) Delete(ctx context.Context, sha256 string) error {
	err := os.Remove(bs.blobPath(sha256))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting blob %s: %w", sha256, err)
	}
	return nil
}
