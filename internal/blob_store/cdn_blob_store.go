package blob_store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CDNBlobStore stores blobs in a bunny.net-style storage zone over
// HTTP. Objects live at <endpoint>/<zone>/<storage key> and every
// request carries the zone access key.
type CDNBlobStore struct {
	endpoint    string
	storageZone string
	accessKey   string
	client      *http.Client
}

func NewCDNBlobStore(endpoint, storageZone, accessKey string) *CDNBlobStore {
	return &CDNBlobStore{
		endpoint:    strings.TrimRight(endpoint, "/"),
		storageZone: storageZone,
		accessKey:   accessKey,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (bs *CDNBlobStore) blobURL(sha256 string) string {
	return bs.endpoint + "/" + bs.storageZone + "/" + StorageKey(sha256)
}

func (bs *CDNBlobStore) Put(ctx context.Context, sha256 string, content []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, bs.blobURL(sha256), bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("building upload request for %s: %w", sha256, err)
	}
	req.Header.Set("AccessKey", bs.accessKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := bs.client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading blob %s: %w", sha256, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("uploading blob %s: unexpected status %d", sha256, resp.StatusCode)
	}
	return nil
}

func (bs *CDNBlobStore) Get(ctx context.Context, sha256 string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bs.blobURL(sha256), nil)
	if err != nil {
		return nil, fmt.Errorf("building download request for %s: %w", sha256, err)
	}
	req.Header.Set("AccessKey", bs.accessKey)

	resp, err := bs.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading blob %s: %w", sha256, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, ErrBlobNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("downloading blob %s: unexpected status %d", sha256, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", sha256, err)
	}
	return content, nil
}

func (bs *CDNBlobStore) Delete(ctx context.Context, sha256 string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, bs.blobURL(sha256), nil)
	if err != nil {
		return fmt.Errorf("building delete request for %s: %w", sha256, err)
	}
	req.Header.Set("AccessKey", bs.accessKey)

	resp, err := bs.client.Do(req)
	if err != nil {
		return fmt.Errorf("deleting blob %s: %w", sha256, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// A missing object is already deleted.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("deleting blob %s: unexpected status %d", sha256, resp.StatusCode)
	}
	return nil
}
