// Package storage keeps uploaded files in object storage or on local disk.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store writes an object and returns its public URL.
type Store interface {
	Put(ctx context.Context, path, contentType string, body io.Reader, size int64) (string, error)
}

// HTTPStore speaks the Supabase storage REST API.
type HTTPStore struct {
	baseURL string
	key     string
	bucket  string
	http    *http.Client
}

func NewHTTPStore(baseURL, key, bucket string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		bucket:  bucket,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPStore) Put(ctx context.Context, path, contentType string, body io.Reader, size int64) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return "", err
	}
	req.ContentLength = size
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("apikey", s.key)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	res, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("storage put %s: %s: %s", path, res.Status, strings.TrimSpace(string(msg)))
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, path), nil
}

// DiskStore writes under dir; files are served by the API at publicPrefix.
type DiskStore struct {
	dir          string
	publicPrefix string
}

func NewDiskStore(dir, publicPrefix string) *DiskStore {
	return &DiskStore{dir: dir, publicPrefix: strings.TrimRight(publicPrefix, "/")}
}

func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Put(_ context.Context, path, _ string, body io.Reader, _ int64) (string, error) {
	full := filepath.Join(s.dir, filepath.FromSlash(path))
	if !strings.HasPrefix(full, filepath.Clean(s.dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid path %q", path)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return s.publicPrefix + "/" + path, nil
}
