package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	BucketSharedFiles     = "shared_files"
	BucketProfilePictures = "profile_pictures"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStore keeps blobs addressed by bucket and key.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, key string) error
	URL(ctx context.Context, bucket, key string) (string, error)
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// BuildObjectKey returns "<owner>/<ulid>_<sanitized filename>".
func BuildObjectKey(owner uuid.UUID, filename string) string {
	name := unsafeKeyChars.ReplaceAllString(filepath.Base(filename), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return owner.String() + "/" + ulid.Make().String() + "_" + name
}

type diskObjectStore struct {
	root    string
	baseURL string
}

// NewDiskObjectStore stores each bucket as a directory under root. URLs are
// built from baseURL, which should point at whatever serves root.
func NewDiskObjectStore(root, baseURL string) (ObjectStore, error) {
	for _, bucket := range []string{BucketSharedFiles, BucketProfilePictures} {
		if err := os.MkdirAll(filepath.Join(root, bucket), 0755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}

	return &diskObjectStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *diskObjectStore) objectPath(bucket, key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(clean)), nil
}

func (s *diskObjectStore) Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	dst, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("object %s/%s already exists", bucket, key)
		}
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(dst, body); err != nil {
		dst.Close()
		os.Remove(p)
		return fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(p)
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

func (s *diskObjectStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (s *diskObjectStore) Delete(ctx context.Context, bucket, key string) error {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *diskObjectStore) URL(ctx context.Context, bucket, key string) (string, error) {
	if _, err := s.objectPath(bucket, key); err != nil {
		return "", err
	}
	return s.baseURL + "/" + bucket + "/" + (&url.URL{Path: key}).EscapedPath(), nil
}
