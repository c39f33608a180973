// Package storage persists uploaded media (profile photos, feed images,
// request-service files, QR codes, charts) under slash-separated keys such as
// "uploads/store_{id}/feed/menu_{uuid}.jpg".
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/leanai/mumul-backend/pkg/config"
	"github.com/leanai/mumul-backend/pkg/enums"
	"github.com/leanai/mumul-backend/pkg/logger"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("storage object not found")

// ErrInvalidKey is returned for empty keys or keys escaping the root.
var ErrInvalidKey = errors.New("invalid storage key")

// Object describes a stored file.
type Object struct {
	Key  string
	Size int64
}

// Name returns the last path segment of the key.
func (o Object) Name() string {
	return path.Base(o.Key)
}

// Store is implemented by every backend.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	List(ctx context.Context, prefix string) ([]Object, error)
	Folders(ctx context.Context, prefix string) ([]string, error)
	Rename(ctx context.Context, from, to string) error
	URL(key string) string
	Ping(ctx context.Context) error
}

// New builds the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (Store, error) {
	driver, err := enums.ParseStorageDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	switch driver {
	case enums.StorageDriverS3:
		return NewS3(ctx, cfg, logg)
	default:
		return NewLocal(cfg.MediaRoot, cfg.MediaURL)
	}
}

// CleanKey normalizes a key and rejects traversal outside the root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+key), "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// JoinURL prefixes key with base, keeping exactly one slash between them.
func JoinURL(base, key string) string {
	if base == "" {
		return "/" + key
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL strips the media URL prefix from a stored URL, returning the key.
// Values that are already bare keys pass through.
func KeyFromURL(base, value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	prefix := strings.TrimRight(base, "/") + "/"
	if base != "" && strings.HasPrefix(trimmed, prefix) {
		return strings.TrimPrefix(trimmed, prefix)
	}
	return strings.TrimLeft(trimmed, "/")
}

// OwnerPrefix returns the upload folder for an account scope, such as
// "uploads/store_{id}" or "uploads/public_{id}".
func OwnerPrefix(owner string, id fmt.Stringer) string {
	return fmt.Sprintf("uploads/%s_%s", owner, id.String())
}
