// Package media saves client uploads into the configured storage backend.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"

	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/storage"
)

// Upload is a file received from a client, detached from the transport.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// FromFileHeader opens a multipart file. The caller closes the returned closer.
func FromFileHeader(fh *multipart.FileHeader) (Upload, io.Closer, error) {
	if fh == nil {
		return Upload{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return Upload{}, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open uploaded file")
	}
	return Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

// Ext returns the lowercased extension of name, dot included.
func Ext(name string) string {
	return strings.ToLower(path.Ext(SanitizeFileName(name)))
}

// Stem returns name without directories or extension.
func Stem(name string) string {
	base := SanitizeFileName(name)
	return strings.TrimSuffix(base, path.Ext(base))
}

// SanitizeFileName drops directories and control characters and turns spaces
// into hyphens.
func SanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_")
}

// Uploader writes uploads below per-owner prefixes and turns keys into URLs.
type Uploader struct {
	store storage.Store
}

// NewUploader wraps a storage backend.
func NewUploader(store storage.Store) (*Uploader, error) {
	if store == nil {
		return nil, fmt.Errorf("storage backend required")
	}
	return &Uploader{store: store}, nil
}

// Store exposes the backend for listing and renames.
func (u *Uploader) Store() storage.Store {
	return u.store
}

// SaveAs writes up to key and returns the public URL.
func (u *Uploader) SaveAs(ctx context.Context, key string, up Upload) (string, error) {
	if up.Body == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	contentType := up.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		if guessed := mime.TypeByExtension(Ext(up.Filename)); guessed != "" {
			contentType = guessed
		}
	}
	if err := u.store.Save(ctx, key, up.Body, contentType); err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file name")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upload")
	}
	return u.store.URL(key), nil
}

// SaveUnique stores up as {prefix}/{uuid}{ext}.
func (u *Uploader) SaveUnique(ctx context.Context, prefix string, up Upload) (string, string, error) {
	key := path.Join(prefix, uuid.NewString()+Ext(up.Filename))
	url, err := u.SaveAs(ctx, key, up)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// SaveNamed stores up as {prefix}/{stem}_{uuid}{ext}, keeping the client's
// file name readable.
func (u *Uploader) SaveNamed(ctx context.Context, prefix string, up Upload) (string, string, error) {
	stem := Stem(up.Filename)
	if stem == "" {
		stem = "file"
	}
	key := path.Join(prefix, fmt.Sprintf("%s_%s%s", stem, uuid.NewString(), Ext(up.Filename)))
	url, err := u.SaveAs(ctx, key, up)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// URL maps a key to its public URL.
func (u *Uploader) URL(key string) string {
	return u.store.URL(key)
}

// KeyOf recovers the storage key from a URL previously returned by this uploader.
func (u *Uploader) KeyOf(url string) string {
	return storage.KeyFromURL(u.store.URL(""), url)
}

// RemoveURL deletes the object behind url. Missing objects are ignored.
func (u *Uploader) RemoveURL(ctx context.Context, url string) error {
	key := u.KeyOf(url)
	if key == "" {
		return nil
	}
	if err := u.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}
