package validators

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

// multipartMemory is how much of a form is buffered in memory before spilling
// to temporary files.
const multipartMemory = 8 << 20

// ParseMultipart caps the body at maxBytes and parses the form.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return pkgerrors.New(pkgerrors.CodeTooLarge, "upload too large").WithDetails(map[string]any{"max_bytes": maxBytes})
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return pkgerrors.New(pkgerrors.CodeValidation, "multipart form required")
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// FormValue returns a trimmed form value.
func FormValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// FormFile returns the first file for key, or nil when none was sent.
func FormFile(r *http.Request, key string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[key]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// FormFiles returns every file sent under any of keys.
func FormFiles(r *http.Request, keys ...string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	var out []*multipart.FileHeader
	for _, key := range keys {
		out = append(out, r.MultipartForm.File[key]...)
	}
	return out
}

// Extension returns the lowercased extension of a file name including the dot.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// HasExtension reports whether name ends with one of allowed (".png" style).
func HasExtension(name string, allowed ...string) bool {
	ext := Extension(name)
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
