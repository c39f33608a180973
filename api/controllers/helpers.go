package controllers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/api/middleware"
	"github.com/leanai/mumul-backend/api/responses"
	"github.com/leanai/mumul-backend/api/validators"
	"github.com/leanai/mumul-backend/internal/media"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
)

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}

// currentUser returns the authenticated account id.
func currentUser(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return id, nil
}

// optionalUser returns the account id when the request carried a token.
func optionalUser(r *http.Request) *uuid.UUID {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return nil
	}
	return &id
}

// currentTenant returns the public id carried by a public staff token.
func currentTenant(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.TenantIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "public context missing")
	}
	return id, nil
}

// uploadSet keeps the opened multipart files of one request.
type uploadSet struct {
	closers []io.Closer
}

func (u *uploadSet) open(fh *multipart.FileHeader) (*media.Upload, error) {
	if fh == nil {
		return nil, nil
	}
	up, closer, err := media.FromFileHeader(fh)
	if err != nil {
		return nil, err
	}
	u.closers = append(u.closers, closer)
	return &up, nil
}

func (u *uploadSet) Close() {
	for _, c := range u.closers {
		_ = c.Close()
	}
}

// formFile opens the first file sent under key, if any.
func (u *uploadSet) formFile(r *http.Request, key string) (*media.Upload, error) {
	return u.open(validators.FormFile(r, key))
}

// optionalString returns a pointer to the trimmed form value when the field
// was sent at all.
func optionalString(r *http.Request, key string) *string {
	if r.MultipartForm != nil {
		if _, ok := r.MultipartForm.Value[key]; !ok {
			return nil
		}
	} else if _, ok := r.Form[key]; !ok {
		return nil
	}
	v := validators.FormValue(r, key)
	return &v
}

// slugParam reads a slug URL parameter. chi matches on the raw path, so
// Hangul slugs arrive percent-encoded.
func slugParam(r *http.Request) string {
	slug, err := pathValue(r, "slug")
	if err != nil {
		return ""
	}
	return slug
}
