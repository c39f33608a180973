package controllers

import (
	"net/http"
	"strings"

	"github.com/leanai/mumul-backend/api/responses"
	"github.com/leanai/mumul-backend/api/validators"
	"github.com/leanai/mumul-backend/internal/publicusers"
	"github.com/leanai/mumul-backend/internal/users"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
)

const defaultProfileType = "defaultProfile"

// ProfileGet returns the store owner's "my page" view.
func ProfileGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "profile")
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func ProfileUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "profile")
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body users.UpdateProfileInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.UpdateProfile(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// ProfilePhoto stores an uploaded profile photo, or selects the default one
// when type=defaultProfile is sent.
func ProfilePhoto(svc users.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "profile")
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.ParseMultipart(w, r, maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uploads := &uploadSet{}
		defer uploads.Close()

		input := users.PhotoInput{UseDefault: validators.FormValue(r, "type") == defaultProfileType}
		if !input.UseDefault {
			if input.Upload, err = uploads.formFile(r, "profile_photo"); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if !input.UseDefault && input.Upload == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "프로필 사진 파일이 필요합니다."))
			return
		}
		result, err := svc.UpdatePhoto(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func PublicProfileGet(svc publicusers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "profile")
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// PublicProfileUpdate accepts either JSON or a multipart form carrying a
// profile_photo file.
func PublicProfileUpdate(svc publicusers.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "profile")
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uploads := &uploadSet{}
		defer uploads.Close()

		var body publicusers.UpdateProfileInput
		if isMultipart(r) {
			if err := validators.ParseMultipart(w, r, maxBytes); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			body = publicusers.UpdateProfileInput{
				Name:           optionalString(r, "name"),
				Email:          optionalString(r, "email"),
				PhoneNumber:    optionalString(r, "phone_number"),
				DepartmentName: optionalString(r, "department_name"),
				ProfilePhoto:   optionalString(r, "profile_photo"),
			}
			if raw := optionalString(r, "marketing"); raw != nil {
				marketing := parseBool(*raw)
				body.Marketing = &marketing
			}
			if body.PhotoUpload, err = uploads.formFile(r, "profile_photo"); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if err := validators.Struct(&body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.UpdateProfile(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
