package controllers

import (
	"net/http"

	"github.com/leanai/mumul-backend/api/responses"
	"github.com/leanai/mumul-backend/api/validators"
	"github.com/leanai/mumul-backend/internal/departments"
	"github.com/leanai/mumul-backend/internal/publics"
	"github.com/leanai/mumul-backend/pkg/logger"
)

type publicCreateRequest struct {
	Name         string  `json:"public_name" validate:"required"`
	Address      *string `json:"public_address"`
	Tel          *string `json:"public_tel"`
	OpeningHours *string `json:"opening_hours"`
	AgentID      *string `json:"agent_id"`
}

func PublicList(svc publics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "public")
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func PublicDetail(svc publics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "public")
			return
		}
		publicID, err := validators.ParseUUIDParam(r, "publicID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		public, err := svc.Get(r.Context(), publicID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, public)
	}
}

// PublicCreate registers an institution from JSON or a multipart form with
// an optional logo file.
func PublicCreate(svc publics.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "public")
			return
		}
		uploads := &uploadSet{}
		defer uploads.Close()

		var body publicCreateRequest
		var input publics.CreateInput
		if isMultipart(r) {
			if err := validators.ParseMultipart(w, r, maxBytes); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			body = publicCreateRequest{
				Name:         validators.FormValue(r, "public_name"),
				Address:      optionalString(r, "public_address"),
				Tel:          optionalString(r, "public_tel"),
				OpeningHours: optionalString(r, "opening_hours"),
				AgentID:      optionalString(r, "agent_id"),
			}
			if err := validators.Struct(&body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			logo, err := uploads.formFile(r, "logo")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Logo = logo
		} else if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Name = body.Name
		input.Address = body.Address
		input.Tel = body.Tel
		input.OpeningHours = body.OpeningHours
		input.AgentID = body.AgentID

		public, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, public)
	}
}

// PublicStorefront returns a public's page data by slug.
func PublicStorefront(svc publics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "public")
			return
		}
		public, err := svc.GetBySlug(r.Context(), slugParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, public)
	}
}

// PublicUserInfo returns the caller with their public and department.
func PublicUserInfo(svc publics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "public")
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		info, err := svc.UserInfo(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

// DepartmentList returns the department names of a public picked by slug
// or public_id.
func DepartmentList(svc departments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "department")
			return
		}
		q := r.URL.Query()
		names, err := svc.List(r.Context(), q.Get("slug"), q.Get("public_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"departments": names})
	}
}

func DepartmentCreate(svc departments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "department")
			return
		}
		var body departments.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dept, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, dept)
	}
}

type departmentMoveRequest struct {
	DepartmentName string `json:"department_name" validate:"required"`
}

// DepartmentMove moves the caller into a department of their public.
func DepartmentMove(svc departments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "department")
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body departmentMoveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Move(r.Context(), userID, body.DepartmentName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
