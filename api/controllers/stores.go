package controllers

import (
	"net/http"

	"github.com/leanai/mumul-backend/api/responses"
	"github.com/leanai/mumul-backend/api/validators"
	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/pkg/logger"
)

// storeUpdateRequest is the JSON form of a store update. Banner "" clears it.
type storeUpdateRequest struct {
	Name         *string `json:"store_name" validate:"omitempty,min=1"`
	Address      *string `json:"store_address"`
	Category     *string `json:"store_category"`
	Introduction *string `json:"store_introduction"`
	OpeningHours *string `json:"opening_hours"`
	AgentID      *string `json:"agent_id"`
	Banner       *string `json:"banner"`
}

func (r storeUpdateRequest) toInput() stores.UpdateInput {
	return stores.UpdateInput{
		Name:         r.Name,
		Address:      r.Address,
		Category:     r.Category,
		Introduction: r.Introduction,
		OpeningHours: r.OpeningHours,
		AgentID:      r.AgentID,
		ClearBanner:  r.Banner != nil && *r.Banner == "",
	}
}

// StoreList returns the caller's stores.
func StoreList(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "store")
			return
		}
		ownerID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func StoreDetail(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "store")
			return
		}
		ownerID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.ParseUUIDParam(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := svc.Get(r.Context(), ownerID, storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

// StoreUpdate applies a partial update. A multipart body may carry a new
// banner file.
func StoreUpdate(svc stores.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "store")
			return
		}
		ownerID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.ParseUUIDParam(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uploads := &uploadSet{}
		defer uploads.Close()

		var payload storeUpdateRequest
		var banner *media.Upload
		if isMultipart(r) {
			if err := validators.ParseMultipart(w, r, maxBytes); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			payload = storeUpdateRequest{
				Name:         optionalString(r, "store_name"),
				Address:      optionalString(r, "store_address"),
				Category:     optionalString(r, "store_category"),
				Introduction: optionalString(r, "store_introduction"),
				OpeningHours: optionalString(r, "opening_hours"),
				AgentID:      optionalString(r, "agent_id"),
				Banner:       optionalString(r, "banner"),
			}
			if banner, err = uploads.formFile(r, "banner"); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if err := validators.Struct(&payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payload.toInput()
		input.Banner = banner
		store, err := svc.Update(r.Context(), ownerID, storeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

// Storefront returns a store's public page data.
func Storefront(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "store")
			return
		}
		store, err := svc.GetBySlug(r.Context(), slugParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}
