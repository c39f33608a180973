package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/api/responses"
	"github.com/leanai/mumul-backend/api/validators"
	"github.com/leanai/mumul-backend/internal/edits"
	"github.com/leanai/mumul-backend/pkg/logger"
)

type submitFunc func(ctx context.Context, accountID uuid.UUID, input edits.SubmitInput) ([]edits.EditDTO, error)

// RequestService records a store owner's service request.
func RequestService(svc edits.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return submitEdits(nil, maxBytes, logg)
	}
	return submitEdits(svc.SubmitForStoreOwner, maxBytes, logg)
}

// PublicRequestService records a public staff member's service request.
func PublicRequestService(svc edits.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return submitEdits(nil, maxBytes, logg)
	}
	return submitEdits(svc.SubmitForPublicStaff, maxBytes, logg)
}

func submitEdits(submit submitFunc, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if submit == nil {
			unavailable(w, r, logg, "request")
			return
		}
		accountID, err := currentUser(r)
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

		input := edits.SubmitInput{
			Title:   validators.FormValue(r, "title"),
			Content: validators.FormValue(r, "content"),
		}
		for _, fh := range validators.FormFiles(r, "files", "files[]", "file") {
			up, err := uploads.open(fh)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Files = append(input.Files, *up)
		}

		created, err := submit(r.Context(), accountID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, map[string]any{"success": true, "edits": created})
	}
}

