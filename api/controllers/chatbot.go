package controllers

import (
	"net/http"

	"github.com/leanai/mumul-backend/api/responses"
	"github.com/leanai/mumul-backend/api/validators"
	"github.com/leanai/mumul-backend/internal/chatbot"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
)

// Chatbot forwards one user message to the conversational agent.
func Chatbot(svc chatbot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotConfigured, "chatbot is not configured"))
			return
		}
		var body chatbot.Request
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reply, err := svc.Reply(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reply)
	}
}
