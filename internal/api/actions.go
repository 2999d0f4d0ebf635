package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/MikeSquared-Agency/codemanager/internal/actions"
	"github.com/MikeSquared-Agency/codemanager/internal/splice"
)

// ActionRequest is the editor payload for POST /api/v1/actions/{action}.
type ActionRequest struct {
	Document    string      `json:"document"`
	LanguageID  string      `json:"language_id"`
	Selection   splice.Span `json:"selection"`
	Instruction string      `json:"instruction,omitempty"`
	Problem     string      `json:"problem,omitempty"`
}

// ActionResponse carries the diff pair on success and the notification always.
type ActionResponse struct {
	Outcome string `json:"outcome"`
	*actions.DiffProposal
	Notification actions.Notification `json:"notification"`
}

// runAction handles POST /api/v1/actions/{action}
func (s *Server) runAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	// The generation runs to completion even if the editor disconnects.
	ctx := context.WithoutCancel(r.Context())

	res, err := s.actions.Run(ctx, actions.Request{
		Action:      actions.Action(chi.URLParam(r, "action")),
		Document:    req.Document,
		Span:        req.Selection,
		LanguageID:  req.LanguageID,
		Instruction: req.Instruction,
		Problem:     req.Problem,
	})
	switch {
	case errors.Is(err, actions.ErrUnknownAction), errors.Is(err, actions.ErrMissingInput), errors.Is(err, splice.ErrSpanOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if res.Proposal == nil {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, ActionResponse{
		Outcome:      res.Outcome.String(),
		DiffProposal: res.Proposal,
		Notification: res.Notification,
	})
}
