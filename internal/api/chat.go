package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/MikeSquared-Agency/codemanager/internal/chat"
	"github.com/MikeSquared-Agency/codemanager/internal/openai"
)

type sessionResponse struct {
	SessionID string           `json:"session_id"`
	Turns     []openai.Message `json:"turns"`
}

// MessageResponse is the reply to a chat command. Error is set when OK is false.
type MessageResponse struct {
	OK    bool   `json:"ok"`
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// createSession handles POST /api/v1/chat/sessions
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.chats.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: sess.ID(), Turns: []openai.Message{}})
}

// getSession handles GET /api/v1/chat/sessions/{id}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.chats.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	turns := sess.Turns()
	if turns == nil {
		turns = []openai.Message{}
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: sess.ID(), Turns: turns})
}

// deleteSession handles DELETE /api/v1/chat/sessions/{id}
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.chats.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// receiveMessage handles POST /api/v1/chat/sessions/{id}/messages
func (s *Server) receiveMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.chats.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var cmd chat.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	res := sess.Receive(context.WithoutCancel(r.Context()), cmd)

	resp := MessageResponse{OK: res.OK, Text: res.Text}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
