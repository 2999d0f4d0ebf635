package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/MikeSquared-Agency/codemanager/internal/actions"
	"github.com/MikeSquared-Agency/codemanager/internal/chat"
	"github.com/MikeSquared-Agency/codemanager/internal/openai"
)

// StatsSource reports generation counts per outcome.
type StatsSource interface {
	GenerationCounts(ctx context.Context) (map[string]int, error)
}

type Deps struct {
	Actions  *actions.Runner
	Chats    *chat.Registry
	Provider *openai.Provider
	Stats    StatsSource // optional
	APIToken string
	Logger   *slog.Logger
}

type Server struct {
	router   *chi.Mux
	port     int
	actions  *actions.Runner
	chats    *chat.Registry
	provider *openai.Provider
	stats    StatsSource
	logger   *slog.Logger
}

func NewServer(port int, deps Deps) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:   router,
		port:     port,
		actions:  deps.Actions,
		chats:    deps.Chats,
		provider: deps.Provider,
		stats:    deps.Stats,
		logger:   logger,
	}

	router.Get("/health", s.health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(deps.APIToken))
		r.Get("/codemanager/status", s.status)
		r.Post("/actions/{action}", s.runAction)

		r.Route("/chat/sessions", func(r chi.Router) {
			r.Post("/", s.createSession)
			r.Get("/{id}", s.getSession)
			r.Delete("/{id}", s.deleteSession)
			r.Post("/{id}/messages", s.receiveMessage)
		})

		r.Put("/settings/api-key", s.updateAPIKey)
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	c := s.provider.Client()
	body := map[string]any{
		"agent":            "codemanager",
		"completion_model": c.CompletionModel(),
		"chat_model":       c.ChatModel(),
		"api_key_set":      c.HasAPIKey(),
		"chat_sessions":    s.chats.Len(),
	}
	if s.stats != nil {
		counts, err := s.stats.GenerationCounts(r.Context())
		if err != nil {
			s.logger.Warn("failed to load generation counts", "error", err)
		} else {
			body["generations"] = counts
		}
	}
	writeJSON(w, http.StatusOK, body)
}

type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

// updateAPIKey handles PUT /api/v1/settings/api-key
func (s *Server) updateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.APIKey == "" {
		s.logger.Warn("OpenAI key not set. Please set it in the settings.")
	}
	s.provider.Reconfigure(req.APIKey)
	s.logger.Info("settings updated", "api_key_set", req.APIKey != "")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
