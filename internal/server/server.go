// Package server wires the HTTP API: auth, projects, estimates, chat,
// and the payment webhook. Handlers decode JSON, call the service layer,
// and map domain errors to status codes in one place.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/serhq/estimator/internal/ai"
	"github.com/serhq/estimator/internal/auth"
	"github.com/serhq/estimator/internal/middleware"
	"github.com/serhq/estimator/internal/service"
	"github.com/serhq/estimator/internal/session"
	"github.com/serhq/estimator/internal/storage"
)

// Server holds the handler dependencies. AI may be nil when no API key is
// configured; the chat and generation endpoints then answer 503.
type Server struct {
	log       *slog.Logger
	projects  *service.ProjectService
	estimates *service.EstimateService
	gate      *session.Gate
	authn     *auth.PasswordAuthenticator
	tokens    *auth.JWTManager
	ai        *ai.Client
	webhook   http.Handler
	metricsOn bool

	mu    sync.Mutex
	chats map[string]*ai.Conversation // keyed by userID + ":" + kind
}

func New(
	log *slog.Logger,
	projects *service.ProjectService,
	estimates *service.EstimateService,
	gate *session.Gate,
	authn *auth.PasswordAuthenticator,
	tokens *auth.JWTManager,
	aiClient *ai.Client,
	webhook http.Handler,
	metricsOn bool,
) *Server {
	return &Server{
		log:       log,
		projects:  projects,
		estimates: estimates,
		gate:      gate,
		authn:     authn,
		tokens:    tokens,
		ai:        aiClient,
		webhook:   webhook,
		metricsOn: metricsOn,
		chats:     make(map[string]*ai.Conversation),
	}
}

// Routes builds the full handler chain: mux, auth guards, then the
// logging, CORS, and metrics middleware around everything.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if s.metricsOn {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("POST /api/square/webhook", s.webhook)

	guard := middleware.RequireAuth(s.tokens)
	mux.Handle("POST /api/auth/logout", guard(http.HandlerFunc(s.handleLogout)))
	mux.Handle("GET /api/session", guard(http.HandlerFunc(s.handleSession)))
	mux.Handle("GET /api/profile", guard(http.HandlerFunc(s.handleGetProfile)))
	mux.Handle("PUT /api/profile", guard(http.HandlerFunc(s.handleSaveProfile)))

	mux.Handle("POST /api/projects", guard(http.HandlerFunc(s.handleNewProject)))
	mux.Handle("GET /api/projects", guard(http.HandlerFunc(s.handleListProjects)))
	mux.Handle("GET /api/estimates/{id}", guard(http.HandlerFunc(s.handleGetEstimate)))
	mux.Handle("PUT /api/estimates/{id}", guard(http.HandlerFunc(s.handleSaveEstimate)))
	mux.Handle("DELETE /api/estimates/{id}", guard(http.HandlerFunc(s.handleDeleteEstimate)))
	mux.Handle("GET /api/estimates/{id}/totals", guard(http.HandlerFunc(s.handleTotals)))
	mux.Handle("POST /api/estimates/{id}/apply", guard(http.HandlerFunc(s.handleApplyPayload)))
	mux.Handle("POST /api/estimates/{id}/items", guard(http.HandlerFunc(s.handleGenerateItem)))

	mux.Handle("POST /api/chat", guard(http.HandlerFunc(s.handleChat)))
	mux.Handle("POST /api/storyboard", guard(http.HandlerFunc(s.handleStoryboard)))

	return middleware.Logging(middleware.CORS(middleware.Metrics(mux)))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps domain sentinels onto HTTP status codes. Anything
// unrecognized is an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrProjectLimit):
		return http.StatusPaymentRequired
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, ai.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, ai.ErrEmptyResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
