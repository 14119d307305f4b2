package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goliatone/go-crosspost/internal/logging"
	"github.com/goliatone/go-crosspost/pkg/interfaces"
)

const tokenHeader = "X-Webhook-Token"

// Server exposes the push-style ingestion surface: instead of waiting for a
// polling pass, a repository hook can deliver work items directly.
type Server struct {
	processor interfaces.WorkItemProcessor
	logger    interfaces.Logger
	token     string
	router    chi.Router
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSharedToken requires the supplied token in the X-Webhook-Token header.
func WithSharedToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// NewServer builds the webhook router over the supplied processor.
func NewServer(processor interfaces.WorkItemProcessor, opts ...Option) *Server {
	s := &Server{
		processor: processor,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/hooks/content", s.handleContent)
	s.router = r
	return s
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type contentPayload struct {
	Items []interfaces.WorkItem `json:"items"`
}

type itemResult struct {
	FileName string `json:"fileName"`
	Commit   string `json:"commit"`
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// handleContent ingests a batch of work items. Each item runs to its own
// outcome; one failed item does not reject the batch.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	if s.token != "" && r.Header.Get(tokenHeader) != s.token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}

	var payload contentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if len(payload.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no items"})
		return
	}

	results := make([]itemResult, 0, len(payload.Items))
	failed := 0
	for _, item := range payload.Items {
		result := itemResult{FileName: item.FileName, Commit: item.Commit, Accepted: true}
		if err := s.processor.Process(r.Context(), item); err != nil {
			s.logger.Error("webhook item failed",
				"file_name", item.FileName, "commit", item.Commit, "error", err)
			result.Accepted = false
			result.Error = err.Error()
			failed++
		}
		results = append(results, result)
	}

	status := http.StatusOK
	if failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]any{"results": results})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
