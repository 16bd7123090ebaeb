// Package httpapi exposes the search core over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"amlak-search/internal/common/auth"
	stderrors "amlak-search/internal/common/errors"
	"amlak-search/internal/common/logger"
	"amlak-search/internal/common/observability"
	"amlak-search/internal/models"
)

var validate = validator.New()

// Searcher is the slice of the orchestrator the API consumes.
type Searcher interface {
	Execute(ctx context.Context, q *models.PropertySearchQuery) (*models.PagedResult, error)
	ExecuteText(ctx context.Context, text string, page, pageSize int, sortBy, sortOrder string) (*models.PagedResult, error)
}

// Suggester is the slice of the suggestion engine the API consumes.
type Suggester interface {
	ForText(ctx context.Context, text string) []models.SearchSuggestion
	ForStage(ctx context.Context, state models.SearchState) []models.SearchSuggestion
}

// Server holds the wired handlers and the router they hang off.
type Server struct {
	router    *mux.Router
	searcher  Searcher
	suggester Suggester
	sessions  auth.SessionProvider
	obs       *observability.Observability
	logger    logger.Logger
}

func NewServer(searcher Searcher, suggester Suggester, sessions auth.SessionProvider, obs *observability.Observability, log logger.Logger) *Server {
	if sessions == nil {
		sessions = auth.AllowAll{}
	}
	s := &Server{
		router:    mux.NewRouter(),
		searcher:  searcher,
		suggester: suggester,
		sessions:  sessions,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "http-api"}),
	}
	s.registerRoutes()
	return s
}

// Router returns the fully wired handler for the HTTP server.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Use(s.requestIDMiddleware, s.observeMiddleware)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/suggestions", s.handleSuggestions).Methods(http.MethodPost)
	api.HandleFunc("/parse", s.handleParse).Methods(http.MethodPost)
	api.HandleFunc("/stage", s.handleStage).Methods(http.MethodPost)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// writeError maps the classified taxonomy onto HTTP statuses. Cancellation
// gets the nginx-style 499 since the caller is already gone.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	stdErr := stderrors.Classify(err, 0)

	status := http.StatusInternalServerError
	switch stdErr.Code {
	case stderrors.ErrCodeInvalidQuery:
		status = http.StatusBadRequest
	case stderrors.ErrCodeSearchTimeout:
		status = http.StatusGatewayTimeout
	case stderrors.ErrCodeBackendUnreachable:
		status = http.StatusServiceUnavailable
	case stderrors.ErrCodeBackendFault:
		status = http.StatusBadGateway
	case stderrors.ErrCodeCancelled:
		status = 499
	}

	writeJSON(w, status, errorResponse{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Retryable: stdErr.Retryable,
	})
}

func (s *Server) badRequest(w http.ResponseWriter, details string) {
	s.writeError(w, stderrors.NewInvalidQueryError(details))
}
