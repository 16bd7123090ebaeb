package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"amlak-search/internal/models"
	"amlak-search/internal/search/normalize"
	"amlak-search/internal/search/parser"
	"amlak-search/internal/search/suggest"
)

type searchRequest struct {
	Text      string         `json:"text"`
	Page      int            `json:"page" validate:"gte=0"`
	PageSize  int            `json:"pageSize" validate:"gte=0,lte=100"`
	SortBy    string         `json:"sortBy" validate:"omitempty,oneof=relevance price date area created_at"`
	SortOrder string         `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Filters   *searchFilters `json:"filters"`
}

type searchFilters struct {
	PropertyType string             `json:"propertyType"`
	Location     string             `json:"location"`
	Bedrooms     *models.IntRange   `json:"bedrooms"`
	Bathrooms    *models.IntRange   `json:"bathrooms"`
	Area         *models.IntRange   `json:"area"`
	Price        *models.PriceRange `json:"price"`
	Features     []string           `json:"features"`
}

type suggestionsRequest struct {
	Query string `json:"query" validate:"required,min=1"`
}

type parseRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

type parseResponse struct {
	NormalizedText string             `json:"normalizedText"`
	Parsed         models.ParsedQuery `json:"parsed"`
}

type stageRequest struct {
	Action     string                   `json:"action" validate:"required,oneof=suggest select reset"`
	State      *models.SearchState      `json:"state"`
	Suggestion *models.SearchSuggestion `json:"suggestion"`
}

type stageResponse struct {
	State         models.SearchState `json:"state"`
	ComposedQuery string             `json:"composedQuery,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	var (
		result *models.PagedResult
		err    error
	)
	if req.Filters == nil {
		result, err = s.searcher.ExecuteText(r.Context(), req.Text, req.Page, req.PageSize, req.SortBy, req.SortOrder)
	} else {
		result, err = s.searcher.Execute(r.Context(), &models.PropertySearchQuery{
			Text:         req.Text,
			Page:         req.Page,
			PageSize:     req.PageSize,
			SortBy:       req.SortBy,
			SortOrder:    req.SortOrder,
			PropertyType: req.Filters.PropertyType,
			Location:     req.Filters.Location,
			Bedrooms:     req.Filters.Bedrooms,
			Bathrooms:    req.Filters.Bathrooms,
			Area:         req.Filters.Area,
			Price:        req.Filters.Price,
			Features:     req.Filters.Features,
		})
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	var req suggestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	suggestions := s.suggester.ForText(r.Context(), normalize.Digits(req.Query))
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	normalized := strings.TrimSpace(normalize.Digits(req.Text))
	writeJSON(w, http.StatusOK, parseResponse{
		NormalizedText: normalized,
		Parsed:         parser.Parse(normalized),
	})
}

// handleStage drives one step of the guided search flow. The caller owns the
// state and sends it back on every call; the server holds nothing between
// requests.
func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	state := models.NewSearchState()
	if req.State != nil {
		state = *req.State
	}
	if state.Stage == "" {
		state.Stage = models.StagePropertyType
	}

	switch req.Action {
	case "reset":
		state = suggest.Reset(state)
		state.Suggestions = s.suggester.ForStage(r.Context(), state)

	case "select":
		if req.Suggestion == nil {
			s.badRequest(w, "select requires a suggestion")
			return
		}
		state = suggest.Advance(state, *req.Suggestion)
		if state.Stage != models.StageComplete {
			state.Suggestions = s.suggester.ForStage(r.Context(), state)
		}

	case "suggest":
		state.Suggestions = s.suggester.ForStage(r.Context(), state)
	}

	resp := stageResponse{State: state}
	if state.Stage == models.StageComplete {
		resp.ComposedQuery = suggest.ComposedQuery(state)
	}
	writeJSON(w, http.StatusOK, resp)
}
