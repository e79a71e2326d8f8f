// Package server exposes the search pipeline to the CRM UI as a small JSON
// API: run a search, record feedback, promote a success, and filter the
// creator directory.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xaenox/creator-search/internal/directory"
	"github.com/xaenox/creator-search/internal/filter"
	"github.com/xaenox/creator-search/internal/models"
	"github.com/xaenox/creator-search/internal/search"
	"github.com/xaenox/creator-search/internal/storage"
)

type Handler struct {
	service   *search.Service
	directory directory.Directory
	logger    *zap.Logger
}

func New(service *search.Service, dir directory.Directory, logger *zap.Logger) *Handler {
	return &Handler{service: service, directory: dir, logger: logger}
}

func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", h.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/feedback", h.handleFeedback).Methods(http.MethodPost)
	api.HandleFunc("/learn", h.handleLearn).Methods(http.MethodPost)
	api.HandleFunc("/creators", h.handleListCreators).Methods(http.MethodGet)
	api.HandleFunc("/creators/filter", h.handleFilterCreators).Methods(http.MethodPost)
	return r
}

type searchRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	GuestID   string `json:"guest_user_id"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	owner := models.OwnerRef{UserID: req.UserID, GuestID: req.GuestID}
	result, err := h.service.Search(r.Context(), req.Query, req.SessionID, owner)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("search handled",
		zap.String("session_id", result.SessionID),
		zap.String("query", result.SearchTerm))
	h.writeJSON(w, http.StatusOK, result)
}

type feedbackRequest struct {
	SessionID       string `json:"session_id"`
	Action          string `json:"action"`
	CreatorID       string `json:"creator_id"`
	ResultsCount    *int   `json:"results_count"`
	DurationSeconds *int64 `json:"session_duration_seconds"`
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.service.RecordFeedback(r.Context(), search.Feedback{
		SessionID:       req.SessionID,
		Action:          models.FeedbackAction(req.Action),
		CreatorID:       req.CreatorID,
		ResultsCount:    req.ResultsCount,
		DurationSeconds: req.DurationSeconds,
	})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "session not found")
	case err != nil:
		h.logger.Error("feedback failed",
			zap.Error(err),
			zap.String("session_id", req.SessionID))
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

type learnRequest struct {
	SessionID string             `json:"session_id"`
	Query     string             `json:"query"`
	Filters   models.FilterModel `json:"filters"`
}

func (h *Handler) handleLearn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.LearnFromSuccess(r.Context(), req.SessionID, req.Query, req.Filters); err != nil {
		h.logger.Error("learn failed",
			zap.Error(err),
			zap.String("session_id", req.SessionID))
		h.writeError(w, http.StatusInternalServerError, "failed to record pattern")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListCreators(w http.ResponseWriter, r *http.Request) {
	creators, err := h.directory.List(r.Context())
	if err != nil {
		h.logger.Error("creator directory unavailable", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "creator directory unavailable")
		return
	}
	if term := r.URL.Query().Get("search"); term != "" {
		creators = filter.ApplySearch(creators, term)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"creators": creators,
		"count":    len(creators),
	})
}

type filterRequest struct {
	SearchTerm string             `json:"search_term"`
	Filters    models.FilterModel `json:"filters"`
}

func (h *Handler) handleFilterCreators(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	creators, err := h.directory.List(r.Context())
	if err != nil {
		h.logger.Error("creator directory unavailable", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "creator directory unavailable")
		return
	}

	creators = filter.ApplySearch(creators, req.SearchTerm)
	creators = filter.Apply(creators, req.Filters)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"creators": creators,
		"count":    len(creators),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
