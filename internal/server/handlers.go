package server

import (
	"encoding/json"
	"net/http"
)

type queryRequest struct {
	Query *string `json:"query"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.explorer.Snapshot())
}

func (s *Server) handleSetQuery(w http.ResponseWriter, r *http.Request) {
	var payload queryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Query == nil {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	s.explorer.SetSearchQuery(*payload.Query)
	respondJSON(w, http.StatusOK, s.explorer.Snapshot())
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.explorer.ClearSearchHistory(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.startLoad("refresh", s.explorer.Refresh)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	s.startLoad("retry", s.explorer.Retry)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "loading"})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
