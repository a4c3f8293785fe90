package server

import (
	"net/http"

	"github.com/jonathan/grant-portal/internal/types"
)

func (s *Server) handleListAllApplications(w http.ResponseWriter, r *http.Request) {
	list, err := s.grants.ListAll(r.Context(), pageFromQuery(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondList(w, list)
}

func (s *Server) handleListApplicationsByStatus(w http.ResponseWriter, r *http.Request) {
	list, err := s.grants.ListByStatus(r.Context(), r.PathValue("status"), pageFromQuery(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondList(w, list)
}

func (s *Server) handleReviewApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "application")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req types.ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	view, err := s.grants.Review(r.Context(), principal(r).ID, id, &req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Application reviewed successfully", view)
}

func (s *Server) handleCompleteApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "application")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	view, err := s.grants.Complete(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Application marked as completed", view)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.grants.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, stats)
}
