package server

import (
	"net/http"

	"github.com/jonathan/grant-portal/internal/storage"
	"github.com/jonathan/grant-portal/internal/types"
)

func (s *Server) handleListMyApplications(w http.ResponseWriter, r *http.Request) {
	list, err := s.grants.ListMine(r.Context(), principal(r).ID, pageFromQuery(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondList(w, list)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req types.CreateApplicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	view, err := s.grants.Create(r.Context(), principal(r).ID, &req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, view)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "application")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	view, err := s.grants.Get(r.Context(), principal(r).ID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, view)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "application")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req types.UpdateApplicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	view, err := s.grants.Update(r.Context(), principal(r).ID, id, &req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, view)
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "application")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.grants.Delete(r.Context(), principal(r).ID, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Application deleted", nil)
}

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "application")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	view, err := s.grants.Submit(r.Context(), principal(r).ID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Application submitted successfully", view)
}

func (s *Server) handleUploadAttachments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "application")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	objs, err := readUploads(w, r, "attachments", storage.MaxAttachmentsPerCall, storage.MaxAttachmentSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	view, err := s.grants.AddAttachments(r.Context(), principal(r).ID, id, objs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Files uploaded successfully", view)
}

func (s *Server) handleAddProgressReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "application")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req types.ProgressReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	view, err := s.grants.AddProgressReport(r.Context(), principal(r).ID, id, &req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Progress report added", view)
}
