package server

import (
	"net/http"

	"github.com/jonathan/grant-portal/internal/storage"
	"github.com/jonathan/grant-portal/internal/types"
)

func notFound(resource string) error {
	return &types.ErrNotFound{Resource: resource}
}

func (s *Server) handleGetPersonal(w http.ResponseWriter, r *http.Request) {
	rec, err := s.profile.GetPersonal(r.Context(), principal(r).ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, rec)
}

func (s *Server) handleUpsertPersonal(w http.ResponseWriter, r *http.Request) {
	var req types.PersonalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.profile.UpsertPersonal(r.Context(), principal(r).ID, &req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, rec)
}

// handleUploadPicture stores a JPEG or PNG and points the personal record at
// it. The record must exist before a picture can be attached.
func (s *Server) handleUploadPicture(w http.ResponseWriter, r *http.Request) {
	userID := principal(r).ID
	if _, err := s.profile.GetPersonal(r.Context(), userID); err != nil {
		s.respondError(w, r, err)
		return
	}

	objs, err := readUploads(w, r, "profile_picture", 1, storage.MaxPictureSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(objs) == 0 {
		s.respondError(w, r, types.NewValidation("profile_picture", "Please upload a file"))
		return
	}
	if err := storage.CheckPicture(objs[0]); err != nil {
		s.respondError(w, r, err)
		return
	}

	path, err := s.files.Save(r.Context(), objs[0])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.profile.SetProfilePicture(r.Context(), userID, path)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Profile picture uploaded successfully", rec)
}

func (s *Server) handleListEducation(w http.ResponseWriter, r *http.Request) {
	recs, err := s.profile.ListEducation(r.Context(), principal(r).ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondCollection(w, recs)
}

func (s *Server) handleCreateEducation(w http.ResponseWriter, r *http.Request) {
	var req types.EducationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.profile.AddEducation(r.Context(), principal(r).ID, &req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateEducation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "educational record")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var patch types.EducationPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.profile.UpdateEducation(r.Context(), principal(r).ID, id, &patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteEducation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "educational record")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.profile.DeleteEducation(r.Context(), principal(r).ID, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Educational record deleted", nil)
}

func (s *Server) handleListEmployment(w http.ResponseWriter, r *http.Request) {
	recs, err := s.profile.ListEmployment(r.Context(), principal(r).ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondCollection(w, recs)
}

func (s *Server) handleCreateEmployment(w http.ResponseWriter, r *http.Request) {
	var req types.EmploymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.profile.AddEmployment(r.Context(), principal(r).ID, &req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateEmployment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "employment record")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var patch types.EmploymentPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.profile.UpdateEmployment(r.Context(), principal(r).ID, id, &patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteEmployment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "employment record")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.profile.DeleteEmployment(r.Context(), principal(r).ID, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Employment record deleted", nil)
}
