// File path: internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nicodishanthj/pathlight/internal/common"
	"github.com/nicodishanthj/pathlight/internal/learn"
	"github.com/nicodishanthj/pathlight/internal/profile"
	"github.com/nicodishanthj/pathlight/internal/workflow"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	description := strings.TrimSpace(req.JobDescription)
	if len(description) < profile.MinDescriptionLength {
		writeError(w, http.StatusBadRequest,
			fmt.Errorf("job_description must be at least %d characters", profile.MinDescriptionLength))
		return
	}
	path, err := s.workflow.UpdateProfile(r.Context(), workflow.ProfileRequest{
		UserID:         req.UserID,
		JobTitle:       req.JobTitle,
		JobDescription: description,
		Seniority:      req.JobSeniority,
		Firm:           req.Firm,
	})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, path)
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		writeError(w, http.StatusBadRequest, errors.New("topic query parameter required"))
		return
	}
	result, resources, err := s.workflow.TopicCoverage(r.Context(), topic)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, coverageResponse{Result: result, Resources: resources})
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	var req structureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, errors.New("topic required"))
		return
	}
	entry, err := s.workflow.TopicStructure(r.Context(), req.Topic, req.RoleType, req.Keywords)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Topic) == "" || strings.TrimSpace(req.SectionID) == "" || strings.TrimSpace(req.SectionTitle) == "" {
		writeError(w, http.StatusBadRequest, errors.New("topic, section_id, and section_title required"))
		return
	}
	entry, err := s.workflow.SectionContent(r.Context(), req.Topic, req.SectionID, req.SectionTitle)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, errors.New("user_id query parameter required"))
		return
	}
	path, err := s.workflow.Path(r.Context(), userID)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, path)
}

func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if r.Body != nil {
		// An empty body defaults to the current content version.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	dropped, err := s.workflow.InvalidateBelow(r.Context(), req.BelowVersion)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, invalidateResponse{Dropped: dropped})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, logsResponse{Entries: common.LogEntries()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, workflow.ErrPathNotFound):
		return http.StatusNotFound
	case errors.Is(err, learn.ErrCoverageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, learn.ErrAnalysisParse),
		errors.Is(err, learn.ErrStructureGeneration),
		errors.Is(err, learn.ErrContentGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
