package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/steelforge/takeoff/internal/common"
	"github.com/steelforge/takeoff/internal/model"
	"github.com/steelforge/takeoff/internal/session"
)

// handleCreate accepts a multipart upload ("file" plus drawingId/revisionId
// form fields), runs the parse, and stages the result as a new session.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(headerTenantID)
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "missing "+headerTenantID+" header")
		return
	}
	userID := r.Header.Get(headerUserID)

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file upload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.ParseTimeout)
	defer cancel()

	result, err := s.parser.Parse(ctx, header.Filename, data)
	if err != nil {
		writeParseError(w, err)
		return
	}

	meta := session.FileMeta{
		DrawingID:  formInt64(r, "drawingId"),
		RevisionID: formInt64(r, "revisionId"),
		FileName:   header.Filename,
	}

	preview, err := s.sessions.CreateSession(r.Context(), meta, result, tenantID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create import session")
		slog.Error("Session creation failed", "error", err)
		return
	}

	writeJSON(w, http.StatusCreated, preview)
}

// handlePreview returns the staged session's preview projection.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(headerTenantID)
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "missing "+headerTenantID+" header")
		return
	}

	preview, err := s.sessions.GetPreview(r.Context(), chi.URLParam(r, "sessionID"), tenantID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// handleConfirm applies the operator's mapping request and returns the final
// parse result.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(headerTenantID)
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "missing "+headerTenantID+" header")
		return
	}

	var req model.MappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid mapping request body")
		return
	}

	result, err := s.sessions.ApplyMappings(r.Context(), chi.URLParam(r, "sessionID"), &req, tenantID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRemove evicts a staged session.
func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(headerTenantID)
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "missing "+headerTenantID+" header")
		return
	}

	if err := s.sessions.RemoveSession(r.Context(), chi.URLParam(r, "sessionID"), tenantID); err != nil {
		writeSessionError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeParseError(w http.ResponseWriter, err error) {
	var formatErr *common.FormatError
	var sizeErr *common.SizeLimitError

	switch {
	case errors.As(err, &formatErr):
		writeError(w, http.StatusBadRequest, formatErr.Error())
	case errors.As(err, &sizeErr):
		writeError(w, http.StatusRequestEntityTooLarge, sizeErr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, "parse timed out")
	default:
		writeError(w, http.StatusInternalServerError, "parse failed")
		slog.Error("Parse failed", "error", err)
	}
}

// writeSessionError maps every session lookup failure to the same 404 so a
// caller cannot distinguish missing, expired, and foreign-tenant sessions.
func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "import session not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "session operation failed")
	slog.Error("Session operation failed", "error", err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func formInt64(r *http.Request, field string) int64 {
	v, err := strconv.ParseInt(r.FormValue(field), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
