package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/statichive/statichive-core/internal/core/domain"
)

// imageCacheControl is applied to successful image responses; mirrored
// content is immutable under its content-addressed filename.
const imageCacheControl = "public, max-age=2592000, immutable"

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain sentinel errors to HTTP statuses
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, domain.ErrSourceFetch):
		writeError(w, http.StatusBadGateway, "source fetch failed")
	case errors.Is(err, domain.ErrPrepareInProgress):
		w.Header().Set("Retry-After", "2")
		writeError(w, http.StatusServiceUnavailable, "preparation in progress")
	case errors.Is(err, domain.ErrMirrorPending):
		w.Header().Set("Retry-After", "2")
		writeError(w, http.StatusServiceUnavailable, "image mirror pending")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// handleHealth returns basic health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}

// handleReady checks if all dependencies are available
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{}
	ready := true

	if err := s.db.Ping(ctx); err != nil {
		checks["blobstore"] = "unavailable: " + err.Error()
		ready = false
	} else {
		checks["blobstore"] = "ok"
	}

	if s.state != nil {
		if err := s.state.Ping(ctx); err != nil {
			checks["statestore"] = "unavailable: " + err.Error()
			ready = false
		} else {
			checks["statestore"] = "ok"
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"ready":  ready,
		"checks": checks,
	})
}

// handleVersion returns version information
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// handlePage prepares a document on demand and serves its rendered markup.
// Passing ?refresh=1 discards any stored copy and rebuilds from source.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	if !pageIDPattern.MatchString(documentID) {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	refresh := r.URL.Query().Get("refresh") == "1"
	if refresh && s.refreshSecret != nil {
		if err := s.authorizeRefresh(r); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	if _, err := s.preparePage(r.Context(), documentID, refresh); err != nil {
		writeDomainError(w, err)
		return
	}

	markup, err := s.pageService.Rendered(r.Context(), documentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(markup); err != nil {
		slog.Error("failed to write page response", "error", err)
	}
}

// handlePageMeta serves the preparation record for a document
func (s *Server) handlePageMeta(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	if !pageIDPattern.MatchString(documentID) {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	page, err := s.preparePage(r.Context(), documentID, false)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) preparePage(ctx context.Context, documentID string, refresh bool) (*domain.PreparedPage, error) {
	return s.pageService.PrepareOrFetch(ctx, documentID, refresh)
}

// handleImage serves a mirrored image, waiting briefly if the mirror
// is still in flight.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	filename := r.PathValue("filename")
	if !pageIDPattern.MatchString(documentID) {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	if !filenamePattern.MatchString(filename) {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	data, contentType, err := s.mirrorService.GetImage(r.Context(), documentID, filename)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", imageCacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

// handleImageStatus reports the mirror state of a single image
func (s *Server) handleImageStatus(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	filename := r.PathValue("filename")
	if !pageIDPattern.MatchString(documentID) {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	if !filenamePattern.MatchString(filename) {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	status, err := s.mirrorService.QueueStatus(r.Context(), documentID, filename)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}
