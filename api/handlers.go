package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/nyaya/ai"
	"github.com/poiesic/nyaya/core"
)

// MaxQueryBytes caps the body of a predict request.
const MaxQueryBytes = 64 << 10

// Searcher answers a free-text query with the best matching sections.
type Searcher interface {
	Search(ctx context.Context, query string) ([]*core.Section, error)
}

// Stats reports corpus and cache sizes for the health endpoint.
type Stats interface {
	CountSections(ctx context.Context) (int, error)
	Cached() int
}

// HealthResponse is the JSON body of GET /api/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Sections int    `json:"sections"`
	Cached   int    `json:"cached"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handlePredict serves POST /api/bns/predict. The body is the raw query text.
func handlePredict(searcher Searcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			var err error
			body, err = io.ReadAll(r.Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeError(w, http.StatusRequestEntityTooLarge, "query too large")
					return
				}
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		query := strings.TrimSpace(string(body))
		if query == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		sections, err := searcher.Search(r.Context(), query)
		if err != nil {
			if errors.Is(err, ai.ErrEmbedderUnavailable) {
				logger.Error("encoder unavailable", "err", err)
				writeError(w, http.StatusServiceUnavailable, "encoder unavailable")
				return
			}
			logger.Error("search failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, core.NewSectionViews(sections))
	}
}

// handleHealth serves GET /api/health.
func handleHealth(stats Stats, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := stats.CountSections(r.Context())
		if err != nil {
			logger.Error("error counting sections", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Sections: count,
			Cached:   stats.Cached(),
		})
	}
}
