package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spacesedan/sentilens/internal/analysis"
	"github.com/spacesedan/sentilens/internal/models"
)

type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (analysis.Result, error)
}

type HealthChecker interface {
	Healthy() bool
	Failures() map[string]string
}

type AnalyzeHandler struct {
	analyzer Analyzer
}

func NewAnalyzeHandler(a Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: a}
}

// Analyze handles POST /analyze.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		slog.Warn("[API] invalid request body",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()))
		RespondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.analyzer.Analyze(r.Context(), req)
	if res.ID != "" {
		w.Header().Set(analysisIDHeader, res.ID)
	}
	switch {
	case errors.Is(err, analysis.ErrEmptyText):
		RespondError(w, http.StatusBadRequest, msgNoText)
	case err != nil:
		slog.Error("[API] analysis failed",
			slog.String("request_id", reqID),
			slog.String("analysis_id", res.ID),
			slog.String("error", err.Error()))
		RespondAnalysisFailure(w, err.Error())
	default:
		RespondJSON(w, http.StatusOK, res.Response)
	}
}

type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler reports healthy unconditionally when checker is nil.
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

type healthResponse struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures,omitempty"`
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	if h.checker == nil || h.checker.Healthy() {
		RespondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	RespondJSON(w, http.StatusServiceUnavailable, healthResponse{
		Status:   "unavailable",
		Failures: h.checker.Failures(),
	})
}
