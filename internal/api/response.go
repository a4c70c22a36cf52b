package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/spacesedan/sentilens/internal/models"
)

const (
	msgInvalidBody   = "Invalid request body"
	msgNoText        = "No text provided"
	msgBodyTooLarge  = "Request body too large"
	errorPrefix      = "An error occurred: "
	analysisIDHeader = "X-Analysis-ID"
)

// RespondJSON encodes data before writing the status, so an unencodable
// payload becomes the 500 analysis body instead of an empty reply.
func RespondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("[API] Failed to encode JSON response", slog.String("error", err.Error()))
		statusCode = http.StatusInternalServerError
		// the failure shape holds only strings and empty collections
		payload, _ = json.Marshal(models.FailedAnalysisResponse{
			Error:            errorPrefix + "failed to encode response: " + err.Error(),
			AnalysisResponse: models.EmptyAnalysisResponse(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(append(payload, '\n')); err != nil {
		slog.Error("[API] Failed to write JSON response", slog.String("error", err.Error()))
	}
}

func RespondError(w http.ResponseWriter, statusCode int, message string) {
	RespondJSON(w, statusCode, models.ErrorResponse{Error: message})
}

// RespondAnalysisFailure writes the 500 body, which keeps the analysis shape
// with empty fields.
func RespondAnalysisFailure(w http.ResponseWriter, message string) {
	RespondJSON(w, http.StatusInternalServerError, models.FailedAnalysisResponse{
		Error:            errorPrefix + message,
		AnalysisResponse: models.EmptyAnalysisResponse(),
	})
}
