package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kislikjeka/userdir/internal/platform/user"
	apperrors "github.com/kislikjeka/userdir/internal/shared/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details []user.FieldError `json:"details,omitempty"`
}

// MessageResponse carries a confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithValidation sends a 422 listing every violated field
func respondWithValidation(w http.ResponseWriter, verr *user.ValidationError) {
	respondWithJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Code:    apperrors.ErrCodeValidation,
		Details: verr.Fields,
	})
}

// respondWithServiceError maps a service error onto its HTTP status.
// Backend failures are reported without their cause.
func respondWithServiceError(w http.ResponseWriter, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := apperrors.HTTPStatus(appErr.Code)
	resp := ErrorResponse{Error: appErr.Message, Code: appErr.Code}

	var verr *user.ValidationError
	if errors.As(err, &verr) {
		resp.Details = verr.Fields
	}

	respondWithJSON(w, status, resp)
}
