package http

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок в поле "error"
const (
	ErrCodeNotFound   = "not_found"
	ErrCodeValidation = "validation_failed"
	ErrCodeBadRequest = "bad_request"
	ErrCodeInternal   = "internal_error"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Details: details})
}
