package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vetmais/payments/internal/domain"
	"github.com/vetmais/payments/internal/receipt"
)

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorEnvelope(code, message string) envelope {
	return envelope{Success: false, Error: &errorBody{Code: code, Message: message}}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// writeError maps the error taxonomy to HTTP statuses. A failed operation is
// a structured failure with an explanation, never a partial payload.
func writeError(w http.ResponseWriter, err error) {
	var ineligible *receipt.IneligibleStatusError
	switch {
	case errors.As(err, &ineligible):
		writeJSON(w, http.StatusUnprocessableEntity, errorEnvelope("STATUS_NOT_ELIGIBLE", ineligible.Error()))
		return
	}

	if v, ok := domain.IsValidationError(err); ok {
		writeJSON(w, http.StatusBadRequest, errorEnvelope("VALIDATION_ERROR", v.Error()))
		return
	}
	if n, ok := domain.IsNotFoundError(err); ok {
		writeJSON(w, http.StatusNotFound, errorEnvelope("NOT_FOUND", n.Error()))
		return
	}
	if _, ok := domain.IsTimeoutError(err); ok {
		writeJSON(w, http.StatusGatewayTimeout, errorEnvelope("PROVIDER_TIMEOUT", "The payment provider did not respond in time"))
		return
	}
	if _, ok := domain.IsAuthError(err); ok {
		writeJSON(w, http.StatusBadGateway, errorEnvelope("PROVIDER_AUTH", "The payment provider rejected our credentials"))
		return
	}
	if g, ok := domain.IsGatewayError(err); ok {
		writeJSON(w, http.StatusBadGateway, errorEnvelope("PROVIDER_ERROR", g.Error()))
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorEnvelope("INTERNAL_ERROR", "An internal error occurred"))
}
