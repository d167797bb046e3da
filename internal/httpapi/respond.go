package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/hugpuf/mono-commerce-chat-sub001/internal/conversation"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/provider"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/repository"
	"github.com/hugpuf/mono-commerce-chat-sub001/internal/service"
)

// Stable machine-readable error codes, one per taxonomy kind.
const (
	codeValidation   = "validation_error"
	codeNotFound     = "not_found"
	codeState        = "state_conflict"
	codeUpstream     = "upstream_error"
	codeInternal     = "internal_error"
	codeUnauthorized = "unauthorized"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain sentinels onto HTTP statuses and codes.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conversation.ErrConversationNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrProductNotLinked),
		errors.Is(err, service.ErrNoLocations),
		errors.Is(err, service.ErrCartContention):
		respondError(w, http.StatusBadRequest, codeState, err.Error())
	case errors.Is(err, service.ErrInvalidReason):
		respondError(w, http.StatusBadRequest, codeValidation, err.Error())
	case errors.Is(err, provider.ErrUpstream):
		respondError(w, http.StatusInternalServerError, codeUpstream, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}
