package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/centavo-io/centavo/internal/repositories"
	"github.com/centavo-io/centavo/internal/services"
	"github.com/centavo-io/centavo/internal/sync"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// writeError maps the error taxonomy to HTTP statuses. Anything unrecognized
// is an internal error; its details are logged, not leaked.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *sync.ValidationError

	switch {
	case errors.Is(err, sync.ErrTenantNotFound), errors.Is(err, repositories.ErrNotFound):
		respondError(w, http.StatusNotFound, "tenant not found")
	case errors.Is(err, sync.ErrTenantAccess):
		respondError(w, http.StatusForbidden, "not a member of tenant")
	case errors.As(err, &validationErr):
		respondError(w, http.StatusUnprocessableEntity, validationErr.Error())
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrEmailExists):
		respondError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
