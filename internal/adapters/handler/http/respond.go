package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskhub/api/internal/core/domain"
)

// Machine-readable error codes returned alongside HTTP statuses.
const (
	CodeNoToken             = "NO_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeValidation          = "VALIDATION"
	CodeEmailTaken          = "EMAIL_TAKEN"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeInternal            = "INTERNAL"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeDomainError translates domain sentinels into the HTTP taxonomy.
// Anything unmatched becomes a generic 500; the underlying detail is
// never sent to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, CodeEmailTaken, domain.ErrEmailTaken.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, domain.ErrInvalidCredentials.Error())
	case errors.Is(err, domain.ErrInvalidRefreshToken):
		writeError(w, http.StatusUnauthorized, CodeInvalidRefreshToken, domain.ErrInvalidRefreshToken.Error())
	case errors.Is(err, domain.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, domain.ErrTaskNotFound.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, domain.ErrUserNotFound.Error())
	default:
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}
