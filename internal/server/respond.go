package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK[T any](w http.ResponseWriter, data T) {
	writeJSON(w, http.StatusOK, models.OK(data))
}

// writeError maps err to a status code and failed result envelope. Unexpected errors are logged and hidden.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status, code, message := http.StatusInternalServerError, models.CodeInternal, "internal error"

	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		status, code, message = http.StatusBadRequest, models.CodeInvalidInput, err.Error()
	case errors.Is(err, shared.ErrUnauthenticated), errors.Is(err, shared.ErrAuthFailed):
		status, code, message = http.StatusUnauthorized, models.CodeUnauthenticated, err.Error()
	case errors.Is(err, shared.ErrNotFoundOrForbidden):
		status, code, message = http.StatusNotFound, models.CodeNotFound, err.Error()
	default:
		logger.Error("request failed", "error", err)
	}

	writeJSON(w, status, models.Fail[any](code, message))
}

// decode reads a JSON body into v and validates it.
func decode(w http.ResponseWriter, r *http.Request, v models.Validator) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", shared.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed request body: %v", shared.ErrInvalidInput, err)
	}
	return v.Validate()
}
