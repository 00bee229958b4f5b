package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/lostfound/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(r *http.Request, target any) error {
	if err := decodeJSON(r, target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// storeError maps a store error onto an HTTP response. Unexpected errors are
// logged and answered with a generic message.
func storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrItemNotFound):
		jsonError(w, http.StatusBadRequest, "Item not found")
	case errors.Is(err, store.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrEmailTaken):
		jsonError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, store.ErrAlreadyResolved):
		jsonError(w, http.StatusConflict, "claim already resolved")
	default:
		slog.Error("request failed",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. An empty
// string yields the zero time.
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: expected YYYY-MM-DD or RFC 3339", field)
	}
	return t, nil
}

// optionalID turns an empty id into nil.
func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
