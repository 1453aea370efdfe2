package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrNoValues is returned by GetValues when called outside a request Handle
// dispatched.
var ErrNoValues = errors.New("web: values missing from context")

var validate = validator.New()

// shutdownError signals that the web layer hit an unrecoverable error and
// the process should begin an orderly shutdown rather than just log and
// move on — the convention the node uses for "the context value plumbing
// itself is broken" style failures.
type shutdownError struct {
	Message string
}

func (s *shutdownError) Error() string { return s.Message }

// NewShutdownError wraps a message as a shutdown-triggering error.
func NewShutdownError(message string) error {
	return &shutdownError{Message: message}
}

func isShutdownError(err error) (*shutdownError, bool) {
	var s *shutdownError
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}

// Decode reads the request body as JSON into v and runs struct validation
// tags over the result.
func Decode(r *http.Request, v any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("web: reading body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("web: unmarshaling: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		if _, ok := err.(*validator.InvalidValidationError); ok {
			return nil
		}
		return fmt.Errorf("web: validating: %w", err)
	}
	return nil
}

// respondError writes a {"error": message} JSON body with the given status.
func respondError(w http.ResponseWriter, message string, status int) {
	data, err := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: message})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// Respond writes v as a JSON response with the given status code. A nil v
// writes only the status code.
func Respond(ctx context.Context, w http.ResponseWriter, v any, statusCode int) error {
	if val, err := GetValues(ctx); err == nil {
		val.StatusCode = statusCode
	}

	if v == nil {
		w.WriteHeader(statusCode)
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, err = w.Write(data)
	return err
}
