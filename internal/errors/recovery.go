package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/copyleftdev/descent/internal/logging"
	"github.com/copyleftdev/descent/internal/optimization"
)

// RecoveryMiddleware returns a middleware that recovers from panics.
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("recovered from panic", map[string]interface{}{
						"error":  fmt.Sprint(rec),
						"stack":  string(debug.Stack()),
						"method": r.Method,
						"path":   r.URL.Path,
						"query":  r.URL.RawQuery,
					})
					WriteJSON(w, New("internal error"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// StatusCode maps an error to the HTTP status it should be reported with.
// Bad input becomes 400, a missing resource 404 and anything else 500.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Is(err, ErrNotFound):
		return http.StatusNotFound
	case Is(err, optimization.ErrUnknownObjective),
		Is(err, optimization.ErrInvalidHyperparameter),
		Is(err, optimization.ErrDimensionMismatch),
		Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case Is(err, optimization.ErrNumericOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Sentinels for errors raised by the HTTP layer itself.
var (
	ErrNotFound   = New("not found")
	ErrBadRequest = New("bad request")
)

// Response is the JSON body written for failed requests.
type Response struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// WriteJSON writes err as a JSON Response with the status from StatusCode.
// Internal errors hide their message.
func WriteJSON(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Error: msg, Status: status})
}
