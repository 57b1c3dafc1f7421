package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/tally/pkg/metrics"
)

// instrument wraps a game route so every response is counted and timed under
// endpoint, and failed ones are classified by what went wrong for the caller.
func instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		method := methodLabel(r.Method)
		statusCode := strconv.Itoa(wrapped.statusCode)

		metrics.RecordHTTPRequest(endpoint, method, statusCode)
		metrics.RecordHTTPRequestDuration(endpoint, method, statusCode, durationMs)

		if wrapped.statusCode >= http.StatusBadRequest {
			class, severity := classifyFailure(wrapped.statusCode)
			metrics.RecordErrorByEndpoint(endpoint, method, class)
			metrics.RecordErrorByType(class, severity)
		}
	}
}

// methodLabel keeps the method label bounded; the routes only answer GET
// and POST.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodPost:
		return method
	default:
		return "other"
	}
}

// classifyFailure names a failed response the way the handlers produce it.
// Backpressure and unavailability are expected during bursts and shutdown,
// so only unexplained server errors are high severity.
func classifyFailure(statusCode int) (class, severity string) {
	switch statusCode {
	case http.StatusBadRequest:
		return "bad_request", "low"
	case http.StatusUnauthorized:
		return "unauthorized", "medium"
	case http.StatusNotFound:
		return "not_found", "low"
	case http.StatusTooManyRequests:
		return "backpressure", "medium"
	case http.StatusServiceUnavailable:
		return "unavailable", "medium"
	}
	if statusCode >= http.StatusInternalServerError {
		return "server_error", "high"
	}
	return "client_error", "low"
}

// responseWriter remembers the first status written.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
