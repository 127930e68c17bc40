package util

import (
	"net"
	"net/http"
	"strings"
)

// =============================================================================
// HTTP Response Helpers
// =============================================================================

// SetHTMLHeaders sets the content type and a full Cache-Control value.
func SetHTMLHeaders(w http.ResponseWriter, cacheControl string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheControl)
}

// WriteHTML writes a rendered document.
func WriteHTML(w http.ResponseWriter, body []byte) error {
	_, err := w.Write(body)
	return err
}

// =============================================================================
// HTTP Error Helpers
// =============================================================================

// RespondNotFound sends a 404 Not Found error response.
func RespondNotFound(w http.ResponseWriter, message string) {
	http.Error(w, message, http.StatusNotFound)
}

// RespondTooManyRequests sends a 429 with a short Retry-After.
func RespondTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
}

// RespondInternalError sends a 500 Internal Server Error response.
func RespondInternalError(w http.ResponseWriter, message string) {
	http.Error(w, message, http.StatusInternalServerError)
}

// ClientIP returns the first X-Forwarded-For hop when trustProxy is set,
// otherwise the connection's remote address.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
