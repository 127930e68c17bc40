// Package origin restricts frame endpoints to same-site embedding.
//
// Frame endpoints render raw markup without any session context. Only pages
// served from this host may load them: the request's Referer must name the
// same host the request was sent to.
package origin

import (
	"net/http"
	"net/url"
	"strings"
)

// Decision is the outcome of an origin check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Reason values attached to a denial, used for logging and metrics labels.
const (
	ReasonMissingReferer = "missing_referer"
	ReasonBadReferer     = "bad_referer"
	ReasonHostMismatch   = "host_mismatch"
)

// forbiddenBody is the minimal document returned on denial.
const forbiddenBody = "<!DOCTYPE html><html><body>403 Forbidden</body></html>"

// Guard authorizes frame requests.
type Guard struct {
	// IgnoreForwarded makes the check use Host even when X-Forwarded-Host
	// is present. The zero Guard prefers the forwarded host, which is what a
	// deployment behind a reverse proxy needs.
	IgnoreForwarded bool
}

// Authorize checks r and returns the decision plus a reason when denied.
func (g Guard) Authorize(r *http.Request) (Decision, string) {
	return check(g.RequestHost(r), refererOf(r))
}

// RequestHost returns the host the client addressed.
func (g Guard) RequestHost(r *http.Request) string {
	if !g.IgnoreForwarded {
		if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
			// Proxies may append; the first entry is the client-facing host.
			if i := strings.IndexByte(fwd, ','); i >= 0 {
				fwd = fwd[:i]
			}
			return strings.TrimSpace(fwd)
		}
	}
	return r.Host
}

// Authorize is the pure form of the check: allow only when the referer's host
// equals requestHost, compared after lowercasing.
func Authorize(requestHost, referer string) Decision {
	d, _ := check(requestHost, referer)
	return d
}

func check(requestHost, referer string) (Decision, string) {
	if referer == "" {
		return Deny, ReasonMissingReferer
	}
	u, err := url.Parse(referer)
	if err != nil || u.Host == "" {
		return Deny, ReasonBadReferer
	}
	if requestHost == "" || strings.ToLower(u.Host) != strings.ToLower(requestHost) {
		return Deny, ReasonHostMismatch
	}
	return Allow, ""
}

func refererOf(r *http.Request) string {
	if ref := r.Header.Get("Referer"); ref != "" {
		return ref
	}
	// Misspelled variant some clients send.
	return r.Header.Get("Referrer")
}

// WriteForbidden writes the denial response. No upstream work may precede it.
func WriteForbidden(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("X-Frame-Options", "SAMEORIGIN")
	h.Set("Content-Security-Policy", "frame-ancestors 'self'")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(forbiddenBody))
}
