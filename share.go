package main

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"

	"feedmirror/internal/util"
)

// LinkRewriter maps whatever a user pasted into the share form to a local
// path on this site.
type LinkRewriter interface {
	Rewrite(input string) (path string, ok bool)
}

// upstreamLinks accepts a bare post id or a link on one of the upstream hosts.
// Query strings and fragments are dropped; only /feed/{id} and /t/{tag}
// paths are kept because nothing else is mirrored.
type upstreamLinks struct {
	hosts []string
}

func newUpstreamLinks(hosts ...string) upstreamLinks {
	if len(hosts) == 0 {
		hosts = []string{"coolapk.com"}
	}
	return upstreamLinks{hosts: hosts}
}

func (u upstreamLinks) Rewrite(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	if util.IsDigits(input) {
		return "/feed/" + input, true
	}
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}
	parsed, err := url.Parse(input)
	if err != nil || !u.knownHost(parsed.Hostname()) {
		return "", false
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) != 2 || parts[1] == "" {
		return "", false
	}
	switch parts[0] {
	case "feed":
		if util.IsDigits(parts[1]) {
			return "/feed/" + parts[1], true
		}
	case "t":
		return "/t/" + url.PathEscape(parts[1]), true
	}
	return "", false
}

func (u upstreamLinks) knownHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range u.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// goHandler is the no-JS target of the home page share form.
func (s *server) goHandler(w http.ResponseWriter, r *http.Request) {
	path, ok := s.links.Rewrite(r.URL.Query().Get("u"))
	if !ok {
		s.renderError(w, r, http.StatusBadRequest, "无法识别的链接或 ID")
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// qrHandler serves a PNG QR code pointing at a post's canonical URL.
func (s *server) qrHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok || !util.IsDigits(id) {
		util.RespondNotFound(w, "Not Found")
		return
	}

	target := s.absoluteURL(r, "/feed/"+id)
	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		LoggerFromContext(r.Context()).Error("failed to generate QR code", "id", id, "error", err)
		util.RespondInternalError(w, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Write(png)
}

// emojiHandler serves the built-in emoji glyphs behind the default emoji base.
func (s *server) emojiHandler(w http.ResponseWriter, r *http.Request) {
	code, ok := strings.CutSuffix(r.PathValue("file"), ".svg")
	if !ok {
		util.RespondNotFound(w, "Not Found")
		return
	}
	svg, ok := s.renderer.Transformer().EmojiSVG(code)
	if !ok {
		util.RespondNotFound(w, "Not Found")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Write(svg)
}

// absoluteURL prefixes path with the configured base URL, falling back to
// the host the client addressed.
func (s *server) absoluteURL(r *http.Request, path string) string {
	if base := strings.TrimSuffix(s.cfg.Site.BaseURL, "/"); base != "" {
		return base + path
	}
	scheme := "http"
	if r.TLS != nil || (s.cfg.TrustProxy && r.Header.Get("X-Forwarded-Proto") == "https") {
		scheme = "https"
	}
	return scheme + "://" + s.guard.RequestHost(r) + path
}
