package main

import (
	"context"
	"net/http"
	"strconv"

	"feedmirror/internal/origin"
	"feedmirror/internal/pagination"
	"feedmirror/internal/render"
	"feedmirror/internal/types"
	"feedmirror/internal/util"
)

// frameHandler serves one listing kind's frame documents.
//
// Checks run in a fixed order: rate limit, origin, page bounds. Only then is
// upstream contacted. An upstream failure renders the empty placeholder
// with a short cache lifetime instead of an error page, so a flaky upstream
// never breaks the host page's layout.
func (s *server) frameHandler(kind types.ListingKind) http.HandlerFunc {
	label := string(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		logger := LoggerFromContext(r.Context())

		if !s.limiter.Allow(util.ClientIP(r, s.cfg.TrustProxy)) {
			frameRendersTotal.WithLabelValues(label, "rate_limited").Inc()
			util.RespondTooManyRequests(w)
			return
		}

		if decision, reason := s.guard.Authorize(r); decision != origin.Allow {
			frameRendersTotal.WithLabelValues(label, "denied").Inc()
			originDenialsTotal.WithLabelValues(reason).Inc()
			logger.Warn("frame request denied", "kind", label, "reason", reason, "referer", r.Referer())
			origin.WriteForbidden(w)
			return
		}

		scope, page, ok := frameParams(kind, r)
		if !ok || !pagination.Allows(kind, page) {
			frameRendersTotal.WithLabelValues(label, "out_of_range").Inc()
			w.Header().Set("Cache-Control", util.CacheFrameEmpty)
			util.RespondNotFound(w, "Not Found")
			return
		}

		items, fetchErr := s.fetchListing(r.Context(), kind, scope, page)
		if fetchErr != nil {
			logger.Warn("upstream fetch failed, rendering empty frame",
				"kind", label, "scope", scope, "page", page, "error", fetchErr)
			items = nil
		}

		res, err := s.renderer.Render(kind, items, page)
		if err != nil {
			frameRendersTotal.WithLabelValues(label, "error").Inc()
			logger.Error("frame render failed", "kind", label, "error", err)
			util.RespondInternalError(w, "Internal Server Error")
			return
		}

		outcome := "ok"
		cacheControl := util.CacheFrameOK
		if fetchErr != nil || res.Terminal {
			outcome = "empty"
			cacheControl = util.CacheFrameEmpty
		}

		h := w.Header()
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Content-Security-Policy", render.FrameCSP())
		h.Set("ETag", res.ETag)
		util.SetHTMLHeaders(w, cacheControl)

		if render.ETagMatches(r.Header.Get("If-None-Match"), res.ETag) {
			frameRendersTotal.WithLabelValues(label, "not_modified").Inc()
			w.WriteHeader(http.StatusNotModified)
			return
		}

		frameRendersTotal.WithLabelValues(label, outcome).Inc()
		if err := util.WriteHTML(w, res.Body); err != nil {
			logger.Debug("frame write failed", "error", err)
		}
	}
}

// frameParams extracts the scope and page number for kind. Replies have a
// single page addressed by post id alone.
func frameParams(kind types.ListingKind, r *http.Request) (scope string, page int, ok bool) {
	switch kind {
	case types.ListingReplies:
		id := r.PathValue("id")
		return id, 1, util.IsDigits(id)
	case types.ListingHeadlines:
		page, ok = parsePage(r.PathValue("page"))
		return "", page, ok
	case types.ListingTag:
		tag := r.PathValue("tag")
		page, ok = parsePage(r.PathValue("page"))
		return tag, page, ok && tag != ""
	default:
		return "", 0, false
	}
}

func parsePage(s string) (int, bool) {
	if !util.IsDigits(s) || len(s) > 4 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func (s *server) fetchListing(ctx context.Context, kind types.ListingKind, scope string, page int) ([]types.ContentItem, error) {
	switch kind {
	case types.ListingReplies:
		return s.source.HotReplies(ctx, scope)
	case types.ListingHeadlines:
		return s.source.Headlines(ctx, page)
	case types.ListingTag:
		return s.source.Tag(ctx, scope, page)
	default:
		return nil, nil
	}
}
