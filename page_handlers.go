package main

import (
	"net/http"

	"feedmirror/internal/content"
	"feedmirror/internal/pagination"
	"feedmirror/internal/render"
	"feedmirror/internal/types"
	"feedmirror/internal/util"
)

// seedListing builds the server-side state of a frame region. Eager
// listings have page 1 mounted before the page ships; lazy ones leave the
// first mount to the browser once the region comes near the viewport.
func seedListing(kind types.ListingKind, scope string, lazy bool) render.Listing {
	c := pagination.ForListing(kind, scope)
	if !lazy {
		c.Mount()
	}
	defer c.Close()
	return render.ListingFor(kind, scope, c, lazy)
}

func (s *server) homeHandler(w http.ResponseWriter, r *http.Request) {
	body, err := s.renderer.Home(seedListing(types.ListingHeadlines, "", false))
	if err != nil {
		s.renderFailure(w, r, "home", err)
		return
	}
	s.writePage(w, r, util.CacheHostPage, body)
}

func (s *server) tagHandler(w http.ResponseWriter, r *http.Request) {
	tag := r.PathValue("tag")
	if tag == "" {
		s.renderError(w, r, http.StatusNotFound, "话题不存在")
		return
	}
	body, err := s.renderer.Tag(tag, seedListing(types.ListingTag, tag, false))
	if err != nil {
		s.renderFailure(w, r, "tag", err)
		return
	}
	s.writePage(w, r, util.CacheHostPage, body)
}

// feedHandler renders a post. ?md=1 or ?md=0 forces Markdown on or off;
// otherwise it is detected from the body. A failed fetch of the post itself
// is the one upstream error that surfaces as an error page; a failed summary
// is just left out.
func (s *server) feedHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !util.IsDigits(id) {
		s.renderError(w, r, http.StatusNotFound, "内容不存在或已被删除")
		return
	}

	feed, err := s.source.Feed(r.Context(), id)
	if err != nil {
		LoggerFromContext(r.Context()).Warn("feed fetch failed", "id", id, "error", err)
		s.renderError(w, r, http.StatusNotFound, "内容不存在或已被删除")
		return
	}

	var markdown bool
	switch r.URL.Query().Get("md") {
	case "1":
		markdown = true
	case "0":
		markdown = false
	default:
		markdown = s.renderer.Transformer().DetectMarkdown(content.SampleForFeed(*feed))
	}

	digest, err := s.summary.Summarize(r.Context(), feed)
	if err != nil {
		LoggerFromContext(r.Context()).Warn("summary failed, rendering without it", "id", id, "error", err)
		digest = ""
	}

	body, err := s.renderer.Feed(feed, markdown, digest, seedListing(types.ListingReplies, id, true))
	if err != nil {
		s.renderFailure(w, r, "feed", err)
		return
	}
	s.writePage(w, r, util.CacheHostPage, body)
}

func (s *server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "页面不存在")
}

// renderError writes the error page with a short cache lifetime.
func (s *server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	body, err := s.renderer.Error(status, message)
	if err != nil {
		LoggerFromContext(r.Context()).Error("error page render failed", "error", err)
		http.Error(w, message, status)
		return
	}
	util.SetHTMLHeaders(w, util.CacheFrameEmpty)
	w.WriteHeader(status)
	util.WriteHTML(w, body)
}

func (s *server) renderFailure(w http.ResponseWriter, r *http.Request, page string, err error) {
	LoggerFromContext(r.Context()).Error("page render failed", "page", page, "error", err)
	util.SetHTMLHeaders(w, util.CacheNoStore)
	util.RespondInternalError(w, "Internal Server Error")
}

func (s *server) writePage(w http.ResponseWriter, r *http.Request, cacheControl string, body []byte) {
	util.SetHTMLHeaders(w, cacheControl)
	if err := util.WriteHTML(w, body); err != nil {
		LoggerFromContext(r.Context()).Debug("page write failed", "error", err)
	}
}
