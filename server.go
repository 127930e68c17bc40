package main

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"feedmirror/internal/config"
	"feedmirror/internal/origin"
	"feedmirror/internal/render"
	"feedmirror/internal/summary"
	"feedmirror/internal/types"
	"feedmirror/internal/upstream"
)

//go:embed static
var staticFiles embed.FS

// server holds the collaborators shared by all handlers.
type server struct {
	cfg      config.Config
	source   upstream.Source
	renderer *render.Renderer
	summary  summary.Summarizer
	guard    origin.Guard
	limiter  *limiterPool
	links    LinkRewriter
	started  time.Time
}

// newServer wires the handlers. A nil summarizer disables post summaries.
func newServer(cfg config.Config, source upstream.Source, renderer *render.Renderer, sum summary.Summarizer) *server {
	if sum == nil {
		sum = summary.None{}
	}
	return &server{
		cfg:      cfg,
		source:   source,
		renderer: renderer,
		summary:  sum,
		guard:    origin.Guard{IgnoreForwarded: !cfg.TrustForwardedHost},
		limiter:  newLimiterPool(cfg.FrameRPS, cfg.FrameBurst),
		links:    newUpstreamLinks(),
		started:  time.Now(),
	}
}

// routes returns the full handler chain.
func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	// Host pages
	mux.HandleFunc("GET /{$}", s.homeHandler)
	mux.HandleFunc("GET /feed/{id}", s.feedHandler)
	mux.HandleFunc("GET /t/{tag}", s.tagHandler)
	mux.HandleFunc("GET /go", s.goHandler)
	mux.HandleFunc("GET /qr/{file}", s.qrHandler)
	mux.HandleFunc("GET /emoji/{file}", s.emojiHandler)

	// Frame documents
	mux.HandleFunc("GET /frame/reply/{id}", s.frameHandler(types.ListingReplies))
	mux.HandleFunc("GET /frame/headlines/{page}", s.frameHandler(types.ListingHeadlines))
	mux.HandleFunc("GET /frame/t/{tag}/{page}", s.frameHandler(types.ListingTag))

	// Operations
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", metricsHandler())

	mux.HandleFunc("/", s.notFoundHandler)

	return RequestLoggingMiddleware(securityHeaders(mux))
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

func (s *server) Close() {
	s.limiter.Shutdown()
}
