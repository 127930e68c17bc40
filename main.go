package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedmirror/internal/cache"
	"feedmirror/internal/config"
	"feedmirror/internal/content"
	"feedmirror/internal/render"
	"feedmirror/internal/summary"
	"feedmirror/internal/upstream"
)

// hostCSP applies to host pages. Frame documents replace it with
// render.FrameCSP.
const hostCSP = "default-src 'self'; " +
	"img-src * data:; " +
	"style-src 'self' 'unsafe-inline'; " +
	"script-src 'self' https://pagead2.googlesyndication.com https://*.googlesyndication.com https://*.doubleclick.net; " +
	"connect-src 'self' https://*.googlesyndication.com https://*.doubleclick.net; " +
	"frame-src 'self' https://*.googlesyndication.com https://*.doubleclick.net; " +
	"object-src 'none'; " +
	"base-uri 'self'"

// securityHeaders adds the response headers every page carries
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", hostCSP)

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")

		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Frames authorize on the Referer, so same-origin requests must keep it
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, kind := cache.Open(ctx, cfg.CacheBackend, cfg.RedisURL, "feedmirror:", cache.DefaultTTLConfig())
	defer backend.Close()
	slog.Info("cache backend ready", "backend", kind)

	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.InternalAuthToken, cfg.UpstreamTimeout)
	client.OnFetch = recordUpstreamFetch
	source := upstream.NewCached(client, backend, cache.DefaultTTLConfig())
	source.OnHit = recordCacheLookup

	tr := content.New(content.Options{
		LinkColor:    cfg.LinkColor,
		EmojiBaseURL: cfg.Site.EmojiBaseURL,
		TitlePattern: cfg.TitleRegexp(),
	})
	renderer := render.New(render.Options{
		Transformer: tr,
		LinkColor:   cfg.LinkColor,
		Site: render.Site{
			Name:        cfg.Site.Name,
			Description: cfg.Site.Description,
			BaseURL:     cfg.Site.BaseURL,
			AdClient:    cfg.Site.AdSense.PublisherID,
			AdSlot:      cfg.Site.AdSense.AdSlot,
			OriginalURL: cfg.Site.OriginalURL,
		},
	})

	var sum summary.Summarizer
	if cfg.SummaryURL != "" {
		remote := summary.NewRemote(cfg.SummaryURL, cfg.InternalAuthToken, cfg.UpstreamTimeout)
		sum = summary.NewCached(remote, backend, cache.DefaultTTLConfig().FeedTTL)
		slog.Info("post summaries enabled", "url", cfg.SummaryURL)
	}

	srv := newServer(cfg, source, renderer, sum)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", httpServer.Addr, "upstream", cfg.UpstreamBaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
