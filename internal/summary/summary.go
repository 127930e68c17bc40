// Package summary fetches the optional short digest shown above a post.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"feedmirror/internal/cache"
	"feedmirror/internal/content"
	"feedmirror/internal/types"
	"feedmirror/internal/upstream"
	"feedmirror/internal/util"
)

var ErrStatus = errors.New("summary: unexpected status")

const (
	maxInputRunes   = 4000
	maxSummaryRunes = 600
	maxBody         = 64 << 10
)

// Summarizer produces a digest for a post. An empty string with a nil error
// means there is nothing to show.
type Summarizer interface {
	Summarize(ctx context.Context, f *types.Feed) (string, error)
}

// None is used when no summary service is configured.
type None struct{}

func (None) Summarize(context.Context, *types.Feed) (string, error) { return "", nil }

// Remote posts a post's plain text to a summary service and reads back
// {"summary": "..."}.
type Remote struct {
	URL   string
	Token string
	HTTP  *http.Client
}

func NewRemote(url, token string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Remote{URL: url, Token: token, HTTP: &http.Client{Timeout: timeout}}
}

type request struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

type response struct {
	Summary string `json:"summary"`
}

func (r *Remote) Summarize(ctx context.Context, f *types.Feed) (string, error) {
	text := content.PlainText(f.Body)
	if text == "" {
		return "", nil
	}
	payload, err := json.Marshal(request{
		ID:    f.ID,
		Title: content.PlainText(f.Title),
		Text:  util.TruncateStringRunes(text, maxInputRunes),
	})
	if err != nil {
		return "", fmt.Errorf("encode summary request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build summary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.Token != "" {
		req.Header.Set(upstream.AuthHeader, r.Token)
	}

	resp, err := r.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	var out response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode summary: %w", err)
	}
	return util.TruncateStringRunes(strings.TrimSpace(out.Summary), maxSummaryRunes), nil
}

// Cached remembers summaries per post id, empty ones included. Concurrent
// misses for one post share a single call. Errors are never cached.
type Cached struct {
	next  Summarizer
	store *cache.Typed[string]
	ttl   time.Duration
	group singleflight.Group
}

func NewCached(next Summarizer, backend cache.Backend, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		store: cache.NewTyped[string](backend, "summary:"),
		ttl:   ttl,
	}
}

func (c *Cached) Summarize(ctx context.Context, f *types.Feed) (string, error) {
	if s, ok := c.store.Get(ctx, f.ID); ok {
		return s, nil
	}
	v, err, _ := c.group.Do(f.ID, func() (any, error) {
		s, err := c.next.Summarize(ctx, f)
		if err != nil {
			return "", err
		}
		c.store.Set(ctx, f.ID, s, c.ttl)
		return s, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
