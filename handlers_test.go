package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedmirror/internal/config"
	"feedmirror/internal/render"
	"feedmirror/internal/summary"
	"feedmirror/internal/types"
	"feedmirror/internal/upstream"
	"feedmirror/internal/util"
)

type fakeSource struct {
	mu       sync.Mutex
	feeds    map[string]*types.Feed
	replies  []types.ContentItem
	cards    []types.ContentItem
	fail     bool
	requests []string
}

func (f *fakeSource) record(s string) {
	f.mu.Lock()
	f.requests = append(f.requests, s)
	f.mu.Unlock()
}

func (f *fakeSource) Feed(ctx context.Context, id string) (*types.Feed, error) {
	f.record("feed:" + id)
	if fd, ok := f.feeds[id]; ok {
		return fd, nil
	}
	return nil, upstream.ErrNotFound
}

func (f *fakeSource) HotReplies(ctx context.Context, id string) ([]types.ContentItem, error) {
	f.record("reply:" + id)
	if f.fail {
		return nil, errors.New("upstream down")
	}
	return f.replies, nil
}

func (f *fakeSource) Headlines(ctx context.Context, page int) ([]types.ContentItem, error) {
	f.record("headlines")
	if f.fail {
		return nil, errors.New("upstream down")
	}
	return f.cards, nil
}

func (f *fakeSource) Tag(ctx context.Context, tag string, page int) ([]types.ContentItem, error) {
	f.record("tag:" + tag)
	if f.fail {
		return nil, errors.New("upstream down")
	}
	return f.cards, nil
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeSummarizer struct {
	out string
	err error
}

func (f fakeSummarizer) Summarize(context.Context, *types.Feed) (string, error) {
	return f.out, f.err
}

func newTestServer(t *testing.T, src *fakeSource, mutate ...func(*config.Config)) http.Handler {
	t.Helper()
	return newSummaryServer(t, src, nil, mutate...)
}

func newSummaryServer(t *testing.T, src *fakeSource, sum summary.Summarizer, mutate ...func(*config.Config)) http.Handler {
	t.Helper()
	cfg := config.Defaults()
	cfg.FrameRPS = 0
	for _, m := range mutate {
		m(&cfg)
	}
	r := render.New(render.Options{
		Site: render.Site{Name: "Mirror", OriginalURL: cfg.Site.OriginalURL},
		Now:  func() time.Time { return time.Unix(1_700_000_000, 0) },
	})
	s := newServer(cfg, src, r, sum)
	t.Cleanup(s.Close)
	return s.routes()
}

func sampleCards() []types.ContentItem {
	return []types.ContentItem{
		{ID: "1", Author: "alice", Body: "hello <a href='/u/x'>@bob</a>", Dateline: 1_699_999_000},
		{ID: "2", Author: "carol", Body: "world", Images: []string{"https://img.example/a.jpg"}},
	}
}

func frameRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Referer", "http://example.com/t/android")
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestFrameRejectsForeignReferer(t *testing.T) {
	src := &fakeSource{cards: sampleCards()}
	h := newTestServer(t, src)

	for _, referer := range []string{"", "https://evil.example/page", "not a url"} {
		req := httptest.NewRequest(http.MethodGet, "/frame/headlines/1", nil)
		if referer != "" {
			req.Header.Set("Referer", referer)
		}
		rec := serve(h, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, "referer %q", referer)
		assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	}
	assert.Zero(t, src.calls(), "upstream must not be contacted for denied requests")
}

func TestFramePageBounds(t *testing.T) {
	src := &fakeSource{cards: sampleCards()}
	h := newTestServer(t, src)

	tests := []struct {
		path string
		want int
	}{
		{"/frame/t/android/1", http.StatusOK},
		{"/frame/t/android/5", http.StatusOK},
		{"/frame/t/android/6", http.StatusNotFound},
		{"/frame/t/android/0", http.StatusNotFound},
		{"/frame/t/android/x", http.StatusNotFound},
		{"/frame/headlines/3", http.StatusOK},
		{"/frame/headlines/4", http.StatusNotFound},
		{"/frame/reply/123", http.StatusOK},
		{"/frame/reply/abc", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(h, frameRequest(tt.path))
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNotFound {
				assert.Equal(t, util.CacheFrameEmpty, rec.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestFrameSuccessHeaders(t *testing.T) {
	src := &fakeSource{cards: sampleCards()}
	h := newTestServer(t, src)

	rec := serve(h, frameRequest("/frame/headlines/1"))
	require.Equal(t, http.StatusOK, rec.Code)

	hdr := rec.Header()
	assert.Equal(t, "text/html; charset=utf-8", hdr.Get("Content-Type"))
	assert.Equal(t, "SAMEORIGIN", hdr.Get("X-Frame-Options"))
	assert.Equal(t, render.FrameCSP(), hdr.Get("Content-Security-Policy"))
	assert.Equal(t, util.CacheFrameOK, hdr.Get("Cache-Control"))
	assert.NotEmpty(t, hdr.Get("ETag"))

	body := rec.Body.String()
	assert.Contains(t, body, "alice")
	assert.NotContains(t, body, "<a href='/u/x'>")
	assert.Contains(t, body, `data-page="1"`)
}

func TestFrameConditionalGet(t *testing.T) {
	src := &fakeSource{cards: sampleCards()}
	h := newTestServer(t, src)

	first := serve(h, frameRequest("/frame/t/android/2"))
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")

	req := frameRequest("/frame/t/android/2")
	req.Header.Set("If-None-Match", etag)
	rec := serve(h, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	for _, header := range []string{"W/" + etag, `"stale", ` + etag} {
		req = frameRequest("/frame/t/android/2")
		req.Header.Set("If-None-Match", header)
		assert.Equal(t, http.StatusNotModified, serve(h, req).Code, header)
	}

	req = frameRequest("/frame/t/android/2")
	req.Header.Set("If-None-Match", `"stale"`)
	assert.Equal(t, http.StatusOK, serve(h, req).Code)
}

func TestFrameForwardedHostByDefault(t *testing.T) {
	src := &fakeSource{cards: sampleCards()}
	proxied := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/frame/headlines/1", nil)
		req.Host = "127.0.0.1:3000"
		req.Header.Set("X-Forwarded-Host", "feeds.example.com")
		req.Header.Set("Referer", "https://feeds.example.com/")
		return req
	}

	assert.Equal(t, http.StatusOK, serve(newTestServer(t, src), proxied()).Code)

	h := newTestServer(t, src, func(c *config.Config) { c.TrustForwardedHost = false })
	assert.Equal(t, http.StatusForbidden, serve(h, proxied()).Code)
}

func TestEmojiImagesResolve(t *testing.T) {
	src := &fakeSource{cards: []types.ContentItem{{ID: "1", Author: "a", Body: "好 [doge笑哭]"}}}
	h := newTestServer(t, src)

	rec := serve(h, frameRequest("/frame/headlines/1"))
	require.Equal(t, http.StatusOK, rec.Code)
	m := regexp.MustCompile(`class="feed-emoji" src="([^"]+)"`).FindStringSubmatch(rec.Body.String())
	require.Len(t, m, 2)

	rec = serve(h, httptest.NewRequest(http.MethodGet, m[1], nil))
	require.Equal(t, http.StatusOK, rec.Code, m[1])
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	for _, path := range []string{"/emoji/nope.svg", "/emoji/doge.png"} {
		assert.Equal(t, http.StatusNotFound, serve(h, httptest.NewRequest(http.MethodGet, path, nil)).Code, path)
	}
}

func TestFrameEmptyAndFailureUseShortCache(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		h := newTestServer(t, &fakeSource{})
		rec := serve(h, frameRequest("/frame/reply/9"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, util.CacheFrameEmpty, rec.Header().Get("Cache-Control"))
		assert.Contains(t, rec.Body.String(), "暂无热门评论")
		assert.Contains(t, rec.Body.String(), "data-terminal")
	})
	t.Run("upstream failure", func(t *testing.T) {
		h := newTestServer(t, &fakeSource{fail: true, cards: sampleCards()})
		rec := serve(h, frameRequest("/frame/t/android/1"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, util.CacheFrameEmpty, rec.Header().Get("Cache-Control"))
		assert.Contains(t, rec.Body.String(), "没有更多内容了")
	})
}

func TestFrameRateLimit(t *testing.T) {
	h := newTestServer(t, &fakeSource{cards: sampleCards()}, func(c *config.Config) {
		c.FrameRPS = 0.001
		c.FrameBurst = 1
	})

	assert.Equal(t, http.StatusOK, serve(h, frameRequest("/frame/headlines/1")).Code)
	rec := serve(h, frameRequest("/frame/headlines/1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestHomeSeedsHeadlines(t *testing.T) {
	src := &fakeSource{}
	h := newTestServer(t, src)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-max-pages="3"`)
	assert.Contains(t, body, `src="/frame/headlines/1"`)
	assert.NotContains(t, body, `src="/frame/headlines/2"`)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-src 'self'")
	assert.Zero(t, src.calls(), "host pages do not fetch listing content")
}

func TestTagPage(t *testing.T) {
	h := newTestServer(t, &fakeSource{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/t/android", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-max-pages="5"`)
	assert.Contains(t, rec.Body.String(), `src="/frame/t/android/1"`)
}

func TestFeedPage(t *testing.T) {
	src := &fakeSource{feeds: map[string]*types.Feed{
		"42": {ContentItem: types.ContentItem{ID: "42", Author: "dave", Body: "# Heading\n\n- one\n- two"}},
	}}
	h := newTestServer(t, src)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/feed/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Heading</h1>", "markdown detected from the body")
	assert.Contains(t, body, `data-lazy`)
	assert.Contains(t, body, `data-path="/frame/reply/42"`)
	assert.NotContains(t, body, `src="/frame/reply/42"`, "replies mount lazily in the browser")

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/feed/42?md=0", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<h1>Heading</h1>")
}

func TestFeedPageSummary(t *testing.T) {
	feeds := map[string]*types.Feed{
		"42": {ContentItem: types.ContentItem{ID: "42", Author: "dave", Body: "plain text"}},
	}
	tests := []struct {
		name string
		sum  summary.Summarizer
		want string
	}{
		{"present", fakeSummarizer{out: "简短摘要"}, "简短摘要"},
		{"absent", nil, ""},
		{"empty", fakeSummarizer{}, ""},
		{"failing", fakeSummarizer{err: errors.New("timeout")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newSummaryServer(t, &fakeSource{feeds: feeds}, tt.sum)
			rec := serve(h, httptest.NewRequest(http.MethodGet, "/feed/42", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			if tt.want == "" {
				assert.NotContains(t, body, `class="post-summary"`)
				return
			}
			assert.Contains(t, body, `class="post-summary"`)
			assert.Contains(t, body, tt.want)
		})
	}
}

func TestFeedPageMissing(t *testing.T) {
	h := newTestServer(t, &fakeSource{})
	for _, path := range []string{"/feed/404", "/feed/abc"} {
		rec := serve(h, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, util.CacheFrameEmpty, rec.Header().Get("Cache-Control"), path)
		assert.Contains(t, rec.Body.String(), "内容不存在或已被删除")
	}
}

func TestGoRedirect(t *testing.T) {
	h := newTestServer(t, &fakeSource{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/go?u=https://www.coolapk.com/feed/123?shareKey=x", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/feed/123", rec.Header().Get("Location"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/go?u=hello", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpstreamLinksRewrite(t *testing.T) {
	links := newUpstreamLinks()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"  12345 ", "/feed/12345", true},
		{"https://www.coolapk.com/feed/777?s=1#x", "/feed/777", true},
		{"coolapk.com/feed/8", "/feed/8", true},
		{"https://www.coolapk.com/t/酷安", "/t/%E9%85%B7%E5%AE%89", true},
		{"https://www.coolapk.com/feed/abc", "", false},
		{"https://www.coolapk.com/u/1", "", false},
		{"https://evilcoolapk.com/feed/1", "", false},
		{"https://example.com/feed/1", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := links.Rewrite(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestQRCode(t *testing.T) {
	h := newTestServer(t, &fakeSource{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/qr/42.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/qr/abc.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticAndHealth(t *testing.T) {
	h := newTestServer(t, &fakeSource{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/static/host.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "height-report")
	assert.Contains(t, rec.Body.String(), "hit.listing.onHeightReport(hit.page,", "page comes from the sending frame's position")
	assert.NotContains(t, rec.Body.String(), "onHeightReport(d.page")

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestServer(t, &fakeSource{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 16)
}
