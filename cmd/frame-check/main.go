// Frame Composition Checker
// Loads a host page from a running server and drives its frame listings the
// way the browser would, verifying headers, paging bounds and the origin guard.
package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"

	"feedmirror/internal/frames"
	"feedmirror/internal/lightbox"
	"feedmirror/internal/pagination"
	"feedmirror/internal/render"
	"feedmirror/internal/truncation"
	"feedmirror/internal/types"
)

var (
	baseURL string
	paths   string
	verbose bool
	timeout time.Duration
)

// CheckResult is one verified property.
type CheckResult struct {
	Page    string
	Rule    string
	Passed  bool
	Message string
}

// themeSink stands in for a mounted frame's window.
type themeSink struct {
	got []frames.Message
}

func (s *themeSink) PostMessage(m frames.Message) { s.got = append(s.got, m) }

type checker struct {
	client  *http.Client
	base    *url.URL
	results []CheckResult
}

func main() {
	flag.StringVar(&baseURL, "url", "http://localhost:3000", "Base URL of a running server")
	flag.StringVar(&paths, "paths", "/", "Comma-separated host page paths to check")
	flag.BoolVar(&verbose, "v", false, "Verbose output")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Per-request timeout")
	flag.Parse()

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		fmt.Printf("Invalid -url %q\n", baseURL)
		os.Exit(2)
	}

	fmt.Printf("Frame Composition Checker\n")
	fmt.Printf("==================================\n")
	fmt.Printf("Server: %s\n\n", base)

	c := &checker{client: &http.Client{Timeout: timeout}, base: base}
	for _, p := range strings.Split(paths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			c.checkHostPage(p)
		}
	}

	failed := 0
	for _, r := range c.results {
		if !r.Passed {
			failed++
		}
		if verbose || !r.Passed {
			mark := "PASS"
			if !r.Passed {
				mark = "FAIL"
			}
			fmt.Printf("[%s] %-10s %-28s %s\n", mark, r.Page, r.Rule, r.Message)
		}
	}
	fmt.Printf("\n%d checks, %d failed\n", len(c.results), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func (c *checker) record(page, rule string, passed bool, format string, args ...any) {
	c.results = append(c.results, CheckResult{Page: page, Rule: rule, Passed: passed, Message: fmt.Sprintf(format, args...)})
}

// listingRegion is a [data-listing] section as served.
type listingRegion struct {
	kind       types.ListingKind
	key        string
	maxPages   int
	rootMargin int
	path       string
	lazy       bool
	seeded     int
}

func (c *checker) checkHostPage(path string) {
	hostURL := c.base.ResolveReference(&url.URL{Path: path})
	resp, body, err := c.get(hostURL.String(), "")
	if err != nil {
		c.record(path, "host-page", false, "fetch failed: %v", err)
		return
	}
	c.record(path, "host-page", resp.StatusCode == http.StatusOK, "status %d", resp.StatusCode)
	c.record(path, "host-frame-src", strings.Contains(resp.Header.Get("Content-Security-Policy"), "frame-src 'self'"),
		"CSP %q", resp.Header.Get("Content-Security-Policy"))

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		c.record(path, "host-parse", false, "%v", err)
		return
	}
	regions := findListings(doc)
	if len(regions) == 0 {
		c.record(path, "listings", true, "no frame listings on page")
		return
	}
	for _, region := range regions {
		c.driveListing(path, hostURL.String(), region)
	}
}

// driveListing replays the browser's paging loop against the server: mount,
// wait for the height report, reveal the sentinel, repeat.
func (c *checker) driveListing(page, referer string, region listingRegion) {
	label := page + " " + string(region.kind)
	c.record(label, "max-pages", region.maxPages == region.kind.MaxPages(),
		"data-max-pages=%d, expected %d", region.maxPages, region.kind.MaxPages())
	c.record(label, "root-margin", region.rootMargin == region.kind.RootMargin(),
		"data-root-margin=%d, expected %d", region.rootMargin, region.kind.RootMargin())
	if region.lazy {
		c.record(label, "lazy-seed", region.seeded == 0, "%d frames seeded, expected none", region.seeded)
	} else {
		c.record(label, "eager-seed", region.seeded == 1, "%d frames seeded, expected 1", region.seeded)
	}

	ctrl := pagination.New(region.key, region.maxPages, region.rootMargin)
	ch := frames.NewChannel()
	defer ch.Close()
	sub := ch.Subscribe(ctrl.Handle)
	defer sub.Close()
	lb := lightbox.New()
	lbSub := ch.Subscribe(lb.Handle)
	defer lbSub.Close()

	var sinks []*themeSink
	var pending []int
	ctrl.OnMount(func(p int) { pending = append(pending, p) })
	sentinel := &frames.ManualObserver{}
	ctrl.Mount()
	ctrl.Watch(sentinel, ".frame-sentinel")

	// The whole listing must settle within one timeout per page.
	var expired atomic.Bool
	deadline := &frames.TimerObserver{Delay: timeout * time.Duration(region.maxPages+1)}
	deadline.Start(region.key, func() { expired.Store(true) })
	defer deadline.Stop()

	for len(pending) > 0 {
		if expired.Load() {
			c.record(label, "settles", false, "listing did not settle within %s", deadline.Delay)
			break
		}
		p := pending[0]
		pending = pending[1:]
		src := strings.ReplaceAll(region.path, types.PagePlaceholder, strconv.Itoa(p))
		report, click, ok := c.checkFrame(label, src, referer, p)
		if !ok {
			break
		}
		sink := &themeSink{}
		att := ch.Attach(sink)
		defer att.Close()
		sinks = append(sinks, sink)
		if click != nil {
			c.replayImageClick(label, ch, lb, *click)
		}
		raw, err := frames.Encode(report)
		if err != nil || !ch.Deliver(raw) {
			c.record(label, "height-report", false, "page %d report not delivered", p)
			break
		}
		sentinel.Fire()
	}

	phase, n := ctrl.Phase()
	c.record(label, "exhausts", phase == pagination.Exhausted, "phase %s after %d pages", phase, n)
	c.record(label, "observer-stopped", !sentinel.Active(), "sentinel active=%v", sentinel.Active())
	c.checkThemeBroadcast(label, ch, sinks)

	// One past the last page must not exist.
	if region.kind != types.ListingReplies {
		over := strings.ReplaceAll(region.path, types.PagePlaceholder, strconv.Itoa(region.maxPages+1))
		if resp, _, err := c.get(c.resolve(over), referer); err == nil {
			c.record(label, "page-bound", resp.StatusCode == http.StatusNotFound, "page %d status %d", region.maxPages+1, resp.StatusCode)
		}
	}

	// Without a same-site referer every frame is refused.
	first := strings.ReplaceAll(region.path, types.PagePlaceholder, "1")
	if resp, _, err := c.get(c.resolve(first), "https://elsewhere.invalid/"); err == nil {
		c.record(label, "origin-guard", resp.StatusCode == http.StatusForbidden, "foreign referer status %d", resp.StatusCode)
	}
}

// checkFrame fetches one frame document and produces the height report the
// frame script would send. Heights are nominal; only their presence matters.
func (c *checker) checkFrame(label, src, referer string, page int) (frames.HeightReport, *frames.ImageClick, bool) {
	resp, body, err := c.get(c.resolve(src), referer)
	if err != nil {
		c.record(label, "frame-fetch", false, "%s: %v", src, err)
		return frames.HeightReport{}, nil, false
	}
	if resp.StatusCode != http.StatusOK {
		c.record(label, "frame-fetch", false, "%s: status %d", src, resp.StatusCode)
		return frames.HeightReport{}, nil, false
	}

	h := resp.Header
	c.record(label, "x-frame-options", h.Get("X-Frame-Options") == "SAMEORIGIN", "%s: %q", src, h.Get("X-Frame-Options"))
	c.record(label, "etag", h.Get("ETag") != "", "%s: %q", src, h.Get("ETag"))
	c.record(label, "cache-control", strings.HasPrefix(h.Get("Cache-Control"), "public, max-age="), "%s: %q", src, h.Get("Cache-Control"))

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		c.record(label, "frame-parse", false, "%s: %v", src, err)
		return frames.HeightReport{}, nil, false
	}

	script := inlineScript(doc)
	sum := sha256.Sum256([]byte(script))
	hash := "'sha256-" + base64.StdEncoding.EncodeToString(sum[:]) + "'"
	c.record(label, "script-hash", hash == render.FrameScriptHash() && strings.Contains(h.Get("Content-Security-Policy"), hash),
		"%s: inline script hash %s", src, hash)

	bodyEl := findElement(doc, func(n *html.Node) bool { return n.Data == "body" })
	report := frames.HeightReport{Page: page}
	if bodyEl != nil {
		if got, _ := strconv.Atoi(getAttr(bodyEl, "data-page")); got != page {
			c.record(label, "data-page", false, "%s: data-page=%d", src, got)
		}
		report.Terminal = hasAttr(bodyEl, "data-terminal")
		c.checkExcerpts(label, src, bodyEl)
		report.Height = 40 + 120*countElements(bodyEl, func(n *html.Node) bool {
			return hasClass(n, "card") || hasClass(n, "reply")
		})
	}
	if verbose {
		fmt.Printf("  %s -> %d bytes, terminal=%v\n", src, len(body), report.Terminal)
	}

	var click *frames.ImageClick
	if img := findElement(doc, func(n *html.Node) bool { return n.Data == "img" && hasClass(n, "gallery-img") }); img != nil {
		var images []string
		if err := json.Unmarshal([]byte(getAttr(img, "data-images")), &images); err != nil || len(images) == 0 {
			c.record(label, "gallery-payload", false, "%s: bad data-images: %v", src, err)
		} else {
			index, _ := strconv.Atoi(getAttr(img, "data-index"))
			click = &frames.ImageClick{Images: images, Index: index}
		}
	}
	return report, click, true
}

// checkExcerpts re-derives each card's first-paint truncation from its
// visible text, then widens the viewport the way a desktop browser would.
func (c *checker) checkExcerpts(label, src string, root *html.Node) {
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode || !hasClass(n, "excerpt") {
			return
		}
		m := render.ExcerptMeasurer(strings.TrimSpace(textContent(n)), hasClass(n, "with-title"))
		w := truncation.NewWatcher(m)
		defer w.Stop()

		seeded := hasClass(n, "is-truncated")
		narrow := w.Mount().Overflowing
		c.record(label, "truncation-seed", narrow == seeded, "%s: is-truncated=%v, estimate %v", src, seeded, narrow)

		m.CharsPerLine *= 3
		wide := w.Resized().Overflowing
		c.record(label, "truncation-resize", narrow || !wide, "%s: widening truncated a short excerpt", src)
	})
}

// checkThemeBroadcast flips the scheme to dark and checks that every mounted
// frame receives a well-formed theme-change.
func (c *checker) checkThemeBroadcast(label string, ch *frames.Channel, sinks []*themeSink) {
	sent := ch.Broadcast(frames.ThemeChange{IsDark: true})
	received := 0
	for _, s := range sinks {
		if len(s.got) != 1 {
			continue
		}
		raw, err := frames.Encode(s.got[0])
		if err != nil {
			continue
		}
		if msg, ok := frames.Decode(raw); ok && msg == (frames.ThemeChange{IsDark: true}) {
			received++
		}
	}
	c.record(label, "theme-broadcast", sent == len(sinks) && received == len(sinks),
		"%d of %d frames received theme-change", received, len(sinks))
}

// replayImageClick sends the click the frame script would post for a gallery
// image and checks that the lightbox opens on it.
func (c *checker) replayImageClick(label string, ch *frames.Channel, lb *lightbox.Coordinator, click frames.ImageClick) {
	raw, err := frames.Encode(click)
	if err != nil || !ch.Deliver(raw) {
		c.record(label, "image-click", false, "click not delivered: %v", err)
		return
	}
	st := lb.State()
	c.record(label, "image-click", st.Visible && st.Index == click.Index && len(st.Images) == len(click.Images),
		"lightbox visible=%v index=%d of %d", st.Visible, st.Index, len(st.Images))
	lb.Close()
}

func (c *checker) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.base.String() + path
	}
	return c.base.ResolveReference(ref).String()
}

func (c *checker) get(target, referer string) (*http.Response, []byte, error) {
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, err
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	return resp, body, err
}

func findListings(doc *html.Node) []listingRegion {
	var out []listingRegion
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || !hasAttr(n, "data-listing") {
			return
		}
		maxPages, _ := strconv.Atoi(getAttr(n, "data-max-pages"))
		margin, _ := strconv.Atoi(getAttr(n, "data-root-margin"))
		out = append(out, listingRegion{
			kind:       types.ListingKind(getAttr(n, "data-listing")),
			key:        getAttr(n, "data-key"),
			maxPages:   maxPages,
			rootMargin: margin,
			path:       getAttr(n, "data-path"),
			lazy:       hasAttr(n, "data-lazy"),
			seeded:     countElements(n, func(c *html.Node) bool { return c.Data == "iframe" }),
		})
	})
	return out
}

func inlineScript(doc *html.Node) string {
	el := findElement(doc, func(n *html.Node) bool { return n.Data == "script" && !hasAttr(n, "src") })
	if el == nil || el.FirstChild == nil {
		return ""
	}
	return el.FirstChild.Data
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findElement(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) {
		if found == nil && n.Type == html.ElementNode && match(n) {
			found = n
		}
	})
	return found
}

func countElements(root *html.Node, match func(*html.Node) bool) int {
	count := 0
	walk(root, func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			count++
		}
	})
	return count
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
