// Package render produces frame documents and host pages.
//
// A frame document is complete and self-contained: inline palette with a
// prefers-color-scheme fallback, the items, and FrameScript. An empty item
// list renders a single placeholder and marks the result terminal so the
// host stops paginating that key.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"feedmirror/internal/content"
	"feedmirror/internal/types"
	"feedmirror/internal/util"
	"feedmirror/templates"
)

// DefaultFrameLinkColor is the light-palette link color inside frames.
const DefaultFrameLinkColor = "#28a745"

type Options struct {
	Transformer *content.Transformer
	LinkColor   string
	Site        Site
	Now         func() time.Time
}

type Renderer struct {
	tr        *content.Transformer
	linkColor template.CSS
	site      Site
	now       func() time.Time
	frames    *template.Template
	pages     map[string]*template.Template
}

// Result is one rendered frame document.
type Result struct {
	Body     []byte
	Terminal bool
	ETag     string
}

func New(opts Options) *Renderer {
	tr := opts.Transformer
	if tr == nil {
		tr = content.New(content.Options{})
	}
	color := opts.LinkColor
	if color == "" || color == content.DefaultLinkColor {
		color = DefaultFrameLinkColor
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	r := &Renderer{
		tr:        tr,
		linkColor: template.CSS(color),
		site:      opts.Site,
		now:       now,
	}
	r.frames = util.MustCompileTemplate("frames", nil, templates.GetFrameTemplates())
	r.pages = map[string]*template.Template{
		"home":  util.MustCompileTemplate("home", nil, templates.GetHomeTemplate()),
		"tag":   util.MustCompileTemplate("tag", nil, templates.GetTagTemplate()),
		"feed":  util.MustCompileTemplate("feed", nil, templates.GetFeedTemplate()),
		"error": util.MustCompileTemplate("error", nil, templates.GetErrorTemplate()),
	}
	return r
}

// Transformer exposes the content pipeline used by this renderer.
func (r *Renderer) Transformer() *content.Transformer { return r.tr }

func (r *Renderer) RenderReplies(items []types.ContentItem, page int) (Result, error) {
	data := r.frameData(page, len(items) == 0)
	data.Replies = replyViews(r.tr, items)
	return r.execFrame("replies-frame", data)
}

func (r *Renderer) RenderCards(items []types.ContentItem, page int) (Result, error) {
	data := r.frameData(page, len(items) == 0)
	data.Cards = cardViews(r.tr, items, r.now())
	return r.execFrame("cards-frame", data)
}

// Render picks the frame layout for a listing kind.
func (r *Renderer) Render(kind types.ListingKind, items []types.ContentItem, page int) (Result, error) {
	if kind == types.ListingReplies {
		return r.RenderReplies(items, page)
	}
	return r.RenderCards(items, page)
}

func (r *Renderer) frameData(page int, terminal bool) frameData {
	if page < 1 {
		page = 1
	}
	return frameData{
		LinkColor: r.linkColor,
		Page:      page,
		Terminal:  terminal,
		Script:    template.JS(FrameScript),
	}
}

func (r *Renderer) execFrame(name string, data frameData) (Result, error) {
	var buf bytes.Buffer
	if err := r.frames.ExecuteTemplate(&buf, name, data); err != nil {
		return Result{}, fmt.Errorf("render %s: %w", name, err)
	}
	body := buf.Bytes()
	return Result{Body: body, Terminal: data.Terminal, ETag: ETag(body)}, nil
}
