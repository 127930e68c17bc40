package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	"feedmirror/internal/content"
	"feedmirror/internal/pagination"
	"feedmirror/internal/types"
	"feedmirror/internal/util"
)

// Site is the host page chrome.
type Site struct {
	Name        string
	Description string
	BaseURL     string
	AdClient    string
	AdSlot      string
	OriginalURL string // printf pattern for a post on the upstream site
}

// AdsEnabled reports whether both ad identifiers are configured.
func (s Site) AdsEnabled() bool {
	return s.AdClient != "" && s.AdSlot != ""
}

// Listing seeds a host-side pagination region from a controller.
type Listing struct {
	Kind        string
	Key         string
	MaxPages    int
	RootMargin  int
	SrcTemplate string // frame URL with {page} placeholder
	Pages       []ListingFrame
	Lazy        bool // mount page 1 only when near the viewport
	Exhausted   bool
}

type ListingFrame struct {
	Page int
	Src  string
}

// ListingFor builds the host region for a controller whose eager mount has
// already happened (or, for lazy listings, will happen in the browser).
func ListingFor(kind types.ListingKind, scope string, c *pagination.Controller, lazy bool) Listing {
	l := Listing{
		Kind:        string(kind),
		Key:         c.Key,
		MaxPages:    c.MaxPages,
		RootMargin:  c.RootMargin,
		SrcTemplate: kind.FrameTemplate(scope),
		Lazy:        lazy,
		Exhausted:   c.Exhausted(),
	}
	if !lazy {
		for _, p := range c.Pages() {
			l.Pages = append(l.Pages, ListingFrame{Page: p, Src: kind.FramePath(scope, p)})
		}
	}
	return l
}

type pageBase struct {
	Site         Site
	Title        string
	Description  string
	CanonicalURL string
	Image        string
}

type HomePage struct {
	pageBase
	Headlines Listing
	ShareHint string
}

type FeedPage struct {
	pageBase
	ID          string
	Author      string
	Avatar      string
	Verified    bool
	Date        string
	Device      string
	Topic       string
	PostTitle   template.HTML
	Summary     string
	Body        template.HTML
	Markdown    bool
	ToggleURL   string
	Images      []string
	ImagesJSON  string
	Likes       int
	Replies     int
	Shares      int
	OriginalURL string
	QRPath      string
	ReplyFrames Listing
}

type TagPage struct {
	pageBase
	Tag     string
	Listing Listing
}

type ErrorPage struct {
	pageBase
	Status  int
	Message string
}

func (r *Renderer) base(title, path string) pageBase {
	b := pageBase{Site: r.site, Title: title, Description: r.site.Description}
	if r.site.BaseURL != "" {
		b.CanonicalURL = r.site.BaseURL + path
	}
	return b
}

func (r *Renderer) execPage(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.pages[name].ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Home renders the landing page with eagerly mounted headline frames.
func (r *Renderer) Home(headlines Listing) ([]byte, error) {
	return r.execPage("home", HomePage{
		pageBase:  r.base(r.site.Name, "/"),
		Headlines: headlines,
		ShareHint: "粘贴分享链接或动态 ID",
	})
}

// Tag renders a topic page.
func (r *Renderer) Tag(tag string, listing Listing) ([]byte, error) {
	return r.execPage("tag", TagPage{
		pageBase: r.base("#"+tag, "/t/"+url.PathEscape(tag)),
		Tag:      tag,
		Listing:  listing,
	})
}

// Feed renders a post detail page. markdown selects the body renderer.
func (r *Renderer) Feed(f *types.Feed, markdown bool, summary string, replies Listing) ([]byte, error) {
	title, body := r.tr.SplitTitle(f.Title, f.Body)
	var rendered template.HTML
	if f.IsArticle() {
		rendered = r.articleBody(f, markdown)
	} else {
		rendered = r.tr.PostBody(body, markdown)
	}

	plainTitle := content.PlainText(title)
	if plainTitle == "" {
		plainTitle = util.TruncateStringRunes(content.PlainText(body), 30)
	}
	p := FeedPage{
		pageBase:    r.base(plainTitle, FeedHref(f.ID)),
		ID:          f.ID,
		Author:      f.Author,
		Avatar:      f.AvatarURL,
		Verified:    f.Verified,
		Date:        content.FormatDate(f.Dateline),
		Device:      f.Device,
		Topic:       f.Topic,
		PostTitle:   r.tr.Transform(title),
		Summary:     summary,
		Body:        rendered,
		Markdown:    markdown,
		ToggleURL:   toggleURL(f.ID, !markdown),
		Images:      f.Images,
		ImagesJSON:  imagesJSON(f.Images),
		Likes:       f.Likes,
		Replies:     f.Replies,
		Shares:      f.Shares,
		QRPath:      "/qr/" + url.PathEscape(f.ID) + ".png",
		ReplyFrames: replies,
	}
	p.Description = util.TruncateStringRunes(content.PlainText(body), 120)
	if f.Cover != "" {
		p.Image = f.Cover
	} else if len(f.Images) > 0 {
		p.Image = f.Images[0]
	}
	if r.site.OriginalURL != "" {
		p.OriginalURL = fmt.Sprintf(r.site.OriginalURL, url.PathEscape(f.ID))
	}
	return r.execPage("feed", p)
}

// Error renders a host-level error page.
func (r *Renderer) Error(status int, message string) ([]byte, error) {
	return r.execPage("error", ErrorPage{
		pageBase: r.base(message, ""),
		Status:   status,
		Message:  message,
	})
}

func (r *Renderer) articleBody(f *types.Feed, markdown bool) template.HTML {
	var out template.HTML
	for _, b := range f.Blocks {
		switch b.Type {
		case "text":
			out += r.tr.PostBody(b.Message, markdown)
		case "image":
			if b.URL != "" {
				out += template.HTML(`<p><img class="article-img" src="` + template.HTMLEscapeString(b.URL) + `" alt="" loading="lazy"></p>`)
			}
		}
	}
	return out
}

func toggleURL(id string, markdown bool) string {
	v := "0"
	if markdown {
		v = "1"
	}
	return FeedHref(id) + "?md=" + v
}
