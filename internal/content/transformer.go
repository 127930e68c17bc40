// Package content turns upstream post and comment markup into display-safe
// HTML: anchors become colored spans, every other tag is removed, bracketed
// emoji codes become inline images and markdown posts render through goldmark.
package content

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"feedmirror/internal/types"
)

// PictureOnlyMarker is the body upstream sends for comments that are only images.
const PictureOnlyMarker = "[图片]"

const DefaultLinkColor = "var(--link)"

// Options configures a Transformer. Zero values fall back to defaults.
type Options struct {
	LinkColor    string
	EmojiBaseURL string
	Emoji        []string
	TitlePattern *regexp.Regexp
	Cues         Cues
}

// Transformer is safe for concurrent use once built.
type Transformer struct {
	linkColor string
	emoji     *emojiSet
	title     *regexp.Regexp
	cues      Cues
	spans     *bluemonday.Policy
	ugc       *bluemonday.Policy
}

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	inlineRun  = regexp.MustCompile(`[ \t\r\f\v]+`)
	safeColor  = regexp.MustCompile(`^[#a-zA-Z0-9(),.%\s-]+$`)
	viewMoreRe = regexp.MustCompile(`<a\s+href="/feed/replyList\?id=\d+"[^>]*>查看更多</a>`)
)

const viewMoreHint = `<span style="color:var(--c2);font-style:italic;font-size:0.9em">（完整评论请到客户端查看）</span>`

func New(opts Options) *Transformer {
	color := opts.LinkColor
	if color == "" || !safeColor.MatchString(color) {
		color = DefaultLinkColor
	}
	vocab := opts.Emoji
	if len(vocab) == 0 {
		vocab = DefaultEmoji
	}
	title := opts.TitlePattern
	if title == nil {
		title = DefaultTitlePattern
	}
	cues := opts.Cues
	if len(cues) == 0 {
		cues = DefaultCues
	}

	spans := bluemonday.NewPolicy()
	spans.AllowElements("span")
	spans.AllowStyles("color").Matching(safeColor).OnElements("span")

	return &Transformer{
		linkColor: color,
		emoji:     newEmojiSet(opts.EmojiBaseURL, vocab),
		title:     title,
		cues:      cues,
		spans:     spans,
		ugc:       bluemonday.UGCPolicy(),
	}
}

// StripHTML keeps anchor labels as colored spans and drops every other tag.
// Whitespace runs collapse to one space and the result is trimmed.
func (t *Transformer) StripHTML(raw string) string {
	if raw == "" {
		return ""
	}
	out := t.strip(raw, false)
	return strings.TrimSpace(spaceRun.ReplaceAllString(t.spans.Sanitize(out), " "))
}

// Transform is StripHTML followed by emoji substitution.
func (t *Transformer) Transform(raw string) template.HTML {
	return template.HTML(t.Emoji(t.StripHTML(raw)))
}

// Lines is Transform that keeps line breaks as <br>.
func (t *Transformer) Lines(raw string) template.HTML {
	if raw == "" {
		return ""
	}
	clean := t.spans.Sanitize(t.strip(raw, true))
	var kept []string
	for _, line := range strings.Split(clean, "\n") {
		line = strings.TrimSpace(inlineRun.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return template.HTML(t.Emoji(strings.Join(kept, "<br>")))
}

// CommentBody renders a comment. Picture-only comments with images render
// empty; the upstream "view more" link becomes a muted hint.
func (t *Transformer) CommentBody(item types.ContentItem) template.HTML {
	if item.Body == PictureOnlyMarker && item.HasImages() {
		return ""
	}
	body := item.Body
	hint := false
	if viewMoreRe.MatchString(body) {
		body = viewMoreRe.ReplaceAllString(body, "")
		hint = true
	}
	out := t.Transform(body)
	if hint {
		if out != "" {
			out += " "
		}
		out += template.HTML(viewMoreHint)
	}
	return out
}

// PostBody renders a post detail body either as markdown or as plain lines.
func (t *Transformer) PostBody(raw string, markdown bool) template.HTML {
	if markdown {
		return t.Markdown(PlainText(raw))
	}
	return t.Lines(raw)
}

// LinkColor returns the effective anchor color.
func (t *Transformer) LinkColor() string { return t.linkColor }

func (t *Transformer) strip(raw string, keepBreaks bool) string {
	var sb strings.Builder
	z := nethtml.NewTokenizer(strings.NewReader(raw))
	open := 0
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			for ; open > 0; open-- {
				sb.WriteString("</span>")
			}
			return sb.String()
		case nethtml.TextToken:
			if skip == 0 {
				sb.WriteString(html.EscapeString(string(z.Text())))
			}
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.A:
				if tt == nethtml.StartTagToken {
					sb.WriteString(`<span style="color:` + html.EscapeString(t.linkColor) + `">`)
					open++
				}
			case atom.Script, atom.Style:
				if tt == nethtml.StartTagToken {
					skip++
				}
			case atom.Br:
				if keepBreaks {
					sb.WriteByte('\n')
				} else {
					sb.WriteByte(' ')
				}
			}
		case nethtml.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.A:
				if open > 0 {
					sb.WriteString("</span>")
					open--
				}
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			case atom.P, atom.Div, atom.Li:
				if keepBreaks {
					sb.WriteByte('\n')
				}
			}
		}
	}
}

// PlainText extracts text with line breaks from upstream markup, unescaped.
func PlainText(raw string) string {
	var sb strings.Builder
	z := nethtml.NewTokenizer(strings.NewReader(raw))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			return strings.TrimSpace(sb.String())
		case nethtml.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Br:
				sb.WriteByte('\n')
			case atom.Script, atom.Style:
				if tt == nethtml.StartTagToken {
					skip++
				}
			}
		case nethtml.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			case atom.P, atom.Div:
				sb.WriteByte('\n')
			}
		}
	}
}
