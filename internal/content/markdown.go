package content

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"feedmirror/internal/types"
)

// Cue is one syntactic hint that a sample is markdown.
type Cue struct {
	Name    string
	Pattern *regexp.Regexp
}

// Cues is a detection policy. Any matching cue counts.
type Cues []Cue

var DefaultCues = Cues{
	{"header", regexp.MustCompile(`(?m)^#{1,6}\s+\S`)},
	{"fence", regexp.MustCompile("(?m)^\\s*```")},
	{"emphasis", regexp.MustCompile(`\*\*[^*\n]+\*\*|__[^_\n]+__`)},
	{"link", regexp.MustCompile(`\[[^\]\n]+\]\([^)\s]+\)`)},
	{"list", regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+\S.*\n\s*(?:[-*+]|\d+\.)\s+\S`)},
	{"quote", regexp.MustCompile(`(?m)^>\s?\S`)},
	{"table", regexp.MustCompile(`(?m)^\|.*\|\s*\n\|[\s:|-]+\|`)},
}

// Match returns the name of the first matching cue.
func (c Cues) Match(sample string) (string, bool) {
	for _, cue := range c {
		if cue.Pattern.MatchString(sample) {
			return cue.Name, true
		}
	}
	return "", false
}

// DetectMarkdown reports whether sample looks like markdown. It is a
// heuristic; a miss just renders the text plain.
func (t *Transformer) DetectMarkdown(sample string) bool {
	if strings.TrimSpace(sample) == "" {
		return false
	}
	_, ok := t.cues.Match(sample)
	return ok
}

// SampleForFeed picks the detection sample: the joined text blocks of an
// article post, otherwise the body as plain text.
func SampleForFeed(feed types.Feed) string {
	if feed.IsArticle() {
		var parts []string
		for _, b := range feed.Blocks {
			if b.Type == "text" && b.Message != "" {
				parts = append(parts, b.Message)
			}
		}
		return strings.Join(parts, "\n")
	}
	return PlainText(feed.Body)
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// Markdown renders text through goldmark and the UGC sanitizer, then
// substitutes emoji.
func (t *Transformer) Markdown(text string) template.HTML {
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return t.Lines(template.HTMLEscapeString(text))
	}
	return template.HTML(t.Emoji(t.ugc.Sanitize(buf.String())))
}
