package content

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

// DefaultEmoji is the bracketed-code vocabulary the upstream client emits.
var DefaultEmoji = []string{
	"doge", "doge笑哭", "doge原谅ta", "doge呵斥", "doge受虐", "二哈", "OK", "赞",
	"微笑", "哈哈", "笑哭", "滑稽", "呲牙", "偷笑", "大笑", "坏笑", "斜眼",
	"流汗", "捂脸", "吃瓜", "酷", "可怜", "哭", "大哭", "委屈", "怒", "生气",
	"疑问", "惊讶", "害羞", "亲亲", "色", "心", "心碎", "鼓掌", "抱拳", "强",
	"弱", "加油", "无语", "晕", "困", "再见", "喷", "阴险", "机智", "汗",
	"耶", "思考", "拜托", "酸了", "绿帽", "黑线", "蛋糕", "礼物", "玫瑰", "凋谢",
}

// glyphs draws the default vocabulary when no emoji image host is
// configured.
var glyphs = map[string]string{
	"doge": "🐶", "doge笑哭": "🐶", "doge原谅ta": "🐶", "doge呵斥": "🐶", "doge受虐": "🐶",
	"二哈": "🐺", "OK": "👌", "赞": "👍", "微笑": "🙂", "哈哈": "😄", "笑哭": "😂",
	"滑稽": "😏", "呲牙": "😁", "偷笑": "🤭", "大笑": "😆", "坏笑": "😈", "斜眼": "😒",
	"流汗": "😓", "捂脸": "🤦", "吃瓜": "🍉", "酷": "😎", "可怜": "🥺", "哭": "😢",
	"大哭": "😭", "委屈": "😞", "怒": "😠", "生气": "😡", "疑问": "❓", "惊讶": "😲",
	"害羞": "😊", "亲亲": "😘", "色": "😍", "心": "❤️", "心碎": "💔", "鼓掌": "👏",
	"抱拳": "🤝", "强": "💪", "弱": "👎", "加油": "✊", "无语": "😑", "晕": "😵",
	"困": "😪", "再见": "👋", "喷": "💦", "阴险": "😼", "机智": "🤓", "汗": "😅",
	"耶": "✌️", "思考": "🤔", "拜托": "🙏", "酸了": "🍋", "绿帽": "🧢", "黑线": "😶",
	"蛋糕": "🎂", "礼物": "🎁", "玫瑰": "🌹", "凋谢": "🥀",
}

// DefaultEmojiBase is served by the mirror itself as SVG glyphs. A
// configured base is expected to host <code>.png images.
const DefaultEmojiBase = "/emoji/"

var emojiCode = regexp.MustCompile(`\[([^\[\]<>\s]{1,16})\]`)

type emojiSet struct {
	base  string
	ext   string
	known map[string]struct{}
}

func newEmojiSet(base string, vocab []string) *emojiSet {
	ext := ".png"
	if base == "" {
		base, ext = DefaultEmojiBase, ".svg"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	known := make(map[string]struct{}, len(vocab))
	for _, v := range vocab {
		known[v] = struct{}{}
	}
	return &emojiSet{base: base, ext: ext, known: known}
}

func (e *emojiSet) img(code string) string {
	src := e.base + url.PathEscape(code) + e.ext
	return `<img class="feed-emoji" src="` + html.EscapeString(src) + `" alt="[` + html.EscapeString(code) +
		`]" style="width:1.2em;height:1.2em;vertical-align:-0.22em">`
}

// Emoji replaces known bracketed codes in text with inline images. Text
// inside tags, including the alt of an image it produced, is never touched,
// so applying it twice yields the same markup.
func (t *Transformer) Emoji(markup string) string {
	if !strings.Contains(markup, "[") {
		return markup
	}
	var sb strings.Builder
	sb.Grow(len(markup))
	for len(markup) > 0 {
		lt := strings.IndexByte(markup, '<')
		if lt < 0 {
			sb.WriteString(t.replaceCodes(markup))
			break
		}
		sb.WriteString(t.replaceCodes(markup[:lt]))
		gt := strings.IndexByte(markup[lt:], '>')
		if gt < 0 {
			sb.WriteString(markup[lt:])
			break
		}
		sb.WriteString(markup[lt : lt+gt+1])
		markup = markup[lt+gt+1:]
	}
	return sb.String()
}

func (t *Transformer) replaceCodes(text string) string {
	if !strings.Contains(text, "[") {
		return text
	}
	return emojiCode.ReplaceAllStringFunc(text, func(m string) string {
		code := m[1 : len(m)-1]
		if _, ok := t.emoji.known[code]; !ok {
			return m
		}
		return t.emoji.img(code)
	})
}

// EmojiSVG returns the glyph image for a vocabulary code, or false when the
// code is unknown or has no glyph.
func (t *Transformer) EmojiSVG(code string) ([]byte, bool) {
	if _, ok := t.emoji.known[code]; !ok {
		return nil, false
	}
	g, ok := glyphs[code]
	if !ok {
		return nil, false
	}
	return []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 32 32">` +
		`<text x="16" y="26" font-size="26" text-anchor="middle">` + html.EscapeString(g) + `</text></svg>`), true
}
