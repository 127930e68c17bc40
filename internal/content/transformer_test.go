package content

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"pgregory.net/rapid"

	"feedmirror/internal/types"
)

// visible walks parsed markup and returns its text plus the text of every
// element by tag.
func visible(t *testing.T, markup string) (string, map[string][]string) {
	t.Helper()
	nodes, err := nethtml.ParseFragment(strings.NewReader(markup), &nethtml.Node{
		Type: nethtml.ElementNode, Data: "div", DataAtom: atom.Div,
	})
	require.NoError(t, err)

	var sb strings.Builder
	byTag := map[string][]string{}
	var walk func(n *nethtml.Node) string
	walk = func(n *nethtml.Node) string {
		if n.Type == nethtml.TextNode {
			sb.WriteString(n.Data)
			return n.Data
		}
		var inner strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			inner.WriteString(walk(c))
		}
		if n.Type == nethtml.ElementNode {
			byTag[n.Data] = append(byTag[n.Data], inner.String())
		}
		return inner.String()
	}
	for _, n := range nodes {
		walk(n)
	}
	return sb.String(), byTag
}

func TestStripHTMLAnchorBecomesSpan(t *testing.T) {
	tr := New(Options{})
	out := tr.StripHTML(`<a href="x">hi</a> <b>there</b>`)

	text, tags := visible(t, out)
	assert.Equal(t, "hi there", text)
	assert.Equal(t, []string{"hi"}, tags["span"])
	assert.Len(t, tags, 1, "only the span survives")
	assert.Contains(t, out, "var(--link)")
	assert.NotContains(t, out, "href")
	assert.NotContains(t, out, "<b>")
}

func TestStripHTML(t *testing.T) {
	tr := New(Options{})
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"collapse whitespace", "  a \n\n\t b  ", "a b"},
		{"drop tags", "<p>one</p><div><i>two</i></div>", "onetwo"},
		{"br is a space", "one<br/>two", "one two"},
		{"script dropped", "ok<script>alert(1)</script>", "ok"},
		{"escapes text", "1 &lt; 2", "1 &lt; 2"},
		{"stray lt", "a < b", "a &lt; b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.StripHTML(tt.in))
		})
	}
}

func TestStripHTMLUnclosedAnchor(t *testing.T) {
	tr := New(Options{})
	out := tr.StripHTML(`see <a href="/u/1">@bob`)
	text, tags := visible(t, out)
	assert.Equal(t, "see @bob", text)
	assert.Equal(t, []string{"@bob"}, tags["span"])
}

func TestLinkColorOption(t *testing.T) {
	tr := New(Options{LinkColor: "#0af"})
	assert.Contains(t, tr.StripHTML(`<a href="x">y</a>`), "#0af")

	bad := New(Options{LinkColor: `red" onclick="x`})
	assert.Equal(t, DefaultLinkColor, bad.LinkColor())
}

func TestEmoji(t *testing.T) {
	tr := New(Options{EmojiBaseURL: "https://cdn.example/e"})

	out := tr.Emoji("nice [doge] and [nope]")
	assert.Contains(t, out, `<img class="feed-emoji" src="https://cdn.example/e/doge.png" alt="[doge]"`)
	assert.Contains(t, out, "1.2em")
	assert.Contains(t, out, "[nope]")
	assert.Equal(t, 1, strings.Count(out, "<img"))
}

func TestEmojiDefaultBaseIsServed(t *testing.T) {
	tr := New(Options{})
	out := tr.Emoji("[doge笑哭]")
	assert.Contains(t, out, `src="/emoji/doge%E7%AC%91%E5%93%AD.svg"`)

	for _, code := range DefaultEmoji {
		svg, ok := tr.EmojiSVG(code)
		if assert.True(t, ok, "no glyph for %q", code) {
			assert.True(t, strings.HasPrefix(string(svg), "<svg "))
		}
	}
	_, ok := tr.EmojiSVG("nope")
	assert.False(t, ok)
}

func TestEmojiIdempotent(t *testing.T) {
	tr := New(Options{})
	once := tr.Emoji("[哈哈][哈哈] <span style=\"color:red\">[doge]</span>")
	assert.Equal(t, once, tr.Emoji(once))
	assert.Equal(t, 3, strings.Count(once, "<img"))
}

func TestEmojiIdempotentProperty(t *testing.T) {
	tr := New(Options{})
	pieces := append([]string{"[", "]", "<", ">", " ", "a", "[x]", "<b>", "\""}, func() []string {
		var codes []string
		for _, c := range DefaultEmoji[:8] {
			codes = append(codes, "["+c+"]")
		}
		return codes
	}()...)
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOf(rapid.SampledFrom(pieces)).Draw(t, "parts")
		in := strings.Join(parts, "")
		once := tr.Emoji(in)
		if twice := tr.Emoji(once); twice != once {
			t.Fatalf("not idempotent:\n in: %q\n 1x: %q\n 2x: %q", in, once, twice)
		}
	})
}

func TestTransformAppliesEmojiAfterStrip(t *testing.T) {
	tr := New(Options{})
	out := string(tr.Transform(`<a href="/t/x">#tag</a> [滑稽]`))
	assert.Contains(t, out, "#tag</span>")
	assert.Contains(t, out, `alt="[滑稽]"`)
}

func TestCommentBody(t *testing.T) {
	tr := New(Options{})

	picOnly := types.ContentItem{Body: PictureOnlyMarker, Images: []string{"p.jpg"}}
	assert.Empty(t, tr.CommentBody(picOnly))
	assert.True(t, picOnly.HasImages())

	noPics := types.ContentItem{Body: PictureOnlyMarker}
	assert.Equal(t, "[图片]", string(tr.CommentBody(noPics)))

	withMore := types.ContentItem{Body: `同意 <a href="/feed/replyList?id=123">查看更多</a>`}
	out := string(tr.CommentBody(withMore))
	assert.Contains(t, out, "同意")
	assert.Contains(t, out, "完整评论请到客户端查看")
	assert.NotContains(t, out, "replyList")
}

func TestLines(t *testing.T) {
	tr := New(Options{})
	out := string(tr.Lines("first line<br />second   line<br><br>third"))
	assert.Equal(t, "first line<br>second line<br>third", out)
}

func TestDetectMarkdown(t *testing.T) {
	tr := New(Options{})
	tests := []struct {
		sample string
		want   bool
	}{
		{"# Title\ntext", true},
		{"```go\nfmt.Println()\n```", true},
		{"this is **bold** text", true},
		{"see [docs](https://example.com)", true},
		{"- one\n- two", true},
		{"> quoted", true},
		{"just a normal post [doge]", false},
		{"5 * 3 = 15", false},
		{"#hashtag# style topic", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.sample, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.DetectMarkdown(tt.sample))
		})
	}
}

func TestCustomCues(t *testing.T) {
	tr := New(Options{Cues: Cues{DefaultCues[0]}})
	assert.False(t, tr.DetectMarkdown("**bold**"))
	assert.True(t, tr.DetectMarkdown("## h2"))
}

func TestSampleForFeed(t *testing.T) {
	article := types.Feed{
		FeedType: "feedArticle",
		Blocks: []types.Block{
			{Type: "text", Message: "## intro"},
			{Type: "image", URL: "x.jpg"},
			{Type: "text", Message: "body"},
		},
	}
	assert.Equal(t, "## intro\nbody", SampleForFeed(article))

	plain := types.Feed{ContentItem: types.ContentItem{Body: "line<br/>**two**"}}
	assert.Equal(t, "line\n**two**", SampleForFeed(plain))
}

func TestMarkdownSanitizes(t *testing.T) {
	tr := New(Options{})
	out := string(tr.Markdown("# Hi\n\n<script>alert(1)</script>\n\n[x](javascript:alert(1)) [doge]"))
	assert.Contains(t, out, "<h1")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, `alt="[doge]"`)
}

func TestPostBody(t *testing.T) {
	tr := New(Options{})
	assert.Contains(t, string(tr.PostBody("**a**", true)), "<strong>a</strong>")
	assert.Equal(t, "**a**", string(tr.PostBody("**a**", false)))
}

func TestSplitTitle(t *testing.T) {
	tr := New(Options{})
	tests := []struct {
		name, title, body     string
		wantTitle, wantBodyEq string
	}{
		{"explicit title wins", "T", "【x】rest", "T", "【x】rest"},
		{"lead-in becomes title", "", "【新品】 今天发布", "【新品】", "今天发布"},
		{"multiline remainder", "", "【a】\nline1\nline2", "【a】", "line1\nline2"},
		{"no lead-in", "", "hello 【a】", "", "hello 【a】"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := tr.SplitTitle(tt.title, tt.body)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantBodyEq, body)
		})
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tests := []struct {
		ago  int64
		want string
	}{
		{10, "刚刚"},
		{-30, "刚刚"},
		{120, "2分钟前"},
		{3599, "59分钟前"},
		{7200, "2小时前"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeAgo(now.Unix()-tt.ago, now))
	}
	assert.Equal(t, FormatDate(now.Unix()-90000), TimeAgo(now.Unix()-90000, now))
	assert.Empty(t, TimeAgo(0, now))
}

func TestFormatDate(t *testing.T) {
	// 2023-11-14 22:13:20 UTC
	assert.Equal(t, "2023/11/15 06:13", FormatDate(1_700_000_000))
	assert.Empty(t, FormatDate(0))
}
