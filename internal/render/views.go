package render

import (
	"encoding/json"
	"html/template"
	"net/url"
	"time"

	"feedmirror/internal/content"
	"feedmirror/internal/truncation"
	"feedmirror/internal/types"
	"feedmirror/internal/util"
)

const maxCardPics = 3

// Excerpt layout used to pre-compute the truncated class.
const (
	excerptLines        = 3
	excerptLinesTitled  = 2
	excerptCharsPerLine = 24
	excerptLineHeight   = 26
)

// ExcerptMeasurer estimates a card excerpt's layout from its visible text
// at the narrowest supported width. The frame script replaces the result
// with a real measurement once the frame has a box.
func ExcerptMeasurer(text string, titled bool) *truncation.EstimateMeasurer {
	lines := excerptLines
	if titled {
		lines = excerptLinesTitled
	}
	return &truncation.EstimateMeasurer{
		Text:         text,
		Lines:        lines,
		CharsPerLine: excerptCharsPerLine,
		LineHeight:   excerptLineHeight,
	}
}

type frameData struct {
	LinkColor template.CSS
	Page      int
	Terminal  bool
	Script    template.JS
	Replies   []replyView
	Cards     []cardView
}

type rowView struct {
	Author     string
	ReplyTo    string
	Date       string
	Body       template.HTML
	Pics       []string
	ImagesJSON string
}

type replyView struct {
	Author     string
	Avatar     string
	Date       string
	IsAuthor   bool
	Likes      int
	Replies    int
	Body       template.HTML
	Pics       []string
	ImagesJSON string
	Rows       []rowView
	More       int
}

type cardView struct {
	Href       string
	Author     string
	Avatar     string
	Verified   bool
	TimeAgo    string
	Device     string
	Topic      string
	Title      template.HTML
	Excerpt    template.HTML
	Truncated  bool
	Pics       []string
	MorePics   bool
	PicCount   int
	ImagesJSON string
	Likes      int
	Replies    int
	Shares     int
}

func imagesJSON(images []string) string {
	if len(images) == 0 {
		return ""
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// FeedHref is the host page path for a post.
func FeedHref(id string) string {
	return "/feed/" + url.PathEscape(id)
}

func replyViews(tr *content.Transformer, items []types.ContentItem) []replyView {
	out := make([]replyView, 0, len(items))
	for _, it := range items {
		v := replyView{
			Author:     it.Author,
			Avatar:     it.AvatarURL,
			Date:       content.FormatDate(it.Dateline),
			IsAuthor:   it.IsFeedAuthor,
			Likes:      it.Likes,
			Replies:    it.Replies,
			Body:       tr.CommentBody(it),
			Pics:       it.Images,
			ImagesJSON: imagesJSON(it.Images),
			More:       it.MoreChildren,
		}
		for _, c := range it.Children {
			v.Rows = append(v.Rows, rowView{
				Author:     c.Author,
				ReplyTo:    c.ReplyTo,
				Date:       content.FormatDate(c.Dateline),
				Body:       tr.CommentBody(c),
				Pics:       c.Images,
				ImagesJSON: imagesJSON(c.Images),
			})
		}
		out = append(out, v)
	}
	return out
}

func cardViews(tr *content.Transformer, items []types.ContentItem, now time.Time) []cardView {
	out := make([]cardView, 0, len(items))
	for _, it := range items {
		title, body := tr.SplitTitle(it.Title, it.Body)
		excerpt := tr.Transform(body)
		truncated := truncation.Overflows(ExcerptMeasurer(content.PlainText(string(excerpt)), title != ""))
		out = append(out, cardView{
			Href:       FeedHref(it.ID),
			Author:     it.Author,
			Avatar:     it.AvatarURL,
			Verified:   it.Verified,
			TimeAgo:    content.TimeAgo(it.Dateline, now),
			Device:     it.Device,
			Topic:      it.Topic,
			Title:      tr.Transform(title),
			Excerpt:    excerpt,
			Truncated:  truncated,
			Pics:       util.LimitSlice(it.Images, maxCardPics),
			MorePics:   len(it.Images) > maxCardPics,
			PicCount:   len(it.Images),
			ImagesJSON: imagesJSON(it.Images),
			Likes:      it.Likes,
			Replies:    it.Replies,
			Shares:     it.Shares,
		})
	}
	return out
}
