// Package types provides shared type definitions used across internal packages.
package types

// ContentItem is one displayable unit: a feed card or a comment.
// Items are built once from upstream data and never mutated after render.
type ContentItem struct {
	ID           string
	Author       string
	AvatarURL    string
	Dateline     int64 // seconds since epoch
	Title        string
	Body         string // raw upstream markup
	Images       []string
	Likes        int
	Replies      int
	Shares       int
	Device       string
	Topic        string
	Verified     bool
	IsFeedAuthor bool
	ReplyTo      string // author being answered (nested rows only)

	// Children holds at most what the upstream sent; MoreChildren counts the rest.
	Children     []ContentItem
	MoreChildren int
}

// HasImages reports whether the item carries at least one image reference.
func (c ContentItem) HasImages() bool {
	return len(c.Images) > 0
}

// Block is one part of a structured (article) post.
type Block struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// Feed is a post shown on the detail page.
type Feed struct {
	ContentItem
	FeedType string
	Blocks   []Block // article posts only
	Cover    string
}

// IsArticle reports whether the post body lives in structured blocks.
func (f *Feed) IsArticle() bool {
	return f.FeedType == "feedArticle" && len(f.Blocks) > 0
}
