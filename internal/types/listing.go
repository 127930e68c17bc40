package types

import (
	"net/url"
	"strconv"
)

// ListingKind identifies one of the paginated content types rendered through frames.
type ListingKind string

const (
	ListingReplies   ListingKind = "replies"
	ListingHeadlines ListingKind = "headlines"
	ListingTag       ListingKind = "tag"
)

// MaxPages returns the fixed page cap for a listing kind.
// Hot replies are a single list; the upstream exposes no further pages.
func (k ListingKind) MaxPages() int {
	switch k {
	case ListingHeadlines:
		return 3
	case ListingTag:
		return 5
	case ListingReplies:
		return 1
	default:
		return 0
	}
}

// RootMargin is the proximity margin, in CSS pixels, used by the load-more sentinel.
func (k ListingKind) RootMargin() int {
	if k == ListingReplies {
		return 200
	}
	return 100
}

// Key builds the pagination key for a listing. scope is the tag or post id.
func (k ListingKind) Key(scope string) string {
	if scope == "" {
		return string(k)
	}
	return string(k) + ":" + scope
}

// FramePath returns the frame endpoint path for the given scope and page.
func (k ListingKind) FramePath(scope string, page int) string {
	switch k {
	case ListingReplies:
		return "/frame/reply/" + url.PathEscape(scope)
	case ListingHeadlines:
		return "/frame/headlines/" + strconv.Itoa(page)
	case ListingTag:
		return "/frame/t/" + url.PathEscape(scope) + "/" + strconv.Itoa(page)
	default:
		return ""
	}
}

// PagePlaceholder marks where the page number goes in a FrameTemplate.
const PagePlaceholder = "{page}"

// FrameTemplate is FramePath with the page number left as PagePlaceholder,
// for the browser to fill in.
func (k ListingKind) FrameTemplate(scope string) string {
	switch k {
	case ListingReplies:
		return k.FramePath(scope, 1)
	case ListingHeadlines:
		return "/frame/headlines/" + PagePlaceholder
	case ListingTag:
		return "/frame/t/" + url.PathEscape(scope) + "/" + PagePlaceholder
	default:
		return ""
	}
}
