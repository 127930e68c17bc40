// Package frames defines the message protocol between a host page and the
// content frames it embeds, and the host-side channel that routes it.
//
// Frames share no memory with the host. They post small JSON envelopes to
// the parent window; the host posts theme changes back. Every envelope has
// a "type" discriminant and anything unrecognized is dropped silently,
// because browser extensions and the platform itself post messages too.
package frames

import (
	"encoding/json"
	"errors"
)

// Wire discriminants.
const (
	TypeHeightReport = "height-report"
	TypeImageClick   = "image-click"
	TypeThemeChange  = "theme-change"
)

// Message is the closed set of frame messages. Only types in this package
// implement it.
type Message interface {
	Type() string
	isMessage()
}

// HeightReport is sent by a frame whenever its content box changes size.
// Terminal is set by frames that rendered the empty placeholder, meaning no
// later page exists for the listing.
type HeightReport struct {
	Page     int
	Height   int
	Terminal bool
}

// ImageClick is sent by a frame when a gallery image is clicked.
type ImageClick struct {
	Images []string
	Index  int
}

// ThemeChange is sent by the host when the system color scheme flips.
type ThemeChange struct {
	IsDark bool
}

func (HeightReport) Type() string { return TypeHeightReport }
func (ImageClick) Type() string   { return TypeImageClick }
func (ThemeChange) Type() string  { return TypeThemeChange }

func (HeightReport) isMessage() {}
func (ImageClick) isMessage()   {}
func (ThemeChange) isMessage()  {}

// envelope is the union of all wire fields.
type envelope struct {
	Type     string   `json:"type"`
	Page     *int     `json:"page,omitempty"`
	Height   *int     `json:"height,omitempty"`
	Images   []string `json:"images,omitempty"`
	Index    *int     `json:"index,omitempty"`
	IsDark   *bool    `json:"isDark,omitempty"`
	Terminal bool     `json:"terminal,omitempty"`
}

var errUnknownMessage = errors.New("frames: unknown message type")

// Decode parses a wire message. ok is false for anything that is not a
// well-formed, recognized message; callers drop those without logging.
func Decode(data []byte) (msg Message, ok bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	switch env.Type {
	case TypeHeightReport:
		if env.Height == nil || *env.Height < 0 {
			return nil, false
		}
		page := 1
		if env.Page != nil {
			page = *env.Page
		}
		if page < 1 {
			return nil, false
		}
		return HeightReport{Page: page, Height: *env.Height, Terminal: env.Terminal}, true
	case TypeImageClick:
		if len(env.Images) == 0 {
			return nil, false
		}
		idx := 0
		if env.Index != nil {
			idx = *env.Index
		}
		return ImageClick{Images: env.Images, Index: idx}, true
	case TypeThemeChange:
		if env.IsDark == nil {
			return nil, false
		}
		return ThemeChange{IsDark: *env.IsDark}, true
	default:
		return nil, false
	}
}

// Encode renders msg in wire form.
func Encode(msg Message) ([]byte, error) {
	switch m := msg.(type) {
	case HeightReport:
		return json.Marshal(envelope{Type: TypeHeightReport, Page: &m.Page, Height: &m.Height, Terminal: m.Terminal})
	case ImageClick:
		return json.Marshal(envelope{Type: TypeImageClick, Images: m.Images, Index: &m.Index})
	case ThemeChange:
		return json.Marshal(envelope{Type: TypeThemeChange, IsDark: &m.IsDark})
	default:
		return nil, errUnknownMessage
	}
}
