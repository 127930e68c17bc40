package upstream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"feedmirror/internal/types"
	"feedmirror/internal/util"
)

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(b))
	return nil
}

// flexInt accepts a JSON number or a numeric string. Anything else is zero.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(s)), 10, 64)
	if err != nil {
		if fl, ferr := strconv.ParseFloat(string(s), 64); ferr == nil {
			n = int64(fl)
		}
	}
	*f = flexInt(n)
	return nil
}

type wireUserInfo struct {
	VerifyStatus flexInt `json:"verify_status"`
}

// wireItem is the subset of upstream feed and reply objects the site renders.
type wireItem struct {
	ID            flexString    `json:"id"`
	EntityType    string        `json:"entityType"`
	FeedType      string        `json:"feedType"`
	Username      string        `json:"username"`
	UserAvatar    string        `json:"userAvatar"`
	UserInfo      *wireUserInfo `json:"userInfo"`
	Dateline      flexInt       `json:"dateline"`
	Message       string        `json:"message"`
	MessageTitle  string        `json:"message_title"`
	Title         string        `json:"title"`
	RawOutput     string        `json:"message_raw_output"`
	Cover         string        `json:"message_cover"`
	PicArr        []string      `json:"picArr"`
	Pic           string        `json:"pic"`
	LikeNum       flexInt       `json:"likenum"`
	ReplyNum      flexInt       `json:"replynum"`
	ShareNum      flexInt       `json:"share_num"`
	ForwardNum    flexInt       `json:"forwardnum"`
	DeviceTitle   string        `json:"device_title"`
	TTitle        string        `json:"ttitle"`
	IsFeedAuthor  flexInt       `json:"isFeedAuthor"`
	RUsername     string        `json:"rusername"`
	ReplyRows     []wireItem    `json:"replyRows"`
	ReplyRowsMore flexInt       `json:"replyRowsMore"`
}

func (w wireItem) images() []string {
	var out []string
	for _, p := range w.PicArr {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 && w.Pic != "" {
		out = []string{w.Pic}
	}
	return out
}

func (w wireItem) item() types.ContentItem {
	shares := int(w.ShareNum)
	if shares == 0 {
		shares = int(w.ForwardNum)
	}
	it := types.ContentItem{
		ID:           string(w.ID),
		Author:       w.Username,
		AvatarURL:    w.UserAvatar,
		Dateline:     int64(w.Dateline),
		Title:        w.MessageTitle,
		Body:         w.Message,
		Images:       w.images(),
		Likes:        int(w.LikeNum),
		Replies:      int(w.ReplyNum),
		Shares:       shares,
		Device:       w.DeviceTitle,
		Topic:        w.TTitle,
		Verified:     w.UserInfo != nil && w.UserInfo.VerifyStatus > 0,
		IsFeedAuthor: w.IsFeedAuthor == 1,
		ReplyTo:      w.RUsername,
	}
	if len(w.ReplyRows) > 0 {
		it.Children = make([]types.ContentItem, 0, len(w.ReplyRows))
		for _, r := range w.ReplyRows {
			it.Children = append(it.Children, r.item())
		}
	}
	if more := int(w.ReplyRowsMore); more > 0 {
		it.MoreChildren = more
	}
	return it
}

func (w wireItem) feed() *types.Feed {
	f := &types.Feed{
		ContentItem: w.item(),
		FeedType:    w.FeedType,
		Cover:       w.Cover,
	}
	f.Title = util.FirstNonEmpty(f.Title, w.Title)
	if w.FeedType == "feedArticle" && w.RawOutput != "" {
		var blocks []types.Block
		if err := json.Unmarshal([]byte(w.RawOutput), &blocks); err == nil {
			f.Blocks = blocks
		}
	}
	return f
}

// listing converts a feed list, keeping only feed entities. Upstream mixes
// ad cards and topic cards into the same array.
func listing(ws []wireItem) []types.ContentItem {
	out := make([]types.ContentItem, 0, len(ws))
	for _, w := range ws {
		if w.EntityType != "" && w.EntityType != "feed" {
			continue
		}
		out = append(out, w.item())
	}
	return out
}

func replies(ws []wireItem) []types.ContentItem {
	out := make([]types.ContentItem, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.item())
	}
	return out
}
