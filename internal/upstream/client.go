// Package upstream fetches posts, listings and hot replies from the internal
// feed API.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feedmirror/internal/types"
)

var (
	ErrNotFound = errors.New("upstream: not found")
	ErrStatus   = errors.New("upstream: unexpected status")
)

// AuthHeader carries the shared internal token.
const AuthHeader = "X-Internal-Auth"

const maxBody = 4 << 20

// Source is the upstream collaborator. Listing methods return an empty slice
// with a nil error when the upstream simply has nothing.
type Source interface {
	Feed(ctx context.Context, id string) (*types.Feed, error)
	HotReplies(ctx context.Context, id string) ([]types.ContentItem, error)
	Headlines(ctx context.Context, page int) ([]types.ContentItem, error)
	Tag(ctx context.Context, tag string, page int) ([]types.ContentItem, error)
}

// FetchHook observes each upstream call.
type FetchHook func(endpoint string, elapsed time.Duration, err error)

// Client talks JSON over HTTP to the feed API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	OnFetch FetchHook
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.OnFetch != nil {
			c.OnFetch(endpoint, time.Since(start), err)
		}
	}()

	u := c.BaseURL + "/api/" + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set(AuthHeader, c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return fmt.Errorf("%w: %s returned %d", ErrStatus, endpoint, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&env); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", endpoint, err)
	}
	return nil
}

func (c *Client) Feed(ctx context.Context, id string) (*types.Feed, error) {
	var w wireItem
	if err := c.get(ctx, "feed", url.Values{"id": {id}}, &w); err != nil {
		return nil, err
	}
	f := w.feed()
	if f.ID == "" {
		f.ID = id
	}
	return f, nil
}

func (c *Client) HotReplies(ctx context.Context, id string) ([]types.ContentItem, error) {
	var ws []wireItem
	if err := c.get(ctx, "hot_reply", url.Values{"id": {id}}, &ws); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []types.ContentItem{}, nil
		}
		return nil, err
	}
	return replies(ws), nil
}

func (c *Client) Headlines(ctx context.Context, page int) ([]types.ContentItem, error) {
	return c.list(ctx, "headlines", url.Values{"page": {strconv.Itoa(page)}})
}

func (c *Client) Tag(ctx context.Context, tag string, page int) ([]types.ContentItem, error) {
	return c.list(ctx, "tag", url.Values{"tag": {tag}, "page": {strconv.Itoa(page)}})
}

func (c *Client) list(ctx context.Context, endpoint string, q url.Values) ([]types.ContentItem, error) {
	var ws []wireItem
	if err := c.get(ctx, endpoint, q, &ws); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []types.ContentItem{}, nil
		}
		return nil, err
	}
	return listing(ws), nil
}
