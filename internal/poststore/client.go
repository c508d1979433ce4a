package poststore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jeremyjsx/journal/internal/apierror"
	"github.com/jeremyjsx/journal/internal/posts"
)

var _ Store = (*Client)(nil)

const adminPostsPath = "/api/admin/posts"

// Client talks to the admin post endpoints of the journal API. token is
// called per request; an empty token sends no Authorization header.
type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
}

func NewClient(baseURL string, httpClient *http.Client, token func() string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
		token:   token,
	}
}

func (c *Client) ListPosts(ctx context.Context, publishedOnly bool) ([]posts.Post, error) {
	path := adminPostsPath
	if publishedOnly {
		path += "?published=true"
	}
	var list []posts.Post
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", posts.ErrReadDegraded, err)
	}
	if list == nil {
		list = []posts.Post{}
	}
	return list, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (posts.Post, error) {
	var p posts.Post
	if err := c.do(ctx, http.MethodGet, postPath(id), nil, &p); err != nil {
		return posts.Post{}, c.classify("get post", err, false)
	}
	return p, nil
}

func (c *Client) CreatePost(ctx context.Context, f posts.Fields) (posts.Post, error) {
	var p posts.Post
	if err := c.do(ctx, http.MethodPost, adminPostsPath, f, &p); err != nil {
		return posts.Post{}, c.classify("create post", err, true)
	}
	return p, nil
}

func (c *Client) UpdatePost(ctx context.Context, id string, patch posts.Patch) (posts.Post, error) {
	var p posts.Post
	if err := c.do(ctx, http.MethodPut, postPath(id), patch, &p); err != nil {
		return posts.Post{}, c.classify("update post", err, true)
	}
	return p, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, postPath(id), nil, nil); err != nil {
		return c.classify("delete post", err, true)
	}
	return nil
}

func postPath(id string) string {
	return adminPostsPath + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if t := c.token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierror.Read(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classify maps API errors back onto the post sentinels. Unclassified write
// failures, including transport errors, become ErrPersistence.
func (c *Client) classify(op string, err error, write bool) error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, posts.ErrNotFound)
		case apiErr.Code == apierror.CodeValidation:
			return fmt.Errorf("%s: %w", op, posts.NewValidationError(apiErr.Details))
		case apiErr.Status == http.StatusUnauthorized, apiErr.Status == http.StatusForbidden:
			return fmt.Errorf("%s: %w: %s", op, ErrUnauthorized, apiErr.Message)
		}
	}
	if write {
		return fmt.Errorf("%s: %w: %v", op, posts.ErrPersistence, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
