package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jeremyjsx/journal/internal/apierror"
)

var _ Provider = (*Client)(nil)

// Client is a Provider backed by the /api/auth endpoints of a journal API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: httpClient}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (User, error) {
	var u User
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", credentials{email, password}, &u)
	return u, c.classify(err, ErrInvalidCredentials)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (Token, error) {
	var t Token
	err := c.do(ctx, http.MethodPost, "/api/auth/signin", "", credentials{email, password}, &t)
	return t, c.classify(err, ErrInvalidCredentials)
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/signout", token, nil, nil)
	return c.classify(err, ErrInvalidToken)
}

func (c *Client) Authenticate(ctx context.Context, token string) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &u)
	return u, c.classify(err, ErrInvalidToken)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
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

// classify maps API errors onto the auth sentinels. unauthorized is what a
// 401 means for the calling operation.
func (c *Client) classify(err error, unauthorized error) error {
	if err == nil {
		return nil
	}
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusUnauthorized:
		return unauthorized
	case http.StatusConflict:
		return ErrEmailTaken
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidInput, apiErr.Message)
	}
	return apiErr
}
