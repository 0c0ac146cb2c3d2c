// ABOUTME: REST client for the Quaddle HTTP API.
// ABOUTME: Handles auth token lifecycle and JSON request/response plumbing.

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/quaddle/quaddle-go/internal/model"
)

var (
	// ErrInvalidEndpoint reports an endpoint that cannot accept path
	// segments.
	ErrInvalidEndpoint = errors.New("invalid quaddle endpoint")

	// ErrAuthRequired reports a call that needs a login token when none
	// is set.
	ErrAuthRequired = errors.New("authorization needed")
)

// APIError is a non-2xx API response.
type APIError struct {
	Status int
	Reason string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s (http status %d)", e.Reason, e.Status)
}

// Client talks to the Quaddle request/response HTTP API. It is safe for
// concurrent use; only the auth token is mutable.
type Client struct {
	base      *url.URL
	userAgent string
	hc        *http.Client

	mu    sync.RWMutex
	token string
}

// New constructs a REST client for the Quaddle instance at endpoint.
func New(endpoint, userAgent string) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Opaque != "" || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}

	return &Client{
		base:      u,
		userAgent: userAgent,
		hc:        &http.Client{},
	}, nil
}

// Token returns the login token, or "" when logged out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken installs a token obtained elsewhere (config, env).
func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = tok
}

// Logout forgets the login token.
func (c *Client) Logout() {
	c.SetToken("")
}

// do fires one API request and decodes the JSON response into dst (which
// may be nil when the body does not matter).
func (c *Client) do(ctx context.Context, method string, path []string, query url.Values, body any, needsLogin bool, dst any) error {
	target := c.base.JoinPath(path...)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if needsLogin {
		tok := c.Token()
		if tok == "" {
			return ErrAuthRequired
		}
		req.Header.Set("Authorization", tok)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Reason string `json:"reason"`
		}
		reason := http.StatusText(resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Reason != "" {
			reason = envelope.Reason
		}
		return &APIError{Status: resp.StatusCode, Reason: reason}
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, target.Path, err)
	}
	return nil
}

// Signup creates an account and returns the resulting user.
func (c *Client) Signup(ctx context.Context, name, password string) (model.User, error) {
	req := struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}{name, password}

	var resp struct {
		NewUser model.User `json:"new_user"`
	}
	if err := c.do(ctx, http.MethodPost, []string{"auth", "signup"}, nil, req, false, &resp); err != nil {
		return model.User{}, err
	}
	return resp.NewUser, nil
}

// Login authenticates and stores the resulting token on the client.
func (c *Client) Login(ctx context.Context, name, password string) error {
	req := struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}{name, password}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, []string{"auth", "login"}, nil, req, false, &resp); err != nil {
		return err
	}
	c.SetToken(resp.Token)
	return nil
}

// FetchMessage fetches a single message.
func (c *Client) FetchMessage(ctx context.Context, channel model.ChannelID, id model.MessageID) (model.Message, error) {
	var msg model.Message
	err := c.do(ctx, http.MethodGet,
		[]string{"channels", channel.String(), "messages", id.String()},
		nil, nil, false, &msg)
	return msg, err
}

// CreateMessage posts a message to a channel.
func (c *Client) CreateMessage(ctx context.Context, channel model.ChannelID, content string) (model.Message, error) {
	req := struct {
		Content string `json:"content"`
	}{content}

	var msg model.Message
	err := c.do(ctx, http.MethodPost,
		[]string{"channels", channel.String(), "messages"},
		nil, req, true, &msg)
	return msg, err
}

// EditMessage replaces the content of an existing message.
func (c *Client) EditMessage(ctx context.Context, channel model.ChannelID, id model.MessageID, content string) (model.Message, error) {
	req := struct {
		Content string `json:"content"`
	}{content}

	var msg model.Message
	err := c.do(ctx, http.MethodPatch,
		[]string{"channels", channel.String(), "messages", id.String()},
		nil, req, true, &msg)
	return msg, err
}

// MessageHistory returns channel messages, newest first. A non-nil before
// restricts the page to messages older than the given ID.
func (c *Client) MessageHistory(ctx context.Context, channel model.ChannelID, before *model.MessageID) ([]model.Message, error) {
	query := url.Values{}
	if before != nil {
		query.Set("before", before.String())
	}

	var msgs []model.Message
	err := c.do(ctx, http.MethodGet,
		[]string{"channels", channel.String(), "messages"},
		query, nil, true, &msgs)
	return msgs, err
}
