package client

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
	"sync"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/client/models"
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/gorilla/websocket"
)

// TokenStore persists the token pair between CLI runs. Load returns an
// empty pair when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (models.TokenPair, error)
	Save(ctx context.Context, pair models.TokenPair) error
	Clear(ctx context.Context) error
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRefreshHook registers fn to run after every successful token refresh.
func WithRefreshHook(fn func(ctx context.Context, pair models.TokenPair)) Option {
	return func(c *Client) { c.onRefresh = fn }
}

// Client talks to the portal's /v1 API. An access token that the server
// reports as expired is refreshed once with the stored refresh token and the
// request is replayed. Safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	tokens    TokenStore
	log       logging.Logger
	dialer    *websocket.Dialer
	onRefresh func(ctx context.Context, pair models.TokenPair)

	refreshMu sync.Mutex
}

func New(baseURL string, tokens TokenStore, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 30 * time.Second},
		tokens: tokens,
		log:    logging.Nop(),
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) endpoint(query url.Values, parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	u := *c.base
	u.Path = c.base.Path + "/v1/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

type request struct {
	method      string
	url         string
	body        []byte
	contentType string
	authed      bool
}

func jsonRequest(method, url string, in any, authed bool) (request, error) {
	r := request{method: method, url: url, authed: authed}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return r, err
		}
		r.body, r.contentType = b, "application/json"
	}
	return r, nil
}

// do sends r and decodes the response into out (may be nil). Authenticated
// requests are replayed once after a refresh when the access token expired.
func (c *Client) do(ctx context.Context, r request, out any) error {
	var access string
	if r.authed {
		pair, err := c.tokens.Load(ctx)
		if err != nil {
			return err
		}
		if pair.Empty() {
			return ErrNotSignedIn
		}
		access = pair.AccessToken
	}

	err := c.send(ctx, r, access, out)
	if !r.authed || !errors.Is(err, common.ErrTokenExpired) {
		return err
	}

	access, err = c.refresh(ctx, access)
	if err != nil {
		return err
	}
	return c.send(ctx, r, access, out)
}

func (c *Client) send(ctx context.Context, r request, access string, out any) error {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Code, apiErr.Message = body.Code, body.Error
	}
	return apiErr
}

// refresh rotates the token pair unless another caller already replaced
// the access token that failed. It returns the access token to retry with.
func (c *Client) refresh(ctx context.Context, failed string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	pair, err := c.tokens.Load(ctx)
	if err != nil {
		return "", err
	}
	if pair.AccessToken != "" && pair.AccessToken != failed {
		return pair.AccessToken, nil
	}
	if pair.RefreshToken == "" {
		return "", common.ErrTokenExpired
	}

	r, err := jsonRequest(http.MethodPost, c.endpoint(nil, "auth", "refresh"),
		map[string]string{"refresh_token": pair.RefreshToken}, false)
	if err != nil {
		return "", err
	}
	var next models.TokenPair
	if err := c.send(ctx, r, "", &next); err != nil {
		if IsAuthError(err) {
			c.log.Info(ctx, "refresh token rejected, clearing credentials", "error", err)
			if cerr := c.tokens.Clear(ctx); cerr != nil {
				return "", errors.Join(err, cerr)
			}
		}
		return "", err
	}
	if err := c.tokens.Save(ctx, next); err != nil {
		return "", err
	}
	c.log.Debug(ctx, "access token refreshed", "expires_at", next.ExpiresAt)
	if c.onRefresh != nil {
		c.onRefresh(ctx, next)
	}
	return next.AccessToken, nil
}
