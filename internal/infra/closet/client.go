// Package closet is the JSON client for the remote bookmark ("closet") and
// authentication backend. It implements the bookmarks.Client contract, the
// session.Validator contract, and the studio.Authenticator contract.
//
// Error discipline matters here: only an explicit 401/403 from the validate
// endpoint maps to session.ErrUnauthorized. Transport failures and server
// errors are returned as ordinary errors so the session store treats them as
// advisory, never as invalidation.
package closet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/averios/go-style-studio/internal/domain"
	"github.com/averios/go-style-studio/internal/session"
)

// Client talks to the closet backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client for the given base URL and request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// bookmarkDTO is the wire form of a saved product.
type bookmarkDTO struct {
	ProductID string    `json:"product_id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Fetch returns the server's current bookmark list.
func (c *Client) Fetch(ctx context.Context, token string) ([]domain.BookmarkItem, error) {
	var dtos []bookmarkDTO
	if err := c.do(ctx, http.MethodGet, "/v1/closet", token, nil, &dtos); err != nil {
		return nil, err
	}
	items := make([]domain.BookmarkItem, 0, len(dtos))
	for _, d := range dtos {
		items = append(items, domain.BookmarkItem{
			ProductID: d.ProductID,
			Title:     d.Title,
			ImageURL:  d.ImageURL,
			SavedAt:   d.CreatedAt,
		})
	}
	return items, nil
}

// Add saves one product remotely.
func (c *Client) Add(ctx context.Context, token, productID string) error {
	body := map[string]string{"product_id": productID}
	return c.do(ctx, http.MethodPost, "/v1/closet", token, body, nil)
}

// Remove deletes the given products remotely as one operation. The backend
// applies the delete atomically; a non-2xx response means nothing was
// removed.
func (c *Client) Remove(ctx context.Context, token string, productIDs []string) error {
	body := map[string][]string{"product_ids": productIDs}
	return c.do(ctx, http.MethodDelete, "/v1/closet", token, body, nil)
}

// Validate checks the token against the backend. An explicit 401/403 maps to
// session.ErrUnauthorized; anything else is an ordinary (advisory) error.
func (c *Client) Validate(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/auth/validate", token, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("validate session: %w", err)
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return session.ErrUnauthorized
	case resp.StatusCode >= 400:
		return fmt.Errorf("validate session: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Logout invalidates the token remotely.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/logout", token, nil, nil)
}

// do performs one JSON round trip. A nil out skips decoding.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

// drain consumes and closes a response body so the connection can be reused.
func drain(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 1<<16))
	_ = rc.Close()
}
