// Package api is the HTTP client for the vault server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
)

// Client talks JSON to the vault server. It only ever sends ciphertext.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an API client for baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	KDFSalt   []byte    `json:"kdf_salt"`
}

type itemBody struct {
	Ciphertext model.Ciphertext `json:"ciphertext"`
}

type itemResponse struct {
	ID         string           `json:"id"`
	Ciphertext model.Ciphertext `json:"ciphertext"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Signup registers an account.
func (c *Client) Signup(ctx context.Context, email, password string) (model.AuthResult, error) {
	return c.auth(ctx, "/signup", email, password)
}

// Login authenticates an account.
func (c *Client) Login(ctx context.Context, email, password string) (model.AuthResult, error) {
	return c.auth(ctx, "/login", email, password)
}

func (c *Client) auth(ctx context.Context, path, email, password string) (model.AuthResult, error) {
	var resp authResponse
	if err := c.doRequest(ctx, http.MethodPost, path, "", credentials{Email: email, Password: password}, &resp); err != nil {
		return model.AuthResult{}, err
	}
	return model.AuthResult{Token: resp.Token, ExpiresAt: resp.ExpiresAt, KDFSalt: resp.KDFSalt}, nil
}

// CreateItem uploads a new ciphertext blob and returns its id.
func (c *Client) CreateItem(ctx context.Context, tok string, ct model.Ciphertext) (uuid.UUID, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/vault", tok, itemBody{Ciphertext: ct}, &resp); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.FromString(resp.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad item id in response: %w", err)
	}
	return id, nil
}

// ListItems returns the caller's items.
func (c *Client) ListItems(ctx context.Context, tok string) ([]model.VaultItem, error) {
	var resp struct {
		Items []itemResponse `json:"items"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/vault", tok, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]model.VaultItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		id, err := uuid.FromString(it.ID)
		if err != nil {
			return nil, fmt.Errorf("bad item id in response: %w", err)
		}
		out = append(out, model.VaultItem{
			ID:         id,
			Ciphertext: it.Ciphertext,
			CreatedAt:  it.CreatedAt,
			UpdatedAt:  it.UpdatedAt,
		})
	}
	return out, nil
}

// UpdateItem replaces an item's ciphertext.
func (c *Client) UpdateItem(ctx context.Context, tok string, id uuid.UUID, ct model.Ciphertext) error {
	return c.doRequest(ctx, http.MethodPut, "/vault/"+id.String(), tok, itemBody{Ciphertext: ct}, nil)
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, tok string, id uuid.UUID) error {
	return c.doRequest(ctx, http.MethodDelete, "/vault/"+id.String(), tok, nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path, tok string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &e)
		return statusError(resp.StatusCode, e.Error)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// statusError maps HTTP statuses back onto the shared sentinels.
func statusError(code int, msg string) error {
	var base error
	switch code {
	case http.StatusBadRequest:
		base = errs.ErrValidation
	case http.StatusUnauthorized:
		base = errs.ErrUnauthorized
	case http.StatusNotFound:
		base = errs.ErrNotFound
	case http.StatusConflict:
		base = errs.ErrAlreadyExists
	default:
		if msg == "" {
			msg = http.StatusText(code)
		}
		return fmt.Errorf("server error (%d): %s", code, msg)
	}
	if msg == "" {
		return base
	}
	return fmt.Errorf("%w (%d): %s", base, code, msg)
}
