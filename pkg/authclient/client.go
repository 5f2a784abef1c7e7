// Package authclient is a Go client for the marketplace /auth API. Client
// maps the endpoints one to one; Session keeps the signed-in state a
// front end needs.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// User is the account as returned by the API.
type User struct {
	ID            string    `json:"id"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	ExternalID    string    `json:"externalId,omitempty"`
	AuthMethod    string    `json:"authMethod"`
	AccountType   string    `json:"accountType,omitempty"`
	AccountStatus string    `json:"accountStatus"`
	ListingLimit  int       `json:"listingLimit"`
	ListingCount  int       `json:"listingCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	User      *User  `json:"user"`
}

type SignUpRequest struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	AccountType string `json:"accountType,omitempty"`
}

type CallbackRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	ExternalID string `json:"externalId"`
}

// UpdateUserRequest sends only the non-nil fields.
type UpdateUserRequest struct {
	FullName    *string `json:"fullName,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	AccountType *string `json:"accountType,omitempty"`
}

type UpdateUserResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int64  `json:"expiresIn,omitempty"`
}

// APIError is a non-2xx answer decoded from the error envelope.
type APIError struct {
	Status  int
	Message string `json:"error"`
	Code    string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("authclient: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("authclient: %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 10s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/signin", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Callback exchanges a provider profile for a marketplace session.
func (c *Client) Callback(ctx context.Context, req CallbackRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/callback", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) UpdateUser(ctx context.Context, token string, req UpdateUserRequest) (*UpdateUserResponse, error) {
	var out UpdateUserResponse
	if err := c.do(ctx, http.MethodPut, "/auth/update-user", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/signout", token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("authclient: encode %s: %w", path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("authclient: build %s: %w", path, err)
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
		return fmt.Errorf("authclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("authclient: decode %s: %w", path, err)
	}
	return nil
}
