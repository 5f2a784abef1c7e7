package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/homestead/marketplace-api/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// ErrIdentityNotFound is returned when the provider has no such user.
var ErrIdentityNotFound = errors.New("identity not found")

// Client talks to the identity provider's backend API with a secret key.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		http:      &http.Client{Timeout: defaultTimeout},
	}
}

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type providerUser struct {
	ID                    string         `json:"id"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []emailAddress `json:"email_addresses"`
}

func (u *providerUser) primaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

// GetIdentity fetches the provider user and its primary email.
func (c *Client) GetIdentity(ctx context.Context, externalID string) (*ports.ExternalIdentity, error) {
	resp, err := c.do(ctx, http.MethodGet, externalID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var u providerUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("identity: decode user: %w", err)
	}
	return &ports.ExternalIdentity{ExternalID: u.ID, Email: u.primaryEmail()}, nil
}

// RevokeIdentity deletes the provider user. A missing user counts as revoked.
func (c *Client) RevokeIdentity(ctx context.Context, externalID string) error {
	resp, err := c.do(ctx, http.MethodDelete, externalID)
	if errors.Is(err, ErrIdentityNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) do(ctx context.Context, method, externalID string) (*http.Response, error) {
	if externalID == "" {
		return nil, ErrIdentityNotFound
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/users/"+url.PathEscape(externalID), nil)
	if err != nil {
		return nil, fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: %s user: %w", strings.ToLower(method), err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrIdentityNotFound
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("identity: %s user: status %d: %s", strings.ToLower(method), resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}
