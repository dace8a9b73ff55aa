package sessiongate

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
	"time"

	"github.com/eventix/ticketing/internal/core/domain"
)

var (
	// ErrSessionRejected is returned when the API does not accept the token.
	ErrSessionRejected = errors.New("session rejected")
	// ErrLoginFailed is returned when the API refuses the credentials.
	ErrLoginFailed = errors.New("login failed")
	// ErrRequestRejected is returned when the API refuses a verify or reset
	// request. The API's error text is appended when it sent one.
	ErrRequestRejected = errors.New("request rejected")
)

// Session is the identity the API reports for a token.
type Session struct {
	Type      domain.AccountType
	AccountID int64
}

// SessionChecker asks the authoritative side whether a token is still good.
type SessionChecker interface {
	CheckSession(ctx context.Context, token string) (*Session, error)
}

// APIClient checks sessions against GET /auth/session.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type sessionPayload struct {
	Type    domain.AccountType `json:"type"`
	Account struct {
		ID int64 `json:"id"`
	} `json:"account"`
}

func (c *APIClient) CheckSession(ctx context.Context, token string) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/session", nil)
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrSessionRejected, resp.StatusCode)
	}

	var p sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !p.Type.Valid() || p.Account.ID <= 0 {
		return nil, fmt.Errorf("%w: incomplete payload", ErrSessionRejected)
	}
	return &Session{Type: p.Type, AccountID: p.Account.ID}, nil
}

type loginPayload struct {
	Data     string `json:"data"`
	Password string `json:"password"`
}

// Login posts credentials to the login endpoint of the account type and
// returns the session token the API set as a cookie.
func (c *APIClient) Login(ctx context.Context, t domain.AccountType, identifier, password string) (string, error) {
	path := "/auth/login"
	if t == domain.AccountPromotor {
		path = "/auth/promotor/login"
	}

	body, err := json.Marshal(loginPayload{Data: identifier, Password: password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	for _, ck := range resp.Cookies() {
		if ck.Name == CookieName && ck.Value != "" {
			return ck.Value, nil
		}
	}
	return "", fmt.Errorf("%w: no session cookie in response", ErrLoginFailed)
}

// Verify redeems an emailed verification token for the account type.
func (c *APIClient) Verify(ctx context.Context, t domain.AccountType, token string) error {
	path := "/auth/verify/"
	if t == domain.AccountPromotor {
		path = "/auth/promotor/verify/"
	}
	return c.patch(ctx, path+url.PathEscape(token), nil)
}

type resetPayload struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPassword redeems an emailed reset token with the new password.
func (c *APIClient) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	return c.patch(ctx, "/auth/password/reset/"+url.PathEscape(token),
		resetPayload{Password: password, ConfirmPassword: confirmPassword})
}

func (c *APIClient) patch(ctx context.Context, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("patch %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("%w: %s", ErrRequestRejected, apiErr.Error)
	}
	return fmt.Errorf("%w: status %d", ErrRequestRejected, resp.StatusCode)
}
