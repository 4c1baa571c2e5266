// Package proxy forwards authenticated requests to the upstream origin
// service. The secret session identifier travels as the bearer credential on
// the outbound call and never appears in logs or response bodies.
package proxy

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

	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/env"
)

// Kind classifies upstream failures into the client-facing taxonomy.
type Kind string

const (
	KindSessionExpired     Kind = "session_expired"
	KindAccessForbidden    Kind = "access_forbidden"
	KindServiceUnavailable Kind = "service_unavailable"
	KindInternal           Kind = "internal"
)

// Error is a classified upstream failure. Status and Message are the values
// surfaced to the client envelope.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream %s: %s", e.Kind, e.Message)
}

func sessionExpiredErr() *Error {
	return &Error{Kind: KindSessionExpired, Status: http.StatusUnauthorized, Message: "Session expired or invalid"}
}

func accessForbiddenErr() *Error {
	return &Error{Kind: KindAccessForbidden, Status: http.StatusForbidden, Message: "Access forbidden"}
}

func serviceUnavailableErr() *Error {
	return &Error{Kind: KindServiceUnavailable, Status: http.StatusServiceUnavailable, Message: "Authentication service unavailable"}
}

// Classify maps any error from Forward to its client-facing classification.
// Unrecognized errors become internal failures.
func Classify(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: "Internal server error"}
}

// Result is a normalized upstream response.
type Result struct {
	Status      int
	Body        []byte
	ContentType string
}

// Client talks to the upstream origin service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClientFromEnv builds a proxy client from BACKEND_API_URL.
func NewClientFromEnv() *Client {
	return &Client{
		BaseURL: strings.TrimRight(env.GetEnv("BACKEND_API_URL", ""), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Forward performs exactly one upstream call with the session identifier as
// bearer credential. The proxy adds no retry; idempotency follows from the
// HTTP method. 2xx responses are returned as-is, everything else is
// classified: 401 session expired, 403 forbidden, any other status or
// transport failure unavailable.
func (c *Client) Forward(ctx context.Context, method, path, ssid string, body io.Reader) (*Result, error) {
	if c.BaseURL == "" {
		return nil, errors.New("BACKEND_API_URL is not configured")
	}
	if ssid == "" {
		return nil, sessionExpiredErr()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+ssid)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, serviceUnavailableErr()
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return &Result{
			Status:      resp.StatusCode,
			Body:        raw,
			ContentType: resp.Header.Get("Content-Type"),
		}, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, sessionExpiredErr()
	case resp.StatusCode == http.StatusForbidden:
		return nil, accessForbiddenErr()
	default:
		return nil, serviceUnavailableErr()
	}
}

// VerifySession asks the origin service whether the session is still live
// and whether the account is freshly registered.
func (c *Client) VerifySession(ctx context.Context, ssid string) (bool, error) {
	res, err := c.Forward(ctx, http.MethodGet, "/auth/isLogged", ssid, nil)
	if err != nil {
		return false, err
	}

	var payload struct {
		IsNewbie bool `json:"isNewbie"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return false, nil
	}
	return payload.IsNewbie, nil
}

// Profile is the identity handed to the origin service at sign-in.
type Profile struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"providerId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
}

// EstablishSession exchanges an OAuth profile for a fresh upstream session.
// Sign-in is the only place a new ssid enters the process.
func (c *Client) EstablishSession(ctx context.Context, profile Profile) (string, bool, error) {
	if c.BaseURL == "" {
		return "", false, errors.New("BACKEND_API_URL is not configured")
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return "", false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/auth/session", bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", false, serviceUnavailableErr()
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, fmt.Errorf("session exchange failed: status=%d", resp.StatusCode)
	}

	var out struct {
		SSID     string `json:"ssid"`
		IsNewbie bool   `json:"isNewbie"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", false, err
	}
	if strings.TrimSpace(out.SSID) == "" {
		return "", false, errors.New("session exchange returned empty ssid")
	}
	return out.SSID, out.IsNewbie, nil
}
