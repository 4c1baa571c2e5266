// Package tosspay is a thin client for the Toss Payments billing API. Every
// call is attempted exactly once; classification of failures is left to the
// caller via GatewayError.
package tosspay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.tosspayments.com"

// ErrSecretKeyMissing is a configuration error raised before any network
// call when the server-held gateway secret is absent.
var ErrSecretKeyMissing = errors.New("TOSS_SECRET_KEY is not configured")

// GatewayError carries the gateway's non-success response. The charge path
// forwards Status and Body verbatim to the caller; other flows log them
// server-side only.
type GatewayError struct {
	Status  int
	Code    string
	Message string
	Body    []byte
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
}

type Client struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a gateway client from environment configuration.
func NewClientFromEnv() *Client {
	return &Client{
		SecretKey:  strings.TrimSpace(env.GetEnv("TOSS_SECRET_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("TOSS_API_BASE_URL", defaultAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// authorization builds the Basic credential the gateway expects: the secret
// key with an empty password component.
func (c *Client) authorization() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.SecretKey+":"))
}

// IssueBillingKey exchanges the one-time authKey from the checkout redirect
// for a recurring-charge billing key.
func (c *Client) IssueBillingKey(ctx context.Context, authKey, customerKey string) (*BillingAuth, error) {
	if c.SecretKey == "" {
		return nil, ErrSecretKeyMissing
	}
	if strings.TrimSpace(authKey) == "" || strings.TrimSpace(customerKey) == "" {
		return nil, errors.New("authKey and customerKey are required")
	}

	body, err := c.post(ctx, "/v1/billing/authorizations/issue", map[string]string{
		"authKey":     strings.TrimSpace(authKey),
		"customerKey": strings.TrimSpace(customerKey),
	})
	if err != nil {
		return nil, err
	}

	var out BillingAuth
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.BillingKey) == "" {
		return nil, errors.New("billing authorization returned empty billingKey")
	}
	return &out, nil
}

// Charge performs a one-shot authorization against a stored billing key.
// Non-success responses come back as *GatewayError with the raw body so the
// caller can surface gateway error codes (e.g. REJECT_CARD_COMPANY) verbatim.
func (c *Client) Charge(ctx context.Context, billingKey string, req ChargeRequest) (*Payment, error) {
	if c.SecretKey == "" {
		return nil, ErrSecretKeyMissing
	}
	if strings.TrimSpace(billingKey) == "" {
		return nil, errors.New("billingKey is required")
	}

	body, err := c.post(ctx, "/v1/billing/"+url.PathEscape(billingKey), map[string]interface{}{
		"customerKey": req.CustomerKey,
		"orderId":     req.OrderID,
		"orderName":   req.OrderName,
		"amount":      req.Amount,
	})
	if err != nil {
		return nil, err
	}

	var out Payment
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authorization())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gerr := &GatewayError{Status: resp.StatusCode, Body: body}
		var parsed struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &parsed); err == nil {
			gerr.Code = parsed.Code
			gerr.Message = parsed.Message
		}
		return nil, gerr
	}
	return body, nil
}
