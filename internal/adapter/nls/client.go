// Package nls is the HTTP client for the loan-servicing system.
package nls

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

	"go.uber.org/zap"

	"lendcore/internal/config"
)

const revokeTimeout = 10 * time.Second

// APIError is a non-2xx reply from the servicing system.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("nls: http %d: %s", e.Status, e.Message)
}

// ErrUnexpectedShape marks a 2xx reply whose body could not be normalized.
var ErrUnexpectedShape = errors.New("nls: unexpected response shape")

type Client struct {
	baseURL string
	creds   config.NLS
	http    *http.Client
	log     *zap.Logger
}

func New(cfg config.NLS, log *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		creds:   cfg,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) acquireToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"password"},
		"username":      {c.creds.Username},
		"password":      {c.creds.Password},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
		"scope":         {"openid api"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", &APIError{Status: res.StatusCode, Message: strings.TrimSpace(string(b))}
	}
	var tr tokenResp
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil || tr.AccessToken == "" {
		return "", ErrUnexpectedShape
	}
	return tr.AccessToken, nil
}

func (c *Client) revokeToken(ctx context.Context, token string) error {
	form := url.Values{"token": {token}, "client_id": {c.creds.ClientID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/revoke", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.StatusCode/100 != 2 {
		return &APIError{Status: res.StatusCode, Message: "token revoke failed"}
	}
	return nil
}

// withToken scopes one credential to fn and revokes it on every exit path, panics included.
func (c *Client) withToken(ctx context.Context, fn func(token string) error) error {
	token, err := c.acquireToken(ctx)
	if err != nil {
		return fmt.Errorf("nls: acquire token: %w", err)
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revokeTimeout)
		defer cancel()
		if rerr := c.revokeToken(rctx, token); rerr != nil {
			c.log.Warn("nls token revoke failed", zap.Error(rerr))
		}
	}()
	return fn(token)
}

// envelope is the servicing system's reply wrapper.
type envelope struct {
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	Payload json.RawMessage `json:"payload"`
}

func (c *Client) do(ctx context.Context, token, method, path string, in, out any) error {
	return c.call(ctx, token, method, path, in, out, false)
}

// call is do with nullOK allowing a null or missing payload, which leaves out untouched.
func (c *Client) call(ctx context.Context, token, method, path string, in, out any, nullOK bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return err
	}
	var env envelope
	if res.StatusCode/100 != 2 {
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &env) == nil && env.Status.Message != "" {
			msg = env.Status.Message
		}
		return &APIError{Status: res.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnexpectedShape, method, path, err)
	}
	if out == nil {
		return nil
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		if nullOK {
			return nil
		}
		return fmt.Errorf("%w: %s %s: empty payload", ErrUnexpectedShape, method, path)
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnexpectedShape, method, path, err)
	}
	return nil
}
