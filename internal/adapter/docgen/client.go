// Package docgen submits statement templates to the document-generation service and waits for the rendered PDF.
package docgen

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
	"lendcore/internal/domain/document"
)

var (
	ErrSubmissionFailed = errors.New("docgen: submission failed")
	ErrAwaitTimeout     = errors.New("docgen: submission not processed in time")
)

var _ document.Generator = (*Client)(nil)

type Client struct {
	baseURL string
	id      string
	secret  string
	http    *http.Client

	pollInitial time.Duration
	pollMax     time.Duration
	pollTimeout time.Duration

	log *zap.Logger
}

func New(cfg config.DocGen, log *zap.Logger) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		id:          cfg.TokenID,
		secret:      cfg.TokenSecret,
		http:        &http.Client{Timeout: 30 * time.Second},
		pollInitial: time.Duration(cfg.PollInitialMS) * time.Millisecond,
		pollMax:     time.Duration(cfg.PollMaxMS) * time.Millisecond,
		pollTimeout: time.Duration(cfg.PollTimeoutSeconds) * time.Second,
		log:         log,
	}
	if c.pollInitial <= 0 {
		c.pollInitial = time.Second
	}
	if c.pollMax < c.pollInitial {
		c.pollMax = c.pollInitial
	}
	if c.pollTimeout <= 0 {
		c.pollTimeout = time.Minute
	}
	return c
}

type submissionBody struct {
	ID          string  `json:"id"`
	State       string  `json:"state"`
	DownloadURL *string `json:"download_url"`
}

func (b submissionBody) toDomain() *document.Submission {
	s := &document.Submission{ID: b.ID, State: document.SubmissionState(b.State)}
	if b.DownloadURL != nil {
		s.DownloadURL = *b.DownloadURL
	}
	return s
}

type submitReq struct {
	Data map[string]any `json:"data"`
}

type submitResp struct {
	Status     string         `json:"status"`
	Errors     []string       `json:"errors"`
	Submission submissionBody `json:"submission"`
}

func (c *Client) Submit(ctx context.Context, templateID string, fields document.Fields) (*document.Submission, error) {
	var out submitResp
	path := "/templates/" + url.PathEscape(templateID) + "/submissions"
	if err := c.do(ctx, http.MethodPost, path, submitReq{Data: fields.Map()}, &out); err != nil {
		return nil, err
	}
	if out.Status == "error" || out.Submission.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionFailed, strings.Join(out.Errors, "; "))
	}
	c.log.Debug("docgen submission created", zap.String("template_id", templateID), zap.String("submission_id", out.Submission.ID))
	return out.Submission.toDomain(), nil
}

func (c *Client) Fetch(ctx context.Context, submissionID string) (*document.Submission, error) {
	var out submissionBody
	if err := c.do(ctx, http.MethodGet, "/submissions/"+url.PathEscape(submissionID), nil, &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

// Await polls with exponential backoff capped at pollMax until the hard timeout elapses.
func (c *Client) Await(ctx context.Context, submissionID string) (*document.Submission, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	wait := c.pollInitial
	for attempt := 1; ; attempt++ {
		sub, err := c.Fetch(ctx, submissionID)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, fmt.Errorf("%w: %s after %d polls", ErrAwaitTimeout, submissionID, attempt)
		case err != nil:
			return nil, err
		case sub.State == document.StateError:
			return nil, fmt.Errorf("%w: %s in error state", ErrSubmissionFailed, submissionID)
		case sub.DownloadURL != "":
			return sub, nil
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("%w: %s after %d polls", ErrAwaitTimeout, submissionID, attempt)
		case <-t.C:
		}
		wait *= 2
		if wait > c.pollMax {
			wait = c.pollMax
		}
	}
}

// APIError is a non-2xx reply from the document service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("docgen: http %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
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
	req.SetBasicAuth(c.id, c.secret)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode/100 != 2 {
		return &APIError{Status: res.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	return json.Unmarshal(raw, out)
}
