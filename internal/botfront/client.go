// Package botfront is a minimal client for the Botfront REST API.
package botfront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"botfront-infra/topology"

	"github.com/pkg/errors"
)

const defaultTimeout = 10 * time.Second

// Client talks to one Botfront instance.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// NewClient returns a client for the API at baseURL, authenticating with token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned when Botfront answers with a non-2xx status.
type StatusError struct {
	ProjectID  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("botfront returned %d for project %s: %s", e.StatusCode, e.ProjectID, e.Body)
}

// Temporary reports whether the same request may succeed later.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// UpsertProject creates the project, or updates it when p.ProjectID exists.
func (c *Client) UpsertProject(ctx context.Context, p topology.Project) error {
	body, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encode project")
	}

	endpoint := c.baseURL + "/project/" + url.PathEscape(p.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "build request for project %s", p.ProjectID)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "upsert project %s", p.ProjectID)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{
			ProjectID:  p.ProjectID,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
