package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/embedd/internal/embedding"
	"github.com/hyperjump/embedd/internal/models"
)

// Client calls a running embedd server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// Embed posts texts to the batch endpoint. A response with Success false is returned as an
// error carrying the server's message.
func (c *Client) Embed(ctx context.Context, texts []string) (*models.EmbeddingResponse, error) {
	var resp models.EmbeddingResponse
	status, err := c.do(ctx, http.MethodPost, "/api/v1/embeddings", models.EmbeddingRequest{Texts: texts}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RemoteError{Status: status, Kind: resp.Kind, Message: resp.Error}
	}
	return &resp, nil
}

// RemoteError is a failed embeddings call. When the server reported an engine error kind,
// errors.Is matches the corresponding embedding sentinel (embedding.ErrBatchSizeExceeded, ...)
// and embedding.KindOf returns that kind.
type RemoteError struct {
	Status  int
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error {
	k, ok := embedding.ParseKind(e.Kind)
	if !ok {
		return nil
	}
	return &embedding.Error{Kind: k, Msg: e.Message}
}

// Status fetches the engine status.
func (c *Client) Status(ctx context.Context) (*models.EngineStatus, error) {
	var st models.EngineStatus
	if err := c.expectOK(c.do(ctx, http.MethodGet, "/api/v1/status", nil, &st)); err != nil {
		return nil, err
	}
	return &st, nil
}

// Runs fetches the most recent runs.
func (c *Client) Runs(ctx context.Context, limit int) ([]*models.Run, error) {
	var out struct {
		Runs []*models.Run `json:"runs"`
	}
	path := "/api/v1/runs?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	if err := c.expectOK(c.do(ctx, http.MethodGet, path, nil, &out)); err != nil {
		return nil, err
	}
	return out.Runs, nil
}

// RunStats fetches aggregate run stats.
func (c *Client) RunStats(ctx context.Context) (*models.RunStats, error) {
	var stats models.RunStats
	if err := c.expectOK(c.do(ctx, http.MethodGet, "/api/v1/runs/stats", nil, &stats)); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) expectOK(status int, err error) error {
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("server returned %d", status)
	}
	return nil
}

// do sends body as JSON and decodes the reply into out regardless of status, so error
// bodies in the same shape are still readable. Non-JSON replies are reported with status.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return resp.StatusCode, nil
}
