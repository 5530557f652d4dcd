// Package client is a typed HTTP client for the CodeEcho indexing service.
package client

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

	"github.com/arturoeanton/go-code-similarity-ollama/internal/domain"
)

// Client talks to a CodeEcho server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// IndexElement submits a single element and returns its record id.
func (c *Client) IndexElement(ctx context.Context, el domain.ElementData) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/elements", el, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// IndexBatch submits many elements; the returned ids align with the input.
func (c *Client) IndexBatch(ctx context.Context, els []domain.ElementData) ([]string, error) {
	if els == nil {
		els = []domain.ElementData{}
	}
	var resp struct {
		IDs []string `json:"ids"`
	}
	if err := c.do(ctx, http.MethodPost, "/elements/batch", els, &resp); err != nil {
		return nil, err
	}
	return resp.IDs, nil
}

// DeleteAll wipes every indexed record and returns the removed count.
func (c *Client) DeleteAll(ctx context.Context) (int64, error) {
	var resp struct {
		Success      bool  `json:"success"`
		DeletedCount int64 `json:"deletedCount"`
	}
	if err := c.do(ctx, http.MethodDelete, "/elements", nil, &resp); err != nil {
		return 0, err
	}
	return resp.DeletedCount, nil
}

// Search runs a free-text semantic search.
func (c *Client) Search(ctx context.Context, query string, threshold float64, limit int) ([]domain.SearchResult, error) {
	path := "/search?q=" + url.QueryEscape(query) + similarityParams(threshold, limit)
	var resp struct {
		Results []domain.SearchResult `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Similar returns the elements most similar to a stored record.
func (c *Client) Similar(ctx context.Context, id string, threshold float64, limit int) ([]domain.ElementData, error) {
	path := "/similar/" + url.PathEscape(id) + "?" + similarityParams(threshold, limit)[1:]
	var resp struct {
		SimilarElements []domain.ElementData `json:"similarElements"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.SimilarElements, nil
}

// SimilarPairs returns the most similar element pairs across the index.
func (c *Client) SimilarPairs(ctx context.Context, threshold float64, limit int) ([]domain.SimilarPair, error) {
	path := "/similar/all?" + similarityParams(threshold, limit)[1:]
	var resp struct {
		Pairs []domain.SimilarPair `json:"pairs"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("unexpected health status: %q", resp.Status)
	}
	return nil
}

func similarityParams(threshold float64, limit int) string {
	return "&threshold=" + strconv.FormatFloat(threshold, 'f', -1, 64) + "&limit=" + strconv.Itoa(limit)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var serverErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &serverErr) == nil && serverErr.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, serverErr.Error)
		}
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
