// Package api implements the typed HTTP client for the validation backend.
package api

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

	"github.com/vmihailenco/msgpack/v5"

	"github.com/hookview/dashboard/internal/models"
)

const msgpackMIME = "application/x-msgpack"

// BackendError is the error shape the backend returns on failed requests.
type BackendError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"error"`
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Client talks to the validation backend. All calls take a context and
// return wrapped errors; no call retries.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Logs fetches one page of historical events. The request advertises msgpack
// and falls back to JSON based on the response Content-Type.
func (c *Client) Logs(ctx context.Context, appID, page, limit int) (*models.LogsPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/app/%d/logs?%s", appID, q.Encode()), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", msgpackMIME+", application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching logs page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out models.LogsPage
	if strings.HasPrefix(resp.Header.Get("Content-Type"), msgpackMIME) {
		if err := msgpack.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decoding msgpack logs page: %w", err)
		}
	} else {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decoding logs page: %w", err)
		}
	}
	return &out, nil
}

// Stats fetches the aggregate validation counters.
func (c *Client) Stats(ctx context.Context, appID int) (*models.Stats, error) {
	var out models.Stats
	if err := c.getJSON(ctx, fmt.Sprintf("/app/%d/stats", appID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Coverage fetches the event catalog coverage summary.
func (c *Client) Coverage(ctx context.Context, appID int) (*models.Coverage, error) {
	var out models.Coverage
	if err := c.getJSON(ctx, fmt.Sprintf("/app/%d/coverage", appID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EventNames fetches the expected event catalog.
func (c *Client) EventNames(ctx context.Context, appID int) ([]string, error) {
	var out models.EventNames
	if err := c.getJSON(ctx, fmt.Sprintf("/app/%d/event-names", appID), &out); err != nil {
		return nil, err
	}
	return out.EventNames, nil
}

// DownloadReport posts the chosen result set and returns the CSV bytes the
// backend formatted.
func (c *Client) DownloadReport(ctx context.Context, appID int, results []models.ValidationResult) ([]byte, error) {
	return c.download(ctx, fmt.Sprintf("/app/%d/download-report", appID), results)
}

// DownloadValidEvents posts the full result set; the backend keeps only
// fully-valid events in the returned CSV.
func (c *Client) DownloadValidEvents(ctx context.Context, appID int, results []models.ValidationResult) ([]byte, error) {
	return c.download(ctx, fmt.Sprintf("/app/%d/download-valid-events", appID), results)
}

// DeleteLogs issues the destructive bulk delete.
func (c *Client) DeleteLogs(ctx context.Context, appID int) (*models.DeleteResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/app/%d/delete-logs", appID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deleting logs: %w", err)
	}
	defer resp.Body.Close()

	// The delete endpoint reports failure in-band, so decode the body even on
	// a non-2xx status before falling back to a status error.
	var out models.DeleteResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= 300 {
			return nil, &BackendError{StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("decoding delete response: %w", err)
	}
	return &out, nil
}

func (c *Client) download(ctx context.Context, path string, results []models.ValidationResult) ([]byte, error) {
	body, err := json.Marshal(models.ReportRequest{Results: results})
	if err != nil {
		return nil, fmt.Errorf("encoding report request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading report: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading report body: %w", err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	return req, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	berr := &BackendError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, berr)
	}
	return berr
}
