// Package tmdb is a thin client for The Movie Database API. It attaches the
// server-held API key to every call and hands back the raw response, so the
// proxy can relay bodies without decoding them.
package tmdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prince-mali2/Filmpire-backend/internal/apperror"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// maxBodyBytes caps how much of an upstream response we buffer.
	maxBodyBytes = 10 << 20
)

// Recorder observes each upstream call. status is 0 on transport failure.
type Recorder interface {
	RecordUpstream(status int, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordUpstream(int, time.Duration) {}

// Response is an upstream reply, relayed as-is.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	recorder   Recorder
	baseURL    string
	apiKey     string
}

// NewClient creates a Client. baseURL defaults to DefaultBaseURL and
// recorder may be nil.
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, apiKey string, recorder Recorder) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Get calls GET {baseURL}{path}?{params}&api_key=...
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, params url.Values, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("tmdb: encoding request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, params, payload)
}

// do issues exactly one request. Any upstream status is a successful call
// from the client's point of view; only transport failures return an error,
// wrapped as apperror.ErrUpstream.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload []byte) (*Response, error) {
	reqURL, err := c.buildURL(path, params)
	if err != nil {
		return nil, fmt.Errorf("tmdb: building URL: %w", err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("tmdb: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.RecordUpstream(0, time.Since(start))
		err = stripURL(method, path, err)
		c.logger.Error("metadata API call failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, apperror.UpstreamFailure("calling metadata API", err)
	}
	defer resp.Body.Close()

	// Read one byte past the cap so an oversized body is detected rather
	// than relayed truncated.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	c.recorder.RecordUpstream(resp.StatusCode, time.Since(start))
	if err == nil && len(data) > maxBodyBytes {
		err = fmt.Errorf("response body exceeds %d bytes", maxBodyBytes)
	}
	if err != nil {
		err = stripURL(method, path, err)
		c.logger.Error("reading metadata API response failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, apperror.UpstreamFailure("reading metadata API response", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("metadata API returned an error status",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        data,
	}, nil
}

// stripURL replaces the *url.Error wrapper, whose message carries the full
// request URL including api_key, with one naming only method and path.
func stripURL(method, path string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s %s: %w", method, path, urlErr.Err)
	}
	return err
}

// buildURL joins path onto the base URL and adds params plus api_key.
// Callers escape dynamic path segments with url.PathEscape.
func (c *Client) buildURL(path string, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			if v != "" {
				q.Add(k, v)
			}
		}
	}
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
