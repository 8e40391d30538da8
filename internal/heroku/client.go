package heroku

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
)

const (
	DefaultAPIURL = "https://api.heroku.com"

	acceptHeader   = "application/vnd.heroku+json; version=3"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 * 1024
)

var (
	ErrAppCreationFailed  = errors.New("app creation failed")
	ErrConfigUpdateFailed = errors.New("config update failed")
	ErrBuildTriggerFailed = errors.New("build trigger failed")
	ErrAppDeletionFailed  = errors.New("app deletion failed")
)

// CredentialSelector picks the API key used for a single provider call.
type CredentialSelector interface {
	Select() string
}

type Config struct {
	APIURL  string   `mapstructure:"api_url"`
	APIKeys string `mapstructure:"api_keys"`
}

type Client struct {
	baseURL     string
	credentials CredentialSelector
	httpClient  *http.Client
}

func NewClient(baseURL string, credentials CredentialSelector) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		credentials: credentials,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
}

type createAppRequest struct {
	Name string `json:"name"`
}

type sourceBlob struct {
	URL string `json:"url"`
}

type createBuildRequest struct {
	SourceBlob sourceBlob `json:"source_blob"`
}

// CreateApp creates an empty app with the given name.
func (c *Client) CreateApp(ctx context.Context, name string) error {
	if err := c.do(ctx, http.MethodPost, "/apps", createAppRequest{Name: name}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAppCreationFailed, name, err)
	}
	slog.Info("Heroku app created", "app", name)
	return nil
}

// SetConfig replaces the given config vars on the app. Vars not present in
// the map are left untouched.
func (c *Client) SetConfig(ctx context.Context, name string, vars map[string]string) error {
	if len(vars) == 0 {
		return nil
	}
	if err := c.do(ctx, http.MethodPatch, appPath(name, "config-vars"), vars); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConfigUpdateFailed, name, err)
	}
	slog.Info("Heroku config vars updated", "app", name, "count", len(vars))
	return nil
}

// TriggerBuild starts a build from a source archive. The build runs on the
// provider side; completion is not tracked.
func (c *Client) TriggerBuild(ctx context.Context, name, sourceURL string) error {
	body := createBuildRequest{SourceBlob: sourceBlob{URL: sourceURL}}
	if err := c.do(ctx, http.MethodPost, appPath(name, "builds"), body); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBuildTriggerFailed, name, err)
	}
	slog.Info("Heroku build triggered", "app", name, "source", sourceURL)
	return nil
}

// DeleteApp destroys the app. An app that no longer exists counts as deleted.
func (c *Client) DeleteApp(ctx context.Context, name string) error {
	err := c.do(ctx, http.MethodDelete, appPath(name), nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			slog.Info("Heroku app already gone", "app", name)
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrAppDeletionFailed, name, err)
	}
	slog.Info("Heroku app deleted", "app", name)
	return nil
}

func appPath(name string, rest ...string) string {
	parts := append([]string{"/apps", url.PathEscape(name)}, rest...)
	return strings.Join(parts, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body any) error {
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
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Authorization", "Bearer "+c.credentials.Select())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return newAPIError(resp.StatusCode, raw)
}
