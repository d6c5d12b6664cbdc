// Package client talks to a preset server over HTTP. Client implements
// preset.Store, so an editor.Session can run against a remote registry.
package client

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

	"section-presets/preset"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New returns a client for the server at baseURL that authenticates with
// token. An empty token makes every call anonymous.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
}

type putBody struct {
	Value []preset.Record `json:"value"`
}

// List ignores userID: the server scopes by the token's identity.
func (c *Client) List(ctx context.Context, _ string, section preset.Section) ([]preset.Preset, error) {
	var presets []preset.Preset
	if err := c.do(ctx, http.MethodGet, presetsPath(section), nil, &presets); err != nil {
		return nil, err
	}
	if presets == nil {
		presets = []preset.Preset{}
	}
	return presets, nil
}

func (c *Client) Save(ctx context.Context, _ string, section preset.Section, p preset.Preset) error {
	return c.do(ctx, http.MethodPut, presetsPath(section)+"/"+url.PathEscape(p.Name), putBody{Value: p.Value}, nil)
}

func (c *Client) Delete(ctx context.Context, _ string, section preset.Section, name string) error {
	return c.do(ctx, http.MethodDelete, presetsPath(section)+"/"+url.PathEscape(name), nil, nil)
}

func presetsPath(section preset.Section) string {
	return "/api/presets/" + url.PathEscape(string(section))
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", preset.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return statusError(resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", preset.ErrRemoteUnavailable, err)
	}
	return nil
}

// statusError maps a server reply back onto the preset error taxonomy.
func statusError(code int, msg string) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", preset.ErrPermissionDenied, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", preset.ErrNotFound, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", preset.ErrInvalidPreset, msg)
	default:
		return fmt.Errorf("%w: server returned %d: %s", preset.ErrRemoteUnavailable, code, msg)
	}
}
