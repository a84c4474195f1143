// Package client is a Go client for the key/value HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Deathfireofdoom/staged-kv-store/internal/api"
	"github.com/Deathfireofdoom/staged-kv-store/internal/models"
	"github.com/pingcap/errors"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL, e.g.
// "http://127.0.0.1:4000". A nil httpClient means http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Get returns the committed value of key; ok is false when the key is absent.
func (c *Client) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	resp, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(key), nil)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body models.GetResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", false, errors.Annotate(err, "decode get response")
		}
		value, ok = body[key]
		return value, ok, nil
	case http.StatusNotFound:
		return "", false, nil
	default:
		return "", false, unexpected(resp)
	}
}

// Set stages key=value and reports whether key was already committed.
func (c *Client) Set(ctx context.Context, key, value string) (existed bool, err error) {
	resp, err := c.do(ctx, http.MethodPost, "/set", models.SetRequest{key: value})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusCreated:
		return false, nil
	default:
		return false, unexpected(resp)
	}
}

// Delete stages the removal of key.
func (c *Client) Delete(ctx context.Context, key string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/set", models.DeleteRequest(key))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unexpected(resp)
	}
	return nil
}

// Commit applies every staged action on the server.
func (c *Client) Commit(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/commit", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return unexpected(resp)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) (models.HealthResponse, error) {
	var health models.HealthResponse
	resp, err := c.do(ctx, http.MethodGet, api.HealthPath, nil)
	if err != nil {
		return health, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return health, unexpected(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return health, errors.Annotate(err, "decode health response")
	}
	return health, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Trace(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Annotatef(err, "%s %s", method, path)
	}
	return resp, nil
}

func unexpected(resp *http.Response) error {
	var body models.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil && body.Error != "" {
		return errors.Annotatef(ErrUnexpectedStatus, "%s %s: %d: %s",
			resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, body.Error)
	}
	return errors.Annotatef(ErrUnexpectedStatus, "%s %s: %d",
		resp.Request.Method, resp.Request.URL.Path, resp.StatusCode)
}
