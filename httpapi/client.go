package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"nodesync/logger"
)

// New creates a client for the given base URL, e.g. "http://127.0.0.1:8188".
// A port of zero means the base URL already carries the port.
func New(base string, port int) *Client {
	base = strings.TrimSuffix(base, "/")
	if port > 0 {
		base = fmt.Sprintf("%s:%d", base, port)
	}
	return &Client{base: base}
}

func (c *Client) AddHeader(key, value string) {
	c.headers = append(c.headers, Header{Key: key, Value: value})
}

// Url builds the full URL for a path and optional query values.
func (c *Client) Url(path string, query url.Values) string {
	full := c.base + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

// GetJSON performs a GET request and decodes the JSON response into response.
// Pass a *string to capture the raw body instead.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, response interface{}) error {
	return c.call(ctx, http.MethodGet, c.Url(path, query), nil, response)
}

// PostJSON performs a POST request with a JSON payload and decodes the JSON
// response into response. Either may be nil.
func (c *Client) PostJSON(ctx context.Context, path string, payload, response interface{}) error {
	return c.call(ctx, http.MethodPost, c.Url(path, nil), payload, response)
}

func (c *Client) call(ctx context.Context, method, fullUrl string, payload, response interface{}) error {
	reqBody := &bytes.Buffer{}
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullUrl, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, header := range c.headers {
		req.Header.Set(header.Key, header.Value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if response == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	// Some endpoints return a bare string body and not any JSON
	if strPtr, ok := response.(*string); ok {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		*strPtr = string(bodyBytes)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		logger.Error("Failed to decode JSON response", "url", fullUrl, "error", err)
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}

	return nil
}

// statusError maps a non-2xx response to a StatusError, using the body's
// error field when it parses as the expected shape.
func statusError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	var body errorBody
	if err := json.Unmarshal(bodyBytes, &body); err == nil && body.Error != "" {
		return &StatusError{Code: resp.StatusCode, Message: body.Error}
	}
	return &StatusError{Code: resp.StatusCode}
}
