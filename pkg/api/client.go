// Package api provides typed clients for the robot's remote RPC services.
//
// Every service speaks the same envelope: requests are POSTed as JSON to
// /v1/<service>/<method>, successful responses are JSON bodies, and failures
// carry a {code, message} error envelope. Snapshot downloads return raw bytes.
// The services themselves (lease management, localization, the map-processing
// solvers) run on the robot; these clients only bind their contracts.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a connection to one robot. It carries the base URL, the HTTP
// transport and the bearer token obtained from Authenticate.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
	user    string

	GraphNav      *GraphNavClient
	Recording     *RecordingClient
	MapProcessing *MapProcessingClient
	Image         *ImageClient
	Power         *PowerClient
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// NewClient creates a client for the robot at host. Host may be a bare
// hostname/IP, a host:port, or a full URL.
func NewClient(host string, opts ...Option) *Client {
	base := host
	// url.Parse reads "robot.local:8080" as scheme "robot.local", so an
	// explicit scheme check decides whether to prefix.
	if !strings.Contains(host, "://") {
		base = "http://" + host
	}
	c := &Client{
		baseURL: base,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.GraphNav = &GraphNavClient{c: c}
	c.Recording = &RecordingClient{c: c}
	c.MapProcessing = &MapProcessingClient{c: c}
	c.Image = &ImageClient{c: c}
	c.Power = &PowerClient{c: c}
	return c
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	User  string `json:"user"`
}

// Authenticate exchanges credentials for a bearer token. All subsequent calls
// carry the token. Failure here is fatal for a session.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	var resp authResponse
	err := c.call(ctx, "auth/token", authRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	c.token = resp.Token
	c.user = resp.User
	if c.user == "" {
		c.user = username
	}
	return nil
}

// User returns the authenticated user name.
func (c *Client) User() string {
	return c.user
}

// call POSTs a JSON request to /v1/<op> and decodes the JSON response into
// out (which may be nil for operations with empty responses).
func (c *Client) call(ctx context.Context, op string, in, out any) error {
	body, err := c.post(ctx, op, in, "application/json")
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// download POSTs a JSON request to /v1/<op> and returns the raw response
// bytes. Used for snapshot blobs.
func (c *Client) download(ctx context.Context, op string, in any) ([]byte, error) {
	return c.post(ctx, op, in, "application/octet-stream")
}

func (c *Client) post(ctx context.Context, op string, in any, accept string) ([]byte, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/"+op, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(op, resp.StatusCode, body)
	}
	return body, nil
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeError(op string, status int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		env = errorEnvelope{Code: http.StatusText(status)}
	}
	if env.Code == CodeNotReady {
		return fmt.Errorf("%s: %w", op, ErrNotReady)
	}
	return &StatusError{Op: op, Code: env.Code, Status: status, Message: env.Message}
}
