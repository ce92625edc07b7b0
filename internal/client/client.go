// Package client is the operator-side API client of the syslog keeper admin
// server. Requests are authenticated with a client certificate.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/SyslogKeeper/internal/certgen"
	"github.com/atinyakov/SyslogKeeper/internal/models"
	"github.com/atinyakov/SyslogKeeper/internal/service"
)

// DefaultTimeout bounds every request made by a Client built with New.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// CreatedUser is the answer to CreateUser. Cert and Key are set when the
// server issues operator certificates.
type CreatedUser struct {
	User *models.User `json:"user"`
	Cert string       `json:"cert"`
	Key  string       `json:"key"`
}

// Save writes the issued certificate and key. It fails when the server did
// not issue any.
func (u CreatedUser) Save(certPath, keyPath string) error {
	if u.Cert == "" || u.Key == "" {
		return errors.New("server did not issue a certificate")
	}
	return certgen.WritePair(certPath, keyPath, []byte(u.Cert), []byte(u.Key))
}

// Client talks to the admin API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client that presents the given certificate and trusts caFile.
func New(baseURL, certFile, keyFile, caFile string) (*Client, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert/key: %w", err)
	}
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			RootCAs:      caPool,
			MinVersion:   tls.VersionTLS12,
		},
	}
	return NewWithHTTPClient(baseURL, &http.Client{Transport: transport, Timeout: DefaultTimeout}), nil
}

// NewWithHTTPClient builds a Client on top of an existing http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Listeners returns the configured listeners with their runtime state.
func (c *Client) Listeners(ctx context.Context) ([]service.ListenerStatus, error) {
	var out []service.ListenerStatus
	err := c.do(ctx, http.MethodGet, "/api/listeners", nil, &out)
	return out, err
}

// AddListener stores and starts a listener.
func (c *Client) AddListener(ctx context.Context, address string, port uint16) (service.ListenerStatus, error) {
	var out service.ListenerStatus
	body := map[string]any{"address": address, "port": port}
	err := c.do(ctx, http.MethodPost, "/api/listeners", body, &out)
	return out, err
}

// RemoveListener stops and deletes a listener.
func (c *Client) RemoveListener(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/listeners/"+url.PathEscape(id), nil, nil)
}

// Logs returns stored entries, newest first. Empty source and zero limit
// leave the server defaults.
func (c *Client) Logs(ctx context.Context, source string, limit int) ([]models.LogEntry, error) {
	q := url.Values{}
	if source != "" {
		q.Set("source", source)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []models.LogEntry
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// CreateUser creates an operator account.
func (c *Client) CreateUser(ctx context.Context, fields map[string]string) (CreatedUser, error) {
	var out CreatedUser
	err := c.do(ctx, http.MethodPost, "/api/users", fields, &out)
	return out, err
}

// UpdateUser changes fields of an existing account.
func (c *Client) UpdateUser(ctx context.Context, name string, changes map[string]string) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPatch, "/api/users/"+url.PathEscape(name), changes, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserSecret returns the device-facing secret password of an account.
func (c *Client) UserSecret(ctx context.Context, name string) (string, error) {
	var out struct {
		SecretPassword string `json:"secret_password"`
	}
	err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(name)+"/secret", nil, &out)
	return out.SecretPassword, err
}

// CreateAAAServer registers a TACACS+ server.
func (c *Client) CreateAAAServer(ctx context.Context, fields map[string]string) (*models.AAAServer, error) {
	var out models.AAAServer
	if err := c.do(ctx, http.MethodPost, "/api/aaa-servers", fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAAAServer changes fields of a registered TACACS+ server.
func (c *Client) UpdateAAAServer(ctx context.Context, address string, changes map[string]string) (*models.AAAServer, error) {
	var out models.AAAServer
	if err := c.do(ctx, http.MethodPatch, "/api/aaa-servers/"+url.PathEscape(address), changes, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AAAPassword returns the shared key of a registered TACACS+ server.
func (c *Client) AAAPassword(ctx context.Context, address string) (string, error) {
	var out struct {
		Password string `json:"password"`
	}
	err := c.do(ctx, http.MethodGet, "/api/aaa-servers/"+url.PathEscape(address)+"/password", nil, &out)
	return out.Password, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{Status: resp.StatusCode}

	var payload struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		apiErr.Message, apiErr.Field = payload.Error, payload.Field
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
