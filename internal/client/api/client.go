// Package api is the HTTP client for the IPO Tracker backend. Transient
// failures (network errors and 5xx responses) are retried with exponential
// backoff; application errors surface the server's message verbatim.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dberezin/ipotrack/internal/common"
)

const (
	retryBase       = 500 * time.Millisecond
	retryMaxRetries = 3
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken stores the session token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current session token, "" when logged out.
func (c *Client) Token() string {
	return c.token
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type AuthResult struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

type Application struct {
	ID            string    `json:"id"`
	CompanyName   string    `json:"companyName"`
	CompanySymbol string    `json:"companySymbol"`
	IssueSize     float64   `json:"issueSize"`
	PricePerShare float64   `json:"pricePerShare"`
	TotalShares   int64     `json:"totalShares"`
	Status        string    `json:"status"`
	HasDocument   bool      `json:"hasDocument"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ApplicationInput struct {
	CompanyName   string  `json:"companyName"`
	CompanySymbol string  `json:"companySymbol"`
	IssueSize     float64 `json:"issueSize"`
	PricePerShare float64 `json:"pricePerShare"`
	TotalShares   int64   `json:"totalShares"`
}

type DocumentURL struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// do performs one API call, retrying network errors and 5xx responses. The
// decoded response body is written into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {

	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(retryMaxRetries, retry.NewExponential(retryBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(newAPIError(resp.StatusCode, body))
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return newAPIError(resp.StatusCode, body)
		}

		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
		}
		return nil
	})
}

func newAPIError(status int, body []byte) error {
	var m struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &m); err != nil || m.Message == "" {
		m.Message = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: m.Message}
}

// Register creates an account and logs the client in with the returned token.
func (c *Client) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register",
		map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

// Me returns the profile of the authenticated account.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateApplication submits a new IPO application.
func (c *Client) CreateApplication(ctx context.Context, in ApplicationInput) (*Application, error) {
	var app Application
	if err := c.do(ctx, http.MethodPost, "/api/applications", in, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// ListApplications returns the caller's applications, newest first.
func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := c.do(ctx, http.MethodGet, "/api/applications", nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// DocumentUploadURL obtains a presigned PUT URL for the application's
// supporting document.
func (c *Client) DocumentUploadURL(ctx context.Context, applicationID string) (*DocumentURL, error) {
	var d DocumentURL
	if err := c.do(ctx, http.MethodPost, "/api/applications/"+applicationID+"/document", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DocumentDownloadURL obtains a presigned GET URL for the application's
// stored document.
func (c *Client) DocumentDownloadURL(ctx context.Context, applicationID string) (*DocumentURL, error) {
	var d DocumentURL
	if err := c.do(ctx, http.MethodGet, "/api/applications/"+applicationID+"/document", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
