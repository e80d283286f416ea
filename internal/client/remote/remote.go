// Package remote implements the HTTP client side of the storage
// protocol. Load and save are asynchronous: each call gets its own
// result channel, correlated by a generated request ID, so a consumer
// never has to filter a shared event stream.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/odizinne/gtacompta-storage/internal/models"
	"go.uber.org/zap"
)

// Credentials carries the endpoint and secrets used for one request.
// They are fetched from the source right before each call, never cached.
type Credentials struct {
	// BaseURL is the server base, e.g. "http://localhost:3000".
	BaseURL        string
	ServerPassword string
	Username       string
	UserPassword   string
}

// CredentialsSource supplies fresh credentials per request.
type CredentialsSource interface {
	Credentials() Credentials
}

// LoadResult is the completion event of an asynchronous load.
type LoadResult struct {
	RequestID  string
	Collection string
	Data       []models.Record
	ReadOnly   bool
	Username   string
	Err        error
}

// SaveResult is the completion event of an asynchronous save.
type SaveResult struct {
	RequestID  string
	Collection string
	Success    bool
	Err        error
}

// TestResult is the outcome of a connection test.
type TestResult struct {
	Success  bool
	Message  string
	Username string
	ReadOnly bool
}

// Client talks to the storage server.
type Client struct {
	httpClient *http.Client
	creds      CredentialsSource
	log        *zap.Logger
}

// NewClient constructs a Client reading credentials from creds.
func NewClient(creds CredentialsSource, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		creds:      creds,
		log:        log,
	}
}

// Load fetches a collection asynchronously. The returned channel is
// buffered and receives exactly one LoadResult.
func (c *Client) Load(ctx context.Context, collection string) <-chan LoadResult {
	ch := make(chan LoadResult, 1)
	requestID := uuid.NewString()

	go func() {
		result := LoadResult{RequestID: requestID, Collection: collection}

		var resp struct {
			Data     []models.Record `json:"data"`
			ReadOnly bool            `json:"readonly"`
			Username string          `json:"username"`
		}
		if err := c.do(ctx, http.MethodGet, "/api/load/"+collection, nil, &resp); err != nil {
			result.Err = err
			c.log.Warn("remote load failed",
				zap.String("collection", collection),
				zap.String("requestID", requestID),
				zap.Error(err))
		} else {
			result.Data = resp.Data
			result.ReadOnly = resp.ReadOnly
			result.Username = resp.Username
		}
		ch <- result
	}()

	return ch
}

// Save pushes a whole collection asynchronously. The returned channel
// is buffered and receives exactly one SaveResult.
func (c *Client) Save(ctx context.Context, collection string, records []models.Record) <-chan SaveResult {
	ch := make(chan SaveResult, 1)
	requestID := uuid.NewString()

	go func() {
		result := SaveResult{RequestID: requestID, Collection: collection}

		payload := map[string]any{"data": records}
		var resp struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		err := c.do(ctx, http.MethodPost, "/api/save/"+collection, payload, &resp)
		switch {
		case err != nil:
			result.Err = err
			c.log.Warn("remote save failed",
				zap.String("collection", collection),
				zap.String("requestID", requestID),
				zap.Error(err))
		case !resp.Success:
			result.Err = fmt.Errorf("server rejected save: %s", resp.Error)
		default:
			result.Success = true
		}
		ch <- result
	}()

	return ch
}

// Test performs a synchronous connection test. Unlike load and save,
// failures propagate to the caller so the UI can show them.
func (c *Client) Test(ctx context.Context) (TestResult, error) {
	var resp struct {
		Success  bool   `json:"success"`
		Message  string `json:"message"`
		Username string `json:"username"`
		ReadOnly bool   `json:"readonly"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/test", nil, &resp); err != nil {
		return TestResult{}, err
	}
	return TestResult{
		Success:  resp.Success,
		Message:  resp.Message,
		Username: resp.Username,
		ReadOnly: resp.ReadOnly,
	}, nil
}

// do executes one authenticated request and decodes the JSON response
// into out. Non-2xx statuses are returned as errors carrying the
// server's error message.
func (c *Client) do(ctx context.Context, method, endpoint string, payload, out any) error {
	creds := c.creds.Credentials()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("serialize request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, creds.BaseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(models.HeaderServerPassword, creds.ServerPassword)
	req.Header.Set(models.HeaderUsername, creds.Username)
	req.Header.Set(models.HeaderUserPassword, creds.UserPassword)
	req.Header.Set(models.HeaderProtocolVersion, models.ProtocolVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error != "" {
			return fmt.Errorf("%s %s: %s (HTTP %d)", method, endpoint, errBody.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: HTTP %d", method, endpoint, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
