package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultBaseURL = "https://api.openai.com"

	chatPath          = "/chat/completions"
	imagePath         = "/images/generations"
	transcriptionPath = "/audio/transcriptions"

	requestIDHeader = "X-Client-Request-Id"
)

type Config struct {
	BaseURL string
	Token   string
	// Proxy is consulted before every request. Nil sends requests directly.
	Proxy    Proxy
	Logger   *slog.Logger
	Observer Observer
}

// Client talks to an OpenAI-compatible API. None of its operations return
// errors: failures are logged and reported through the OK field of the
// result. A Client is safe for concurrent use.
type Client struct {
	baseURL      string
	token        string
	logger       *slog.Logger
	observer     Observer
	httpClient   *http.Client
	streamClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("openai token is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	proxy := cfg.Proxy
	if proxy == nil {
		proxy = NoProxy{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:      baseURL,
		token:        token,
		logger:       logger,
		observer:     cfg.Observer,
		httpClient:   &http.Client{Transport: newTransport(proxy, responseTimeout)},
		streamClient: &http.Client{Transport: newTransport(proxy, chatResponseTimeout)},
	}, nil
}

// begin allocates a request id for one call and returns a logger tagged with it.
func (c *Client) begin(operation string) (string, *slog.Logger) {
	requestID := uuid.NewString()
	return requestID, c.logger.With("operation", operation, "request_id", requestID)
}

func (c *Client) observeCall(operation string, ok bool, statusCode int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveCall(operation, ok, statusCode, time.Since(start))
}

func (c *Client) observeChunk(operation string) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveChunk(operation)
}

func (c *Client) newRequest(ctx context.Context, requestID, path, contentType string, body io.Reader) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, buildEndpoint(c.baseURL, path), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set(requestIDHeader, requestID)
	return httpReq, nil
}

// do sends a non-streaming request and returns the body of a 2xx response.
// The status code is returned whenever a response arrived.
func (c *Client) do(httpReq *http.Request) ([]byte, int, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("openai request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if !isSuccess(httpResp.StatusCode) {
		return nil, httpResp.StatusCode, readOpenAIError(body, httpResp.StatusCode)
	}
	return body, httpResp.StatusCode, nil
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func buildEndpoint(baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(base, "/v1") {
		return base + path
	}
	return base + "/v1" + path
}

func readOpenAIError(body []byte, status int) error {
	var resp struct {
		Error *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Error != nil && resp.Error.Message != "" {
		return fmt.Errorf("openai request failed: %s (status %d)", resp.Error.Message, status)
	}
	return fmt.Errorf("openai request failed with status %d: %s", status, excerpt(body))
}

func excerpt(body []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
