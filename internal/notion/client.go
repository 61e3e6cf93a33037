package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/notiondigest/internal/interfaces"
	"github.com/ternarybob/notiondigest/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the Notion API.
	DefaultBaseURL = "https://api.notion.com"

	// DefaultVersion is the pinned Notion-Version header.
	DefaultVersion = "2022-06-28"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the largest page_size the API accepts.
	MaxPageSize = 100
)

// Client is a Notion API client.
type Client struct {
	baseURL    string
	token      string
	version    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP timeout on the default client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithVersion overrides the Notion-Version header.
func WithVersion(version string) ClientOption {
	return func(c *Client) {
		if version != "" {
			c.version = version
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit paces requests to the given rate. Zero or less disables pacing.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// NewClient creates a new Notion API client.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		version: DefaultVersion,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Inf, 0),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var _ interfaces.DocumentStore = (*Client)(nil)

// do performs a request against the API and decodes a 2xx body into result.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("request pacing interrupted: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = reqURL + "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Msg("Notion API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		apiErr := newAPIError(resp.StatusCode, method+" "+path, respBody)
		if c.logger != nil {
			c.logger.Warn().
				Int("status", resp.StatusCode).
				Str("endpoint", apiErr.Endpoint).
				Str("code", apiErr.Code).
				Msg("Notion API error response")
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// QueryDatabase returns one page of rows from a database.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, query interfaces.DatabaseQuery) (*models.PageList, error) {
	body := queryRequest{
		Filter:      query.Filter,
		PageSize:    clampPageSize(query.PageSize),
		StartCursor: query.StartCursor,
	}

	var result models.PageList
	path := "/v1/databases/" + url.PathEscape(databaseID) + "/query"
	if err := c.do(ctx, http.MethodPost, path, nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListBlockChildren returns one page of the children of a block (or a page body).
func (c *Client) ListBlockChildren(ctx context.Context, blockID string, pageSize int, cursor string) (*models.BlockList, error) {
	params := url.Values{}
	params.Set("page_size", strconv.Itoa(clampPageSize(pageSize)))
	if cursor != "" {
		params.Set("start_cursor", cursor)
	}

	var result models.BlockList
	path := "/v1/blocks/" + url.PathEscape(blockID) + "/children"
	if err := c.do(ctx, http.MethodGet, path, params, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RetrievePage returns a page with its properties.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*models.Page, error) {
	var result models.Page
	if err := c.do(ctx, http.MethodGet, "/v1/pages/"+url.PathEscape(pageID), nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateRichTextProperty replaces a rich_text property on a page.
// The returned page must carry an id for the update to count as applied.
func (c *Client) UpdateRichTextProperty(ctx context.Context, pageID string, property string, value []models.RichText) (*models.Page, error) {
	body := updatePageRequest{
		Properties: map[string]propertyValue{
			property: {RichText: value},
		},
	}

	var result models.Page
	if err := c.do(ctx, http.MethodPatch, "/v1/pages/"+url.PathEscape(pageID), nil, body, &result); err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, fmt.Errorf("update of page %s returned no id", pageID)
	}
	return &result, nil
}

// clampPageSize keeps page_size inside the range the API accepts.
func clampPageSize(pageSize int) int {
	if pageSize <= 0 || pageSize > MaxPageSize {
		return MaxPageSize
	}
	return pageSize
}
