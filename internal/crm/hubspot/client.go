// Package hubspot implements crm.Client against the HubSpot CRM v3 REST API.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crmpush/internal/crm"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL  = "https://api.hubapi.com"
	DefaultTimeout  = 30 * time.Second
	DefaultPageSize = 100

	contactsPath = "/crm/v3/objects/contacts"
)

// contactProperties are requested explicitly; HubSpot only returns a default
// subset otherwise.
var contactProperties = []string{"firstname", "lastname", "email", "linkedin_id", "phone", "company"}

type Client struct {
	baseURL    string
	token      string
	pageSize   int
	httpClient *http.Client
	logger     zerolog.Logger
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithPageSize sets how many contacts GetAllContacts requests.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client authenticating with a private app token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		pageSize:   DefaultPageSize,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ crm.Client = (*Client)(nil)

type contactBody struct {
	ID         string         `json:"id,omitempty"`
	Properties crm.Properties `json:"properties"`
}

type listResponse struct {
	Results []contactBody `json:"results"`
}

type errorResponse struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

// GetAllContacts fetches a single page of contacts.
func (c *Client) GetAllContacts(ctx context.Context) ([]crm.Contact, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("properties", strings.Join(contactProperties, ","))

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, contactsPath+"?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	out := make([]crm.Contact, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, crm.Contact{ID: r.ID, Properties: r.Properties})
	}
	c.logger.Debug().Int("count", len(out)).Msg("fetched hubspot contacts")
	return out, nil
}

func (c *Client) CreateContact(ctx context.Context, props crm.Properties) (crm.Contact, error) {
	var resp contactBody
	if err := c.do(ctx, http.MethodPost, contactsPath, contactBody{Properties: props}, &resp); err != nil {
		return crm.Contact{}, err
	}
	return crm.Contact{ID: resp.ID, Properties: resp.Properties}, nil
}

func (c *Client) UpdateContact(ctx context.Context, id string, props crm.Properties) (crm.Contact, error) {
	var resp contactBody
	path := contactsPath + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, path, contactBody{Properties: props}, &resp); err != nil {
		var apiErr *crm.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return crm.Contact{}, fmt.Errorf("%w: %s", crm.ErrContactNotFound, id)
		}
		return crm.Contact{}, err
	}
	return crm.Contact{ID: resp.ID, Properties: resp.Properties}, nil
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
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hubspot %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("hubspot request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var er errorResponse
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &er) == nil && er.Message != "" {
			msg = er.Message
		}
		return &crm.APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode hubspot response: %w", err)
	}
	return nil
}
