package wilayah

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://wilayah.id/api"
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
)

// Region is one administrative area: province, regency, district or village.
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Client reads the Indonesian administrative area hierarchy from wilayah.id.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the wilayah.id client. The API is public and needs no key.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Provinces lists every province.
func (c *Client) Provinces(ctx context.Context) ([]Region, error) {
	return c.fetch(ctx, "provinces.json")
}

// Regencies lists the regencies (kota/kabupaten) of a province.
func (c *Client) Regencies(ctx context.Context, provinceCode string) ([]Region, error) {
	return c.fetchChildren(ctx, "regencies", provinceCode)
}

// Districts lists the districts (kecamatan) of a regency.
func (c *Client) Districts(ctx context.Context, regencyCode string) ([]Region, error) {
	return c.fetchChildren(ctx, "districts", regencyCode)
}

// Villages lists the villages (kelurahan/desa) of a district.
func (c *Client) Villages(ctx context.Context, districtCode string) ([]Region, error) {
	return c.fetchChildren(ctx, "villages", districtCode)
}

func (c *Client) fetchChildren(ctx context.Context, level, parentCode string) ([]Region, error) {
	trimmed := strings.TrimSpace(parentCode)
	if trimmed == "" {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "parent code is required for %s", level)
	}
	return c.fetch(ctx, fmt.Sprintf("%s/%s.json", level, url.PathEscape(trimmed)))
}

func (c *Client) fetch(ctx context.Context, path string) ([]Region, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wilayah client not configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build wilayah request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute wilayah request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "wilayah request failed")
	}

	var apiResp struct {
		Data []Region `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode wilayah response")
	}
	if apiResp.Data == nil {
		return []Region{}, nil
	}
	return apiResp.Data, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
