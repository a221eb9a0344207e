package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/knomic/pluginsync/internal/branding"
)

// DefaultCatalogURL is the public WordPress.org API.
const DefaultCatalogURL = "https://api.wordpress.org"

const catalogInfoPath = "/plugins/info/1.2/"

// CatalogClient queries an HTTP catalog that implements the WordPress.org
// plugin-information endpoint.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

// CatalogOption configures a CatalogClient.
type CatalogOption func(*CatalogClient)

// WithHTTPClient sets a custom HTTP client (useful for timeouts and testing).
func WithHTTPClient(c *http.Client) CatalogOption {
	return func(cc *CatalogClient) {
		cc.httpClient = c
	}
}

// NewCatalogClient creates a client for the catalog at baseURL.
func NewCatalogClient(baseURL string, opts ...CatalogOption) *CatalogClient {
	if baseURL == "" {
		baseURL = DefaultCatalogURL
	}
	c := &CatalogClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// catalogInfo is the subset of the plugin-information response we use.
type catalogInfo struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Version      string `json:"version"`
	DownloadLink string `json:"download_link"`
	Error        string `json:"error"`
}

// Lookup fetches plugin information for slug.
func (c *CatalogClient) Lookup(ctx context.Context, slug string) (*Artifact, error) {
	q := url.Values{}
	q.Set("action", "plugin_information")
	q.Set("request[slug]", slug)
	endpoint := c.baseURL + catalogInfoPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", branding.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transient(slug, fmt.Errorf("fetching plugin information: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, notFound(slug)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, transient(slug, fmt.Errorf("catalog returned status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("looking up %s: catalog returned status %d", slug, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transient(slug, fmt.Errorf("reading response body: %w", err))
	}

	var info catalogInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, transient(slug, fmt.Errorf("parsing plugin information: %w", err))
	}
	if info.Error != "" || info.DownloadLink == "" {
		return nil, notFound(slug)
	}

	return &Artifact{
		Slug:        slug,
		Name:        info.Name,
		Version:     info.Version,
		DownloadURL: info.DownloadLink,
	}, nil
}
