package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/knomic/pluginsync/internal/branding"
)

const checksumsAsset = "checksums.txt"

// GitHubClient resolves slug to the latest release of the repository
// <owner>/<slug>. The first .zip release asset is the artifact; the source
// zipball is used when the release has none.
type GitHubClient struct {
	owner      string
	client     *github.Client
	httpClient *http.Client
}

// GitHubOption configures a GitHubClient.
type GitHubOption func(*GitHubClient) error

// WithGitHubBaseURL points the client at a GitHub Enterprise or test server.
func WithGitHubBaseURL(base string) GitHubOption {
	return func(g *GitHubClient) error {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("parsing GitHub base URL: %w", err)
		}
		g.client.BaseURL = u
		return nil
	}
}

// NewGitHubClient creates a client for releases owned by owner. The token may
// be empty for anonymous access. httpClient may be nil.
func NewGitHubClient(ctx context.Context, owner, token string, httpClient *http.Client, opts ...GitHubOption) (*GitHubClient, error) {
	if owner == "" {
		return nil, fmt.Errorf("github owner is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	apiClient := httpClient
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		apiClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, httpClient), ts)
	}

	gc := github.NewClient(apiClient)
	gc.UserAgent = branding.UserAgent()

	g := &GitHubClient{owner: owner, client: gc, httpClient: apiClient}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Lookup fetches the latest release of <owner>/<slug>.
func (g *GitHubClient) Lookup(ctx context.Context, slug string) (*Artifact, error) {
	release, _, err := g.client.Repositories.GetLatestRelease(ctx, g.owner, slug)
	if err != nil {
		return nil, classifyGitHubError(slug, err)
	}

	art := &Artifact{
		Slug:    slug,
		Name:    release.GetName(),
		Version: strings.TrimPrefix(release.GetTagName(), "v"),
	}
	if art.Name == "" {
		art.Name = slug
	}

	var checksumURL string
	for _, asset := range release.Assets {
		name := asset.GetName()
		switch {
		case name == checksumsAsset:
			checksumURL = asset.GetBrowserDownloadURL()
		case art.DownloadURL == "" && strings.HasSuffix(strings.ToLower(name), ".zip"):
			art.DownloadURL = asset.GetBrowserDownloadURL()
		}
	}

	if art.DownloadURL == "" {
		art.DownloadURL = release.GetZipballURL()
		checksumURL = ""
	}
	if art.DownloadURL == "" {
		return nil, notFound(slug)
	}

	if checksumURL != "" {
		sum, err := g.fetchChecksum(ctx, checksumURL, urlBase(art.DownloadURL))
		if err != nil {
			return nil, transient(slug, err)
		}
		art.Checksum = sum
	}

	return art, nil
}

// fetchChecksum downloads checksums.txt and returns the entry for archiveName.
// Each line is "sha256  filename". An archive without an entry yields "".
func (g *GitHubClient) fetchChecksum(ctx context.Context, checksumURL, archiveName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checksumURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating checksum request: %w", err)
	}
	req.Header.Set("User-Agent", branding.UserAgent())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading checksums: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("checksums download returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading checksums: %w", err)
	}

	return parseChecksums(string(body), archiveName), nil
}

func parseChecksums(body, archiveName string) string {
	for _, line := range strings.Split(body, "\n") {
		parts := strings.Fields(line)
		if len(parts) == 2 && strings.TrimPrefix(parts[1], "*") == archiveName {
			return strings.ToLower(parts[0])
		}
	}
	return ""
}

// urlBase returns the last element of a URL path.
func urlBase(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	p := u.Path
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return p
}

func classifyGitHubError(slug string, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return transient(slug, err)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return transient(slug, err)
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		code := respErr.Response.StatusCode
		switch {
		case code == http.StatusNotFound:
			return notFound(slug)
		case code >= 500:
			return transient(slug, err)
		default:
			return fmt.Errorf("looking up %s: %w", slug, err)
		}
	}
	return transient(slug, err)
}
