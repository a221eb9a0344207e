package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/knomic/pluginsync/internal/branding"
	"github.com/knomic/pluginsync/internal/repository"
)

const archiveName = "artifact.zip"

// fetch copies the artifact archive into dir and returns its path. Download
// URLs without an http(s) scheme are treated as local paths.
func (i *Installer) fetch(ctx context.Context, art *repository.Artifact, dir string) (string, error) {
	destPath := filepath.Join(dir, archiveName)

	u, err := url.Parse(art.DownloadURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		src := art.DownloadURL
		if err == nil && u.Scheme == "file" {
			src = u.Path
		}
		if err := copyFile(src, destPath); err != nil {
			return "", fmt.Errorf("copying archive %s: %w", src, err)
		}
		return destPath, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, art.DownloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", branding.UserAgent())

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", art.Slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("creating download file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return "", fmt.Errorf("writing download: %w", err)
	}
	i.logger.Debug("Downloaded plugin archive", "slug", art.Slug, "bytes", n)

	return destPath, nil
}

// verifyChecksum compares the sha256 of path with the expected hex digest.
func verifyChecksum(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("computing checksum: %w", err)
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}
