// Package download fetches generated assets referenced by URL or inline
// base64 payloads and writes them to local files.
package download

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var defaultClient = &http.Client{Timeout: 5 * time.Minute}

// ToFile downloads url into outPath. A nil client uses a shared default.
func ToFile(ctx context.Context, client *http.Client, url, outPath string) error {
	if client == nil {
		client = defaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return f.Close()
}

// Base64ToFile decodes a base64 payload (optionally a data: URL) into outPath.
func Base64ToFile(data, outPath string) error {
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return fmt.Errorf("decode base64 payload: %w", err)
	}
	return os.WriteFile(outPath, b, 0o644)
}
