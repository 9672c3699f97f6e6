// Package media stores image attachments. Clients upload images inline
// as base64 data URLs; the store persists the bytes and hands back a URL
// that is saved on the message instead of the raw payload.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize caps decoded attachment size at 8 MiB.
const MaxImageSize = 8 << 20

type Store interface {
	Upload(ctx context.Context, dataURL string) (string, error)
}

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DiskStore writes attachments under a single directory and serves them
// back through the HTTP file server mounted at baseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create dir %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Upload decodes a "data:image/...;base64,..." payload, writes it to disk
// under a fresh id and returns the public URL.
func (s *DiskStore) Upload(ctx context.Context, dataURL string) (string, error) {
	mime, raw, err := splitDataURL(dataURL)
	if err != nil {
		return "", err
	}

	ext, ok := extensions[mime]
	if !ok {
		return "", fmt.Errorf("media: unsupported content type %q", mime)
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("media: decode payload: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("media: attachment exceeds %d bytes", MaxImageSize)
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("media: write attachment: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

func splitDataURL(dataURL string) (mime, payload string, err error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", "", fmt.Errorf("media: not a data URL")
	}
	meta, payload, ok := strings.Cut(dataURL[len("data:"):], ",")
	if !ok {
		return "", "", fmt.Errorf("media: malformed data URL")
	}
	mime, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return "", "", fmt.Errorf("media: expected base64 encoding")
	}
	return mime, payload, nil
}
