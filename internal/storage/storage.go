// Package storage keeps evidence files. Every file lives under a per-report
// prefix (reports/<id>/) so two partes never collide on a name.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidPath = errors.New("invalid storage path")

// FileStore is the durable storage used for evidence
type FileStore interface {
	// Save writes r under the report's prefix and returns the stored key and byte count
	Save(ctx context.Context, reportID uint, name string, r io.Reader) (string, int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	// URL resolves a stored key to an address clients can fetch
	URL(key string) string
}

// ObjectKey builds a unique key for an uploaded file, keeping a short extension
func ObjectKey(reportID uint, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) > 8 {
		ext = ext[:8]
	}
	name := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), uuid.NewString()[:8], ext)
	return path.Join("reports", fmt.Sprint(reportID), name)
}

// cleanKey rejects keys that would escape the storage root
func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))[1:]
	if cleaned == "" || cleaned == "." || !strings.HasPrefix(cleaned, "reports/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, key)
	}
	return cleaned, nil
}
