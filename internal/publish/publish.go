// Package publish copies baked chart files to their final destination.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
)

// Content types of baked files.
const (
	JSONContentType = "application/json"
	HTMLContentType = "text/html; charset=utf-8"
)

// ContentType guesses the content type of a baked file from its extension.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return JSONContentType
	case ".html":
		return HTMLContentType
	default:
		return "application/octet-stream"
	}
}

// New builds the publisher for the configured target.
// It returns nil when publishing is disabled.
func New(cfg contract.PublishConfig) (contract.Publisher, error) {
	switch cfg.Target {
	case schema.NoPublish:
		return nil, nil
	case schema.DirPublish:
		return NewDirPublisher(cfg.Dir)
	case schema.S3Publish:
		return NewS3Publisher(cfg)
	default:
		return nil, fmt.Errorf("unsupported publish target: %s", cfg.Target)
	}
}

// DirPublisher copies files into a local directory tree.
type DirPublisher struct {
	root string
}

var _ contract.Publisher = &DirPublisher{} // Compile-time check

// NewDirPublisher creates the root directory if needed.
func NewDirPublisher(root string) (*DirPublisher, error) {
	if root == "" {
		return nil, errors.New("publish directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create publish directory %s: %w", root, err)
	}
	return &DirPublisher{root: root}, nil
}

// Publish writes body under the root at the cleaned relative path.
func (p *DirPublisher) Publish(ctx context.Context, rel string, body []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := cleanKey(rel)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(p.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return dst, nil
}

// Name identifies the destination in logs.
func (p *DirPublisher) Name() string {
	return "dir:" + p.root
}

// cleanKey normalizes a relative slash path and rejects escapes from the root.
func cleanKey(rel string) (string, error) {
	key := path.Clean("/" + filepath.ToSlash(strings.TrimSpace(rel)))
	key = strings.TrimPrefix(key, "/")
	if key == "" || key == "." {
		return "", errors.New("path is required")
	}
	return key, nil
}
