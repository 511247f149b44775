package stash

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Local keeps files in a single flat directory
type Local struct {
	dir string
}

// NewLocal creates dir if it's missing
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory, %w", err)
	}

	return &Local{dir: dir}, nil
}

func (l *Local) Store(_ context.Context, r io.Reader, originalName string) (string, error) {
	m, body, err := sniff(r)
	if err != nil {
		return "", err
	}

	name, err := makeName(originalName, m)
	if err != nil {
		return "", err
	}

	p := filepath.Join(l.dir, name)

	// O_EXCL so a name collision fails instead of overwriting another upload
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file, %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(p)
		return "", fmt.Errorf("failed to write file, %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(p)
		return "", fmt.Errorf("failed to close file, %w", err)
	}

	zap.L().Debug("Stored file", zap.String("name", name), zap.String("type", m.String()))

	return URLPrefix + "/" + name, nil
}

func (l *Local) Remove(_ context.Context, relPath string) error {
	name := baseName(relPath)
	if name == "" {
		return nil
	}

	err := os.Remove(filepath.Join(l.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func (l *Local) Mount(r gin.IRoutes) {
	r.Static(URLPrefix, l.dir)
}
