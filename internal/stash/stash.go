// Package stash holds uploaded profile pictures. The default backend
// is a flat local directory, an S3 compatible bucket can be used instead.
package stash

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// URLPrefix is the public prefix every stored file path starts with
const URLPrefix = "/uploads"

// FieldName is the multipart field stored files come from, it's also
// the first part of every generated file name
const FieldName = "profile_pic"

const (
	digits    = "0123456789"
	sniffSize = 3072
)

// Stash is a place uploaded files are written to and served from
type Stash interface {
	// Store writes the content of r under a freshly generated name and
	// returns the path clients can fetch it from
	Store(ctx context.Context, r io.Reader, originalName string) (string, error)

	// Remove deletes a stored file. A file that doesn't exist is not an error
	Remove(ctx context.Context, relPath string) error

	// Mount registers the routes serving stored files
	Mount(r gin.IRoutes)
}

// RemoveBestEffort removes relPath and only logs a failure. Callers use
// it where a leftover file must never fail the request.
func RemoveBestEffort(ctx context.Context, s Stash, relPath *string) {
	if relPath == nil || *relPath == "" {
		return
	}

	if err := s.Remove(ctx, *relPath); err != nil {
		zap.L().Warn("Failed to remove stored file", zap.String("path", *relPath), zap.Error(err))
		return
	}

	zap.L().Debug("Removed stored file", zap.String("path", *relPath))
}

// sniff reads the first bytes of r to detect its type and returns a
// reader that still yields the full content
func sniff(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffSize)

	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, nil, fmt.Errorf("failed to read file header, %w", err)
	}
	head = head[:n]

	return mimetype.Detect(head), io.MultiReader(bytes.NewReader(head), r), nil
}

// makeName builds profile_pic-<unix millis>-<9 random digits><ext>. The
// original extension is kept, when there is none the sniffed one is used.
func makeName(originalName string, m *mimetype.MIME) (string, error) {
	suffix, err := gonanoid.Generate(digits, 9)
	if err != nil {
		return "", fmt.Errorf("failed to generate file name, %w", err)
	}

	ext := filepath.Ext(originalName)
	if ext == "" && m != nil {
		ext = m.Extension()
	}

	return fmt.Sprintf("%v-%v-%v%v", FieldName, time.Now().UnixMilli(), suffix, ext), nil
}

// baseName turns a public path back into a bare file name. Anything that
// would point outside the stash root yields ""
func baseName(relPath string) string {
	name := strings.TrimPrefix(relPath, URLPrefix+"/")
	name = path.Base(path.Clean("/" + name))

	if name == "/" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ""
	}

	return name
}
