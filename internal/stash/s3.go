package stash

import (
	a "bitwise74/user-api/aws"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// S3 keeps files in a bucket and redirects reads to a public URL in
// front of it (CDN, R2 public bucket and so on)
type S3 struct {
	client    *a.S3Client
	uploader  *manager.Uploader
	prefix    string
	publicURL string
}

func NewS3(c *a.S3Client, prefix, publicURL string) *S3 {
	return &S3{
		client: c,
		uploader: manager.NewUploader(c.C, func(u *manager.Uploader) {
			u.Concurrency = 3
			u.PartSize = 5 << 20
		}),
		prefix:    strings.Trim(prefix, "/"),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *S3) key(name string) string {
	if s.prefix == "" {
		return name
	}

	return path.Join(s.prefix, name)
}

func (s *S3) Store(ctx context.Context, r io.Reader, originalName string) (string, error) {
	m, body, err := sniff(r)
	if err != nil {
		return "", err
	}

	name, err := makeName(originalName, m)
	if err != nil {
		return "", err
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       s.client.Bucket,
		Key:          aws.String(s.key(name)),
		Body:         body,
		ContentType:  aws.String(m.String()),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3, %w", err)
	}

	zap.L().Debug("Uploaded file", zap.String("key", s.key(name)))

	return URLPrefix + "/" + name, nil
}

// Remove relies on S3 treating deletes of missing keys as successful
func (s *S3) Remove(ctx context.Context, relPath string) error {
	name := baseName(relPath)
	if name == "" {
		return nil
	}

	_, err := s.client.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.client.Bucket,
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3, %w", err)
	}

	return nil
}

func (s *S3) Mount(r gin.IRoutes) {
	r.GET(URLPrefix+"/*filepath", func(c *gin.Context) {
		name := baseName(c.Param("filepath"))
		if name == "" {
			c.Status(http.StatusNotFound)
			return
		}

		c.Redirect(http.StatusFound, s.publicURL+"/"+s.key(name))
	})
}
