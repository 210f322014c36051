package gcs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/visionops/camsight/internal/core/domain"
)

const signedURLTTL = 60 * time.Minute

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type Config struct {
	Bucket string
	Prefix string
}

// Source serves the image corpus from a Google Cloud Storage bucket. Object
// names are the stable image ids; locators are V4 signed URLs minted on
// demand so the vision API can fetch frames without bucket credentials.
type Source struct {
	client *storage.Client
	bucket string
	prefix string
}

func New(client *storage.Client, cfg Config) (*Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs: bucket name is required")
	}
	return &Source{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *Source) List(ctx context.Context) ([]domain.ImageRef, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix})

	var refs []domain.ImageRef
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs: list bucket %s: %w", s.bucket, err)
		}
		if !imageExtensions[strings.ToLower(path.Ext(attrs.Name))] {
			continue
		}
		refs = append(refs, domain.ImageRef{
			ID:          attrs.Name,
			DisplayName: path.Base(attrs.Name),
		})
	}
	return refs, nil
}

// Resolve mints a signed URL for the object. When signing is unavailable
// (e.g. credentials without a private key) it falls back to the public URL,
// which works for publicly readable buckets.
func (s *Source) Resolve(ctx context.Context, id string) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(id, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(signedURLTTL),
	})
	if err != nil {
		slog.Warn("gcs_signed_url_fallback", "object", id, "error", err)
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, id), nil
	}
	return url, nil
}

func (s *Source) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.bucket).Object(id).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: open object %s: %w", id, err)
	}
	return reader, nil
}
