package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/gemeenteweb/server/internal/config"
)

// Store writes uploaded files to object storage and returns the URL
// the site serves them from.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

var _ Store = (*S3Store)(nil)

// S3Store stores objects in S3-compatible storage. Path-style addressing
// is used so Hetzner and MinIO endpoints work alongside AWS.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3Store(cfg config.StorageConfig) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.KeyID == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("s3 config is incomplete")
	}

	endpoint := cfg.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	client := s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.KeyID, cfg.Secret, "",
		),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = endpoint + "/" + cfg.Bucket
	}

	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}
	return s.ObjectURL(key), nil
}

// ObjectURL joins the public base URL with an object key, escaping each
// path segment.
func (s *S3Store) ObjectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return s.publicURL + "/" + strings.Join(segments, "/")
}
