// Package media uploads post attachments to S3-compatible object storage.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/pkg/config"
)

// MaxUploadSize is the largest accepted attachment
const MaxUploadSize = 3 << 20

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store persists an attachment and returns the reference a post carries
type Store interface {
	Put(ctx context.Context, ownerID, contentType string, r io.Reader) (string, error)
}

// PutObjectAPI is the part of the S3 client S3Store needs
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Store struct {
	Client    PutObjectAPI
	Bucket    string
	PublicURL string
}

// NewS3Store builds an S3 client for cfg. Without an explicit endpoint the
// Cloudflare R2 endpoint of cfg.AccountID is used.
func NewS3Store(cfg config.MediaConfig) *S3Store {
	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	opts := s3.Options{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}

	return &S3Store{
		Client:    s3.New(opts),
		Bucket:    cfg.Bucket,
		PublicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}
}

// Put uploads an image owned by ownerID and returns its public URL
func (s *S3Store) Put(ctx context.Context, ownerID, contentType string, r io.Reader) (string, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperr.Validation("unsupported media type %q", contentType)
	}
	if ownerID == "" {
		return "", apperr.ErrUnauthenticated
	}

	body, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return "", apperr.Validation("reading upload: %v", err)
	}
	if len(body) == 0 {
		return "", apperr.Validation("upload is empty")
	}
	if len(body) > MaxUploadSize {
		return "", apperr.Validation("upload exceeds %d bytes", MaxUploadSize)
	}

	key := fmt.Sprintf("media/%s/%s%s", ownerID, uuid.NewString(), extensions[contentType])
	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", apperr.Transient("media.Put", err)
	}

	return fmt.Sprintf("%s/%s", s.PublicURL, key), nil
}
