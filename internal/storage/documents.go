// Package storage keeps identity document scans in S3-compatible object
// storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	ErrNotConfigured   = errors.New("document storage is not configured")
	ErrEmptyDocument   = errors.New("document is empty")
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrTooLarge        = errors.New("document is too large")
)

// MaxDocumentSize bounds a single scan upload.
const MaxDocumentSize = 10 << 20

var allowedContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
	// PathStyle addresses objects as endpoint/bucket/key. Only applies to a
	// custom endpoint.
	PathStyle bool
}

// ObjectAPI is the subset of the S3 client used here.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Documents struct {
	client     ObjectAPI
	bucket     string
	publicBase string
}

// NewS3Client builds an S3 client for the configured endpoint. An empty
// endpoint uses AWS itself.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		}
	}), nil
}

func NewDocuments(client ObjectAPI, bucket, publicBase string) *Documents {
	return &Documents{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// DocumentKey is the object key of one side of a person's ID document.
func DocumentKey(contractID, personID, side, ext string) string {
	return path.Join("contracts", contractID, "persons", personID, "document-"+side+ext)
}

// UploadDocument stores one side of an ID document and returns its URL.
func (d *Documents) UploadDocument(ctx context.Context, contractID, personID, side, contentType string, body io.Reader, size int64) (string, error) {
	if d == nil || d.client == nil {
		return "", ErrNotConfigured
	}
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnsupportedType, contentType)
	}
	if size <= 0 {
		return "", ErrEmptyDocument
	}
	if size > MaxDocumentSize {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, MaxDocumentSize)
	}

	key := DocumentKey(contractID, personID, side, ext)
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}
	return d.objectURL(key), nil
}

// DeleteDocument removes the object behind a URL returned by UploadDocument.
func (d *Documents) DeleteDocument(ctx context.Context, fileURL string) error {
	if d == nil || d.client == nil {
		return ErrNotConfigured
	}
	u, err := url.Parse(fileURL)
	if err != nil {
		return fmt.Errorf("invalid document url: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if base, err := url.Parse(d.publicBase); err == nil {
		key = strings.TrimPrefix(key, strings.Trim(base.Path, "/")+"/")
	}

	_, err = d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (d *Documents) objectURL(key string) string {
	escaped := make([]string, 0, 6)
	for _, part := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return d.publicBase + "/" + strings.Join(escaped, "/")
}
