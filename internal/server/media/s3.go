// Package media hands out presigned S3 URLs for product images, so the
// bytes go straight between the browser and the bucket.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/google/uuid"
)

var ErrNotConfigured = errors.New("media storage is not configured")

// keyPrefix is where NewStorageKey puts uploads; only keys under it can be
// presigned for download.
const keyPrefix = "products/"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	now = time.Now
)

// Config points at an S3-compatible bucket (AWS or MinIO).
type Config struct {
	Region   string
	User     string
	Password string
	Bucket   string
	Endpoint string
	Expiry   time.Duration
}

// Presigner issues short-lived URLs for one object.
type Presigner interface {
	PresignUpload(ctx context.Context) (key, url string, err error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

type S3Presigner struct {
	cfg Config
}

func NewS3Presigner(cfg Config) *S3Presigner {
	if cfg.Expiry <= 0 {
		cfg.Expiry = 15 * time.Minute
	}
	return &S3Presigner{cfg: cfg}
}

// NewStorageKey returns a fresh object key under products/ partitioned by
// upload date.
func NewStorageKey() string {
	d := now()
	return fmt.Sprintf("%s%d/%d/%d/%v", keyPrefix, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (p *S3Presigner) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	if p.cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.cfg.User,
			p.cfg.Password,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if p.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(p.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

func (p *S3Presigner) PresignUpload(ctx context.Context) (string, string, error) {
	pc, err := p.presignClient(ctx)
	if err != nil {
		return "", "", err
	}

	key := NewStorageKey()
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.cfg.Expiry))
	if err != nil {
		return "", "", fmt.Errorf("presign put: %w", err)
	}

	return key, req.URL, nil
}

func (p *S3Presigner) PresignDownload(ctx context.Context, key string) (string, error) {
	key, err := downloadKey(key)
	if err != nil {
		return "", err
	}

	pc, err := p.presignClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.cfg.Expiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}

	return req.URL, nil
}

// downloadKey accepts only keys of the form NewStorageKey produces.
func downloadKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("%w: empty object key", common.ErrValidation)
	}
	if !strings.HasPrefix(key, keyPrefix) || len(key) == len(keyPrefix) {
		return "", fmt.Errorf("%w: object key must be under %s", common.ErrValidation, keyPrefix)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: malformed object key", common.ErrValidation)
		}
	}
	return key, nil
}
