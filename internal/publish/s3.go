package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rtei-org/rtei/internal/contract"
)

const defaultRegion = "us-east-1"

// S3Publisher uploads files to an S3-compatible bucket.
type S3Publisher struct {
	client   *minio.Client
	bucket   string
	prefix   string
	region   string
	initOnce sync.Once
	initErr  error
}

var _ contract.Publisher = &S3Publisher{} // Compile-time check

// NewS3Publisher creates a minio client for the configured endpoint.
func NewS3Publisher(cfg contract.PublishConfig) (*S3Publisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.New("s3 access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		region: region,
	}, nil
}

// ensureBucket creates the bucket on first use.
func (p *S3Publisher) ensureBucket(ctx context.Context) error {
	p.initOnce.Do(func() {
		exists, err := p.client.BucketExists(ctx, p.bucket)
		if err != nil {
			p.initErr = err
			return
		}
		if exists {
			return
		}
		p.initErr = p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region})
	})
	return p.initErr
}

// Publish uploads body as an object and returns its s3:// location.
func (p *S3Publisher) Publish(ctx context.Context, rel string, body []byte, contentType string) (string, error) {
	key, err := p.objectKey(rel)
	if err != nil {
		return "", err
	}
	if err := p.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}
	if contentType == "" {
		contentType = ContentType(rel)
	}
	_, err = p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", p.bucket, key), nil
}

// Name identifies the destination in logs.
func (p *S3Publisher) Name() string {
	return fmt.Sprintf("s3:%s/%s", p.bucket, p.prefix)
}

// objectKey joins the configured prefix and the cleaned relative path.
func (p *S3Publisher) objectKey(rel string) (string, error) {
	key, err := cleanKey(rel)
	if err != nil {
		return "", err
	}
	if p.prefix == "" {
		return key, nil
	}
	return p.prefix + "/" + key, nil
}
