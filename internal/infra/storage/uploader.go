package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

type Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UsePathStyle  bool
}

// Object is a stored upload. URL is empty for private buckets.
type Object struct {
	Key string
	URL string
}

// Uploader writes private objects (KYC documents) to S3-compatible storage.
type Uploader struct {
	cfg    Config
	client *s3.Client
	now    func() time.Time
}

func NewUploader(cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 region is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are required")
	}

	options := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &Uploader{cfg: cfg, client: s3.New(options), now: time.Now}, nil
}

// Upload stores data under <prefix>/<yyyy>/<mm>/<dd>/<uuid><ext>.
func (u *Uploader) Upload(ctx context.Context, prefix string, data []byte, contentType, ext string) (Object, error) {
	if len(data) == 0 {
		return Object{}, fmt.Errorf("no data to upload")
	}

	key := ObjectKey(prefix, u.now().UTC(), uuid.NewString(), ext)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(u.cfg.Bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(data),
		ContentType:          aws.String(contentType),
		ACL:                  types.ObjectCannedACLPrivate,
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return Object{}, fmt.Errorf("upload to s3: %w", err)
	}

	obj := Object{Key: key}
	if u.cfg.PublicBaseURL != "" {
		obj.URL = strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + key
	}
	return obj, nil
}

func ObjectKey(prefix string, at time.Time, id, ext string) string {
	return path.Join(strings.Trim(prefix, "/"), fmt.Sprintf("%04d/%02d/%02d", at.Year(), at.Month(), at.Day()), id+ext)
}
