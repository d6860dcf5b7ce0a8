package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"io"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds construction parameters for an S3-compatible store (AWS S3
// or MinIO). Empty credentials fall back to the default chain.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store uploads artifacts into a single bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store loads the AWS configuration and builds a client. Extra client
// options are applied after the ones derived from cfg.
func NewS3Store(ctx context.Context, cfg S3Config, optFns ...func(*s3.Options)) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("artifacts: s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("artifacts: load aws config: %w", err)
	}

	opts := append([]func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}, optFns...)

	return &S3Store{client: s3.NewFromConfig(awsCfg, opts...), bucket: cfg.Bucket}, nil
}

func (s *S3Store) Driver() Driver { return DriverS3 }

// Bucket returns the target bucket name.
func (s *S3Store) Bucket() string { return s.bucket }

// Put uploads r as key. Run artifacts are rewritten on reruns, so objects
// are overwritten rather than created once. The body is buffered so the
// request can be signed and retried.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return Object{}, err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return Object{}, fmt.Errorf("artifacts: read %s: %w", clean, err)
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(clean),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Object{}, err
	}
	return Object{
		Key:         clean,
		Size:        int64(len(body)),
		ContentType: contentType,
		Location:    fmt.Sprintf("s3://%s/%s", s.bucket, clean),
	}, nil
}
