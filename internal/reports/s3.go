package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/jonathan/skillbridge/internal/types"
)

// ObjectAPI is the subset of the S3 client the store uses
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config locates the bucket. Endpoint is set for S3-compatible services (R2, MinIO).
type S3Config struct {
	Bucket    string `json:"bucket" yaml:"bucket"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	AccessKey string `json:"-" yaml:"-"`
	SecretKey string `json:"-" yaml:"-"`
	PathStyle bool   `json:"path_style,omitempty" yaml:"path_style,omitempty"`
}

// S3Store keeps each report as one JSON object in a bucket
type S3Store struct {
	client ObjectAPI
	bucket string
	prefix string
}

// NewS3Store builds an S3 client from cfg. Static credentials are used when both keys
// are set; otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return NewS3StoreWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3StoreWithClient creates a store over an existing client
func NewS3StoreWithClient(client ObjectAPI, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) objectKey(id ID) string {
	return s.prefix + Key(id) + ".json"
}

// Save implements Store. The write is conditional so an existing object is never replaced.
func (s *S3Store) Save(ctx context.Context, result *types.AnalysisResult) (ID, error) {
	data, err := encode(result)
	if err != nil {
		return "", err
	}

	id := NewID()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(id)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		if isS3Capacity(err) {
			return "", &StoreError{Kind: KindCapacityExceeded, Cause: err}
		}
		return "", fmt.Errorf("failed to upload report %s: %w", id, err)
	}
	return id, nil
}

// Load implements Store
func (s *S3Store) Load(ctx context.Context, id ID) (*types.AnalysisResult, error) {
	id, ok := canonical(id)
	if !ok {
		return nil, nil
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to download report %s: %w", id, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", id, err)
	}
	return decode(id, data)
}

// Close is a no-op; the S3 client holds no resources that need releasing
func (s *S3Store) Close() error {
	return nil
}

func isS3NotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func isS3Capacity(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "EntityTooLarge", "QuotaExceeded", "StorageFull", "XMinioStorageFull", "InsufficientStorage":
		return true
	}
	return false
}
