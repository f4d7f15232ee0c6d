package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Resolver serves media from an S3-compatible bucket through presigned GET URLs. The
// storage path, without its leading slash, is the object key.
type S3Resolver struct {
	presign *s3.PresignClient
	bucket  string
	expires time.Duration
}

// NewS3Resolver supports both AWS S3 and S3-compatible services like MinIO.
// An empty endpoint uses the AWS default for region.
func NewS3Resolver(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, expires time.Duration) (*S3Resolver, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
				}, nil
			})))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true // Required for MinIO and other S3-compatible services
	})

	if expires <= 0 {
		expires = 15 * time.Minute
	}
	return &S3Resolver{
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		expires: expires,
	}, nil
}

func (r *S3Resolver) URL(ctx context.Context, path string) (string, error) {
	if path == "" {
		return PlaceholderURL, nil
	}
	if isAbsolute(path) {
		return path, nil
	}
	key := strings.TrimPrefix(path, "/")
	res, err := r.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = r.expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return res.URL, nil
}
