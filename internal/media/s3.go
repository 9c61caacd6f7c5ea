// internal/media/s3.go
package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// presigner is the subset of the S3 presign client used for media URLs.
type presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Resolver serves relative media references as presigned GET URLs from a bucket.
// It falls back to a base resolver when presigning fails.
type S3Resolver struct {
	presign  presigner
	bucket   string
	ttl      time.Duration
	fallback Resolver
}

// NewS3Resolver creates a resolver for an S3-compatible bucket.
// It supports both AWS S3 and S3-compatible services like MinIO.
// Parameters:
//   - endpoint: S3 service endpoint URL (empty for AWS defaults)
//   - region: AWS region (or equivalent for S3-compatible services)
//   - bucket: bucket that holds the media assets
//   - accessKey, secretKey: static credentials (empty to use the default chain)
//   - ttl: lifetime of generated URLs
//   - fallback: resolver used when presigning fails
func NewS3Resolver(endpoint, region, bucket, accessKey, secretKey string, ttl time.Duration, fallback Resolver) (*S3Resolver, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
				}, nil
			})))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing keeps MinIO and other S3-compatible services working
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return newS3Resolver(s3.NewPresignClient(client), bucket, ttl, fallback), nil
}

func newS3Resolver(p presigner, bucket string, ttl time.Duration, fallback Resolver) *S3Resolver {
	return &S3Resolver{presign: p, bucket: bucket, ttl: ttl, fallback: fallback}
}

// Resolve implements Resolver.
func (s *S3Resolver) Resolve(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || IsAbsolute(ref) {
		return ref
	}

	key := strings.TrimLeft(ref, "/")
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.ttl
	})
	if err != nil {
		slog.Warn("media presign failed, using base URL", "key", key, "error", err)
		return s.fallback.Resolve(ctx, ref)
	}
	return req.URL
}
