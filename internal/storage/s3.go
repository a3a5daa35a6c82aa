package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3Options configures NewS3Store.
type S3Options struct {
	Bucket       string
	Region       string
	Endpoint     string // optional custom endpoint; empty uses AWS
	AccessKey    string // empty falls back to the default credential chain (IAM role)
	SecretKey    string
	UsePathStyle bool
	PublicACL    bool
	PublicBase   string
}

// S3Store implements ObjectStore against AWS S3.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicACL bool
	urls      URLBuilder
	log       zerolog.Logger
}

// NewS3Store loads AWS configuration and returns an S3-backed store.
func NewS3Store(ctx context.Context, opts S3Options, log zerolog.Logger) (*S3Store, error) {
	logger := log.With().Str("component", "s3-storage").Logger()

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if strings.TrimSpace(opts.AccessKey) != "" && strings.TrimSpace(opts.SecretKey) != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	} else {
		logger.Info().Msg("no static S3 credentials configured, using default credential chain")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &S3Store{
		client:    client,
		bucket:    opts.Bucket,
		publicACL: opts.PublicACL,
		urls:      NewURLBuilder(opts.Bucket, opts.Region, opts.PublicBase),
		log:       logger,
	}, nil
}

// Upload puts body under key with a public-read ACL when configured.
func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if s.publicACL {
		input.ACL = types.ObjectCannedACLPublicRead
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}
	return s.urls.PublicURL(key), nil
}

// Delete removes key. S3 treats deletes of missing keys as success.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	var nsk *types.NoSuchKey
	if err != nil && !errors.As(err, &nsk) {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

// List pages through ListObjectsV2 for prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return stripPrefix(prefix, keys), nil
}

// BuildURL returns the public URL for name in folder.
func (s *S3Store) BuildURL(name, folder string) string {
	return s.urls.BuildURL(name, folder)
}

// Health checks that the bucket is reachable.
func (s *S3Store) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
