package sink

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/chaz8081/scraper/internal/config"
)

// objectPutter is the part of *s3.Client the sink uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// compile-time checks
var (
	_ Sink         = (*S3)(nil)
	_ Sink         = (*File)(nil)
	_ objectPutter = (*s3.Client)(nil)
)

// S3 uploads each document as an object in a bucket (or MinIO).
//
// Object layout:
//
//	<prefix><basename of the output path>
type S3 struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3 creates an S3 sink using the default AWS credential chain.
func NewS3(ctx context.Context, cfg config.S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("sink: s3 bucket is required")
	}

	optFns := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("sink: load aws config: %w", err)
	}

	s3Opts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}

	return &S3{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *S3) key(name string) string {
	return path.Clean(s.prefix + filepath.Base(name))
}

// Write uploads text to <prefix><basename(name)>.
func (s *S3) Write(ctx context.Context, name, text string) error {
	key := s.key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(text),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("sink: put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no per-sink resources.
func (s *S3) Close() error {
	return nil
}
