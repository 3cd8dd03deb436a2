package sink

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"itransfer/internal/config"
)

// objectUploader is the subset of *manager.Uploader used by S3Sink.
type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Sink uploads payloads to a bucket using the multipart upload manager.
type S3Sink struct {
	name     string
	bucket   string
	prefix   string
	uploader objectUploader
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// NewS3Sink builds an S3 client from cfg. S3Endpoint selects an
// S3-compatible store and switches to path-style addressing.
func NewS3Sink(ctx context.Context, cfg config.SinkConfig) (*S3Sink, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 sink requires s3_bucket to be set")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Sink(cfg.Name, cfg.S3Bucket, cfg.S3Prefix, manager.NewUploader(client)), nil
}

func newS3Sink(name, bucket, prefix string, uploader objectUploader) *S3Sink {
	return &S3Sink{name: name, bucket: bucket, prefix: prefix, uploader: uploader}
}

func (s *S3Sink) Name() string { return s.name }

// Put uploads the payload to <prefix>/<name>.
func (s *S3Sink) Put(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	key := s.key(name)
	counter := &countingReader{r: r}

	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   counter,
	})
	if err != nil {
		return "", fmt.Errorf("uploading to s3://%s/%s: %w", s.bucket, key, err)
	}
	if err := checkSize(size, counter.n); err != nil {
		return "", err
	}
	if out != nil && out.Location != "" {
		return out.Location, nil
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// ValidateSetup only checks the static configuration; bucket access is
// verified on first upload.
func (s *S3Sink) ValidateSetup() error {
	if s.bucket == "" {
		return fmt.Errorf("s3 bucket not set")
	}
	return nil
}

func (s *S3Sink) key(name string) string {
	base := path.Base(path.Clean("/" + name))
	if s.prefix == "" {
		return base
	}
	return path.Join(s.prefix, base)
}

var _ Sink = (*S3Sink)(nil)
