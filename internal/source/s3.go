package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/mailcheck/internal/pkg/logger"
)

// S3Config selects the bucket holding uploaded list files.
type S3Config struct {
	Bucket     string
	Region     string
	AWSProfile string
}

// s3ObjectGetter is the one S3 call the source needs. *s3.Client
// satisfies it; tests substitute a fake.
type s3ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads uploaded email-list objects from a bucket.
type S3Source struct {
	client s3ObjectGetter
	bucket string
}

// NewS3Source builds the AWS client from the shared config chain,
// optionally pinned to a named profile.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	var awsCfg aws.Config
	var err error
	if cfg.AWSProfile != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithSharedConfigProfile(cfg.AWSProfile),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &S3Source{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
	}, nil
}

// NewS3SourceWithClient wraps an existing getter, for tests.
func NewS3SourceWithClient(client s3ObjectGetter, bucket string) *S3Source {
	return &S3Source{client: client, bucket: bucket}
}

// Read fetches one object and parses it as an email list.
func (s *S3Source) Read(ctx context.Context, key string) ([]string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3 object %s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	emails, err := Parse(out.Body, filepath.Ext(key))
	if err != nil {
		return nil, err
	}

	logger.Info("loaded email list from s3", "bucket", s.bucket, "key", key, "count", len(emails))
	return emails, nil
}
