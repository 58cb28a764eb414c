package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"sirlizard/language-for-you/internal/config"
)

type s3ObjectStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	buckets map[string]string
	expiry  time.Duration
}

// NewS3ObjectStore maps the logical buckets onto the configured S3 buckets.
// A base endpoint switches the client to path-style addressing for MinIO
// and LocalStack.
func NewS3ObjectStore(ctx context.Context, cfg config.S3Config) (ObjectStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &s3ObjectStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		buckets: map[string]string{
			BucketSharedFiles:     cfg.FilesBucket,
			BucketProfilePictures: cfg.PicturesBucket,
		},
		expiry: cfg.URLExpiry,
	}, nil
}

func (s *s3ObjectStore) bucket(name string) (string, error) {
	b, ok := s.buckets[name]
	if !ok || b == "" {
		return "", fmt.Errorf("unknown bucket %q", name)
	}
	return b, nil
}

func (s *s3ObjectStore) Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	b, err := s.bucket(bucket)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(b),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put object %s/%s: %w", b, key, err)
	}
	return nil
}

func (s *s3ObjectStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	b, err := s.bucket(bucket)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(b), Key: aws.String(key)})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%s/%s: %w", b, key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s/%s: %w", b, key, err)
	}
	return out.Body, nil
}

func (s *s3ObjectStore) Delete(ctx context.Context, bucket, key string) error {
	b, err := s.bucket(bucket)
	if err != nil {
		return err
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(b), Key: aws.String(key)}); err != nil {
		return fmt.Errorf("failed to delete object %s/%s: %w", b, key, err)
	}
	return nil
}

func (s *s3ObjectStore) URL(ctx context.Context, bucket, key string) (string, error) {
	b, err := s.bucket(bucket)
	if err != nil {
		return "", err
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s/%s: %w", b, key, err)
	}
	return req.URL, nil
}
