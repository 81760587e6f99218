package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const s3DeleteBatchSize = 1000

// S3Options configures an S3-compatible blob backend. Endpoint is optional
// and enables R2/MinIO style deployments.
type S3Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	KeyPrefix       string
}

// S3 stores blob bytes in an S3-compatible bucket.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 creates an S3 blob store from static credentials.
func NewS3(opts S3Options) (*S3, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	cfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Region:      region,
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{client: client, bucket: opts.Bucket, prefix: normalizeS3Prefix(opts.KeyPrefix)}, nil
}

// Put uploads one object. The declared size becomes the Content-Length, which
// lets the SDK stream non-seekable readers.
func (s *S3) Put(ctx context.Context, key string, r io.Reader, size int64) (int64, error) {
	if s == nil || s.client == nil {
		return 0, fmt.Errorf("blob store is not configured")
	}
	objectKey, err := s.objectKey(key)
	if err != nil {
		return 0, err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          r,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}

// Open returns the object body reader.
func (s *S3) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	objectKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	return out.Body, nil
}

// DeletePrefix lists and batch-deletes every object under the prefix.
func (s *S3) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if s == nil || s.client == nil {
		return 0, fmt.Errorf("blob store is not configured")
	}
	objectPrefix, err := s.objectKey(prefix)
	if err != nil {
		return 0, err
	}
	objectPrefix += "/"

	deleted := 0
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(objectPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, err
		}
		if len(page.Contents) == 0 {
			continue
		}

		objects := make([]s3types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, s3types.ObjectIdentifier{Key: obj.Key})
		}
		for start := 0; start < len(objects); start += s3DeleteBatchSize {
			end := min(start+s3DeleteBatchSize, len(objects))
			out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &s3types.Delete{Objects: objects[start:end], Quiet: aws.Bool(true)},
			})
			if err != nil {
				return deleted, err
			}
			deleted += end - start - len(out.Errors)
		}
	}
	return deleted, nil
}

func (s *S3) objectKey(key string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("blob key is required")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key")
	}
	if s.prefix == "" {
		return key, nil
	}
	return s.prefix + "/" + key, nil
}

func normalizeS3Prefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}
