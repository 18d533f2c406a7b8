// Package aws defines functions used to interact with S3 compatible
// object storage
package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hungrypanda/hub-api/config"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type S3Client struct {
	C        *s3.Client
	Bucket   *string
	region   string
	endpoint string
	public   string
}

// NewS3 connects to the configured bucket and makes sure it exists. A
// custom endpoint switches the client to path-style addressing, which is
// what R2 and MinIO expect.
func NewS3(ctx context.Context, c config.StorageConfig) (*S3Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID,
			c.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(c.Bucket)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = c.Region
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", c.Bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3Client{
		C:        client,
		Bucket:   bucket,
		region:   c.Region,
		endpoint: c.Endpoint,
		public:   c.PublicURL,
	}, nil
}

// PutObject uploads data under key and returns the URL it can be fetched from
func (s *S3Client) PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.C.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        s.Bucket,
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object, %w", err)
	}

	return s.ObjectURL(key), nil
}

// DeletePrefix removes every object whose key starts with prefix and
// returns how many were deleted. List pages hold at most 1000 keys, which
// is also the DeleteObjects batch limit, so each page is one request.
func (s *S3Client) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	p := s3.NewListObjectsV2Paginator(s.C, &s3.ListObjectsV2Input{
		Bucket: s.Bucket,
		Prefix: aws.String(prefix),
	})

	deleted := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("failed to list objects, %w", err)
		}

		if len(page.Contents) == 0 {
			continue
		}

		objects := make([]types.ObjectIdentifier, len(page.Contents))
		for i, o := range page.Contents {
			objects[i] = types.ObjectIdentifier{Key: o.Key}
		}

		out, err := s.C.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: s.Bucket,
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete objects, %w", err)
		}

		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return deleted, fmt.Errorf("failed to delete %d objects, first %s: %s", len(out.Errors), aws.ToString(e.Key), aws.ToString(e.Message))
		}

		deleted += len(objects)
	}

	return deleted, nil
}

// ObjectURL builds the public URL of key. The configured public URL wins,
// then the custom endpoint, then the regular AWS virtual-hosted URL.
func (s *S3Client) ObjectURL(key string) string {
	switch {
	case s.public != "":
		return strings.TrimRight(s.public, "/") + "/" + key
	case s.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), aws.ToString(s.Bucket), key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", aws.ToString(s.Bucket), s.region, key)
	}
}
