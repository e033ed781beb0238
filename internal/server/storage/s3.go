// Package storage is the durable object-store gateway. Objects are keyed
// "{userId}/{filename}" so per-user usage can be aggregated by prefix.
package storage

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"filedepot/internal/logging"
)

// Options carries the settings needed to reach the S3-compatible backend.
type Options struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	// BaseEndpoint points at a custom S3-compatible server (MinIO). Leave
	// empty for AWS proper.
	BaseEndpoint string
}

// Gateway wraps the S3 client with the operations the pipeline needs.
type Gateway struct {
	client  *s3.Client
	bucket  string
	baseURL string
	logger  logging.Logger
}

// seam for testing client construction
var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewGateway builds a gateway with static credentials, optionally pointed
// at a custom endpoint.
func NewGateway(ctx context.Context, opts Options, logger logging.Logger) (*Gateway, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &Gateway{
		client:  client,
		bucket:  opts.Bucket,
		baseURL: baseURL(opts),
		logger:  logger.With("module", "storage"),
	}, nil
}

// baseURL computes the stable prefix of object locations: path-style for
// custom endpoints, virtual-hosted for AWS.
func baseURL(opts Options) string {
	if opts.BaseEndpoint != "" {
		return strings.TrimSuffix(opts.BaseEndpoint, "/") + "/" + opts.Bucket + "/"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", opts.Bucket, opts.Region)
}

// Upload writes the content under key and returns the object's location URL.
func (g *Gateway) Upload(ctx context.Context, key string, r io.Reader) (string, error) {
	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return "", fmt.Errorf("putting object %s: %w", key, err)
	}

	location := g.baseURL + key
	g.logger.Info(ctx, "object stored", "key", key, "location", location)
	return location, nil
}

// Download opens the object identified by its location URL.
func (g *Gateway) Download(ctx context.Context, location string) (io.ReadCloser, error) {
	key, err := g.keyFromLocation(location)
	if err != nil {
		return nil, err
	}

	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting object %s: %w", key, err)
	}

	return out.Body, nil
}

// PrefixSize sums the sizes of all objects under prefix. A listing failure
// reports maximal usage rather than an error, so quota admission fails
// closed instead of letting uploads through unmetered.
func (g *Gateway) PrefixSize(ctx context.Context, prefix string) (int64, error) {
	var total int64

	paginator := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			g.logger.Error(ctx, "failed to aggregate prefix size", "prefix", prefix, "error", err)
			return math.MaxInt64, nil
		}
		for _, obj := range page.Contents {
			total += aws.ToInt64(obj.Size)
		}
	}

	return total, nil
}

// Delete removes the given keys from the bucket.
func (g *Gateway) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(k)})
	}

	_, err := g.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(g.bucket),
		Delete: &types.Delete{Objects: objects},
	})
	if err != nil {
		return fmt.Errorf("deleting objects: %w", err)
	}

	return nil
}

func (g *Gateway) keyFromLocation(location string) (string, error) {
	key := strings.TrimPrefix(location, g.baseURL)
	if key == location || key == "" {
		return "", fmt.Errorf("location %q does not belong to this bucket", location)
	}
	return key, nil
}
