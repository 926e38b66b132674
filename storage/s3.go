package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils/logger"
)

// S3 stores blobs in an object bucket. Put uses a conditional write
// (If-None-Match: *) so an existing key is never overwritten.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3(ctx context.Context, storeConfig *types.StoreConfig) (*S3, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(storeConfig.Region),
	}
	if storeConfig.AccessKey != "" && storeConfig.SecretKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(storeConfig.AccessKey, storeConfig.SecretKey, ""),
		))
	} else {
		logger.Info("Using default credential chain (IAM role, instance profile, env vars, or shared config)")
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %s", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if storeConfig.Endpoint != "" {
			o.BaseEndpoint = aws.String(storeConfig.Endpoint)
			// path-style URLs to support MinIO and avoid bucket-based DNS resolution
			o.UsePathStyle = true
		}
	})

	return &S3{
		client: client,
		bucket: storeConfig.Bucket,
		prefix: strings.Trim(storeConfig.Prefix, "/"),
	}, nil
}

func (s *S3) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *S3) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(key)),
		Body:        bytes.NewReader(data),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		if strings.Contains(err.Error(), "PreconditionFailed") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to put object %s: %s", key, err)
	}
	return nil
}

func (s *S3) Get(ctx context.Context, key string) ([]byte, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %s", key, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %s", key, err)
	}
	return data, nil
}

func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object %s: %s", key, err)
	}
	return true, nil
}
