package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"

	"dataroom/internal/config"
	"dataroom/internal/dataroom"
)

// sniffLen is how many leading bytes feed content-type detection.
const sniffLen = 3072

// S3Store is an ObjectStore backed by an S3 bucket, or any S3-compatible
// endpoint such as MinIO. Uploads go through the SDK's transfer manager so
// large files are sent in parts; listings paginate until the bucket
// reports completion. An optional key prefix scopes all operations to a
// sub-tree of the bucket.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Store creates an S3Store from the store configuration. Credentials
// come from the config when set, otherwise from the default AWS chain
// (environment, shared config, instance role).
func NewS3Store(ctx context.Context, cfg config.StoreConfig) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 store requires s3_bucket to be set")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.S3Bucket,
		prefix:   cfg.S3Prefix,
	}, nil
}

// List fetches every object under prefix, following pagination until the
// bucket reports no more pages.
func (s *S3Store) List(ctx context.Context, prefix string) ([]dataroom.FileRecord, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + prefix),
	})

	var records []dataroom.FileRecord
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apiError("list", err)
		}
		for _, obj := range page.Contents {
			records = append(records, dataroom.FileRecord{
				Path:         strings.TrimPrefix(aws.ToString(obj.Key), s.prefix),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
				ETag:         aws.ToString(obj.ETag),
			})
		}
	}
	return records, nil
}

// Put streams the content read from r to the bucket through the transfer
// manager. The head of the stream is sniffed for the content type, then
// stitched back so the full body is sent.
func (s *S3Store) Put(ctx context.Context, path string, r io.Reader, size int64, progress dataroom.ProgressFunc) error {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("reading upload content: %w", err)
	}
	contentType := mimetype.Detect(head[:n]).String()
	body := io.MultiReader(bytes.NewReader(head[:n]), r)

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + path),
		Body:        newProgressReader(body, size, progress),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return apiError("put", err)
	}
	return nil
}

// Delete removes the object at path. S3 treats deleting a missing key as
// success, and so does this store.
func (s *S3Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + path),
	})
	if err != nil {
		return apiError("delete", err)
	}
	return nil
}

// apiError keeps S3 failures readable when they cross into the core: API
// errors carry their service code, everything else is wrapped as-is.
func apiError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("s3 %s: %s: %s", op, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("s3 %s: %w", op, err)
}

// Compile-time check that S3Store implements the ObjectStore interface
var _ dataroom.ObjectStore = (*S3Store)(nil)
