package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dd0wney/ranroutes/pkg/catalog"
	"github.com/dd0wney/ranroutes/pkg/logging"
	"github.com/dd0wney/ranroutes/pkg/metrics"
)

// S3API is the part of the S3 client the store uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures an S3Store
type S3Options struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // S3-compatible endpoint; path-style addressing is used when set
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store keeps snappy-compressed catalogs as objects <prefix>/<key>.json.sz
type S3Store struct {
	client S3API
	bucket string
	prefix string
	closed atomic.Bool
	inst   instrument
}

// NewS3Store builds an S3 client from the default credential chain, or from
// static keys when both are set
func NewS3Store(ctx context.Context, opts S3Options, reg *metrics.Registry, logger logging.Logger) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	loadOpts := make([]func(*awsconfig.LoadOptions) error, 0, 2)
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StoreWithClient(client, opts.Bucket, opts.Prefix, reg, logger), nil
}

// NewS3StoreWithClient wraps an existing client
func NewS3StoreWithClient(client S3API, bucket, prefix string, reg *metrics.Registry, logger logging.Logger) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		inst:   newInstrument(BackendS3, reg, logger),
	}
}

// ObjectKey returns the object name a catalog key is stored under
func (s *S3Store) ObjectKey(key string) string {
	return path.Join(s.prefix, key+".json"+catalog.CompressedSuffix)
}

// Save uploads the catalog, replacing any previous object
func (s *S3Store) Save(ctx context.Context, key string, cat *catalog.Catalog) error {
	start := time.Now()
	return s.inst.done(opSave, key, start, s.save(ctx, key, cat))
}

func (s *S3Store) save(ctx context.Context, key string, cat *catalog.Catalog) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := catalog.ExportCompressed(&buf, cat.Routes()); err != nil {
		return err
	}
	size := buf.Len()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.ObjectKey(key)),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-snappy"),
		Metadata:    map[string]string{"run-id": cat.RunID().String()},
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	s.inst.payload(opSave, size)
	return nil
}

// Load downloads the catalog stored under key
func (s *S3Store) Load(ctx context.Context, key string) (*catalog.Catalog, error) {
	start := time.Now()
	cat, err := s.load(ctx, key)
	return cat, s.inst.done(opLoad, key, start, err)
}

func (s *S3Store) load(ctx context.Context, key string) (*catalog.Catalog, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.ObjectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	s.inst.payload(opLoad, len(data))
	return catalog.ImportCompressed(bytes.NewReader(data))
}

// Close marks the store closed; the S3 client holds no resources to release
func (s *S3Store) Close() error {
	s.closed.Store(true)
	return nil
}
