// Package share publishes artifacts to S3-compatible storage and returns
// presigned download links.
package share

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/porticus-lab/filekit"
)

// DefaultExpiry is how long presigned links stay valid.
const DefaultExpiry = 24 * time.Hour

// S3Config configures an S3Sharer.
type S3Config struct {
	// Bucket is the bucket name (required).
	Bucket string
	// Prefix is prepended to object keys.
	Prefix string
	// Region is the AWS region; empty uses the default chain.
	Region string
	// Endpoint overrides the S3 endpoint for compatible providers (MinIO, R2).
	Endpoint string
	// UsePathStyle forces path-style addressing.
	UsePathStyle bool
	// Expiry is the presigned link lifetime.
	Expiry time.Duration
}

// Validate checks required fields.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("share: S3 bucket is required")
	}
	return nil
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type getPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Sharer uploads artifact parts and returns presigned GET links. It
// implements filekit.Sharer.
type S3Sharer struct {
	cfg     S3Config
	put     objectPutter
	presign getPresigner
	log     *zap.Logger
}

// NewS3Sharer loads AWS configuration from the default credential chain.
func NewS3Sharer(ctx context.Context, cfg S3Config, log *zap.Logger) (*S3Sharer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("share: loading AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return newS3Sharer(cfg, client, s3.NewPresignClient(client), log), nil
}

func newS3Sharer(cfg S3Config, put objectPutter, presign getPresigner, log *zap.Logger) *S3Sharer {
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &S3Sharer{cfg: cfg, put: put, presign: presign, log: log.Named("share")}
}

// Share uploads every part under <prefix>/<artifact id>/ and returns the
// presigned links, one per line, in part order.
func (s *S3Sharer) Share(ctx context.Context, a *filekit.Artifact) (string, error) {
	if len(a.Parts) == 0 {
		return "", errors.New("share: artifact has no parts")
	}
	links := make([]string, 0, len(a.Parts))
	for _, p := range a.Parts {
		key := s.key(a.ID, p.Name)
		_, err := s.put.PutObject(ctx, &s3.PutObjectInput{
			Bucket:             aws.String(s.cfg.Bucket),
			Key:                aws.String(key),
			Body:               bytes.NewReader(p.Data),
			ContentType:        aws.String(p.MediaType),
			ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", p.Name)),
		})
		if err != nil {
			return "", fmt.Errorf("share: uploading %s: %w", key, err)
		}
		req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(s.cfg.Expiry))
		if err != nil {
			return "", fmt.Errorf("share: presigning %s: %w", key, err)
		}
		s.log.Debug("part shared", zap.String("key", key), zap.Int("bytes", len(p.Data)))
		links = append(links, req.URL)
	}
	return strings.Join(links, "\n"), nil
}

func (s *S3Sharer) key(id, name string) string {
	return path.Join(s.cfg.Prefix, id, path.Base(name))
}
