package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	rsconfig "reelsmith/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config contains minimal configuration for creating an S3 client.
// Values are optional and will fall back to the standard AWS config/credential chain.
type S3Config struct {
	// Region to use for requests, e.g. "us-east-1". If empty, AWS defaults apply.
	Region string
	// Profile selects a named shared config/credentials profile. If empty, default chain applies.
	Profile string
	// UsePathStyle forces path-style addressing (useful for some S3-compatible providers).
	UsePathStyle bool
}

// ObjectStore is the narrow surface artifact publishing needs
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string, cacheControl string, acl s3types.ObjectCannedACL) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

// S3 wraps the AWS SDK for Go v2 S3 client with a narrow interface we can mock.
type S3 struct {
	client *s3.Client
}

// NewS3 creates a new S3 wrapper using the default AWS configuration chain,
// with optional overrides from S3Config.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3{client: c}, nil
}

// S3Target is where artifacts of finished runs go
type S3Target struct {
	Store  ObjectStore
	Bucket string
	Prefix string
}

// NewS3TargetFromEnv returns nil when S3_BUCKET is unset.
// Optional: S3_REGION, S3_PROFILE, S3_PREFIX, S3_USE_PATH_STYLE=true
func NewS3TargetFromEnv(ctx context.Context) (*S3Target, error) {
	bucket := strings.TrimSpace(os.Getenv("S3_BUCKET"))
	if bucket == "" {
		return nil, nil
	}

	cfg := S3Config{
		Region:       strings.TrimSpace(os.Getenv("S3_REGION")),
		Profile:      strings.TrimSpace(os.Getenv("S3_PROFILE")),
		UsePathStyle: rsconfig.GetEnvBool("S3_USE_PATH_STYLE", false),
	}
	client, err := NewS3(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Target{Store: client, Bucket: bucket, Prefix: os.Getenv("S3_PREFIX")}, nil
}

// Publish uploads the artifacts of one run
func (t *S3Target) Publish(ctx context.Context, runID string, files ...string) ([]string, error) {
	return PublishArtifacts(ctx, t.Store, t.Bucket, t.Prefix, runID, files...)
}

// Put uploads an object to the given bucket/key.
// If contentType is non-empty, it is set on the object.
func (s *S3) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string, cacheControl string, acl s3types.ObjectCannedACL) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if cacheControl != "" {
		in.CacheControl = aws.String(cacheControl)
	}
	if acl != "" {
		in.ACL = acl
	}

	_, err := s.client.PutObject(ctx, in)
	return err
}

// Head retrieves the object's metadata without returning the body.
func (s *S3) Head(ctx context.Context, bucket, key string) (*s3.HeadObjectOutput, error) {
	return s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
}

// Exists returns true if the object exists (HTTP 200 from HeadObject); false if 404/NotFound.
func (s *S3) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.Head(ctx, bucket, key)
	if err == nil {
		return true, nil
	}

	var respErr *http.ResponseError
	if errors.As(err, &respErr) {
		if respErr.HTTPStatusCode() == 404 {
			return false, nil
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode() == "NotFound" {
			return false, nil
		}
	}

	return false, err
}

// PublishArtifacts uploads files under <prefix>/runs/<runID>/ and returns
// their s3:// URIs. Keys that already exist are left alone.
func PublishArtifacts(ctx context.Context, store ObjectStore, bucket, prefix, runID string, files ...string) ([]string, error) {
	if bucket == "" {
		return nil, fmt.Errorf("no bucket configured")
	}
	var uris []string
	for _, f := range files {
		if f == "" {
			continue
		}
		key := ArtifactKey(prefix, runID, filepath.Base(f))
		exists, err := store.Exists(ctx, bucket, key)
		if err != nil {
			return uris, fmt.Errorf("check %s: %w", key, err)
		}
		if !exists {
			if err := putFile(ctx, store, bucket, key, f); err != nil {
				return uris, err
			}
		}
		uris = append(uris, "s3://"+bucket+"/"+key)
	}
	return uris, nil
}

func putFile(ctx context.Context, store ObjectStore, bucket, key, file string) error {
	fh, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer fh.Close()
	if err := store.Put(ctx, bucket, key, fh, contentTypeOf(file), "private, max-age=0", ""); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// ArtifactKey builds the object key of one run artifact
func ArtifactKey(prefix, runID, name string) string {
	return path.Join(strings.Trim(prefix, "/"), "runs", runID, name)
}

func contentTypeOf(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".mp4":
		return "video/mp4"
	case ".srt":
		return "application/x-subrip"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
