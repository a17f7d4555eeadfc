package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/joeyyy09/clinical-flow/internal/config"
	apperrors "github.com/joeyyy09/clinical-flow/internal/errors"
)

const s3Scheme = "s3://"

// S3API is the subset of the S3 client used by S3Source
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source lists and reads workbooks stored under s3://bucket/prefix roots
type S3Source struct {
	client S3API
}

// NewS3Source wraps an S3 client
func NewS3Source(client S3API) *S3Source {
	return &S3Source{client: client}
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// A custom endpoint (MinIO, LocalStack) usually needs path-style addressing.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, apperrors.NewConfigError("unable to load AWS SDK config", err)
	}

	opts := s3.Options{
		Region:       awsCfg.Region,
		Credentials:  awsCfg.Credentials,
		HTTPClient:   awsCfg.HTTPClient,
		BaseEndpoint: awsCfg.BaseEndpoint,
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return s3.New(opts), nil
}

// ParseS3URI splits s3://bucket/prefix into its parts
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsS3URI(uri) {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 uri without bucket: %q", uri)
	}
	return bucket, key, nil
}

// List pages through every object under the root. The root's key is a
// folder boundary: s3://b/data covers data/... and the object data itself,
// never database/.... An empty listing or a missing bucket counts as a
// missing root.
func (s *S3Source) List(ctx context.Context, root string) ([]FileInfo, error) {
	bucket, prefix, err := ParseS3URI(root)
	if err != nil {
		return nil, apperrors.NewSourceError("invalid root", err)
	}

	var files []FileInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			var noBucket *types.NoSuchBucket
			if errors.As(err, &noBucket) {
				return nil, fmt.Errorf("%s: %w", root, ErrRootNotFound)
			}
			return nil, apperrors.NewSourceError("cannot list root", err).WithContext("root", root)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") || !underRoot(key, prefix) {
				continue
			}
			files = append(files, FileInfo{
				Path:    s3Scheme + bucket + "/" + key,
				Name:    path.Base(key),
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", root, ErrRootNotFound)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func underRoot(key, prefix string) bool {
	if prefix == "" || strings.HasSuffix(prefix, "/") || key == prefix {
		return true
	}
	return strings.HasPrefix(key, prefix+"/")
}

// ReadFile downloads one object
func (s *S3Source) ReadFile(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", uri, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", uri, err)
	}
	return data, nil
}
