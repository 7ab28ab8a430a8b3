// Package s3_client uploads listing images to an S3 bucket, as an
// alternative to the unsigned Cloudinary upload.
package s3_client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/models"
)

// Putter is the part of the S3 API the uploader needs.
type Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Client struct {
	api           Putter
	bucket        string
	region        string
	folder        string
	publicBaseURL string
}

// NewS3Client loads the default AWS configuration. AWS_ENDPOINT_URL, when set,
// points the client at a local S3 (path-style addressing).
func NewS3Client(ctx context.Context, region, bucket, folder string) (*S3Client, error) {
	cfg, err := awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := os.Getenv("AWS_ENDPOINT_URL")
	api := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	c := NewS3ClientWithAPI(api, region, bucket, folder)
	if endpoint != "" {
		c.publicBaseURL = strings.TrimRight(endpoint, "/") + "/" + bucket
	}
	return c, nil
}

// NewS3ClientWithAPI wraps an existing API implementation
func NewS3ClientWithAPI(api Putter, region, bucket, folder string) *S3Client {
	return &S3Client{
		api:    api,
		bucket: bucket,
		region: region,
		folder: strings.Trim(folder, "/"),
	}
}

// SetPublicBaseURL overrides the URL prefix returned for uploaded objects
func (c *S3Client) SetPublicBaseURL(base string) {
	c.publicBaseURL = strings.TrimRight(base, "/")
}

// BuildKey returns folder/<ulid><ext> for a file.
func (c *S3Client) BuildKey(file models.FileHandle) string {
	return path.Join(c.folder, ulid.Make().String()+extensionFor(file))
}

// Upload puts the file and returns its public URL.
func (c *S3Client) Upload(ctx context.Context, file models.FileHandle) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", file.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file.Name(), err)
	}

	key := c.BuildKey(file)
	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(file.MIMEType()),
		Metadata: map[string]string{
			"original_name": file.Name(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	objectURL := c.ObjectURL(key)
	log.Debug().
		Str("file", file.Name()).
		Str("bucket", c.bucket).
		Str("key", key).
		Msg("image uploaded to s3")
	return objectURL, nil
}

// ObjectURL returns the public URL for key
func (c *S3Client) ObjectURL(key string) string {
	if c.publicBaseURL != "" {
		return c.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}

func extensionFor(file models.FileHandle) string {
	if ext := strings.ToLower(filepath.Ext(file.Name())); ext != "" {
		return ext
	}
	mediaType, _, _ := mime.ParseMediaType(file.MIMEType())
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
