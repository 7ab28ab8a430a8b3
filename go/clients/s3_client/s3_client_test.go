package s3_client

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mcdev12/gavel/go/internal/staging"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	b, _ := io.ReadAll(params.Body)
	f.body = string(b)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestUploadPutsObjectUnderFolder(t *testing.T) {
	api := &fakePutter{}
	c := NewS3ClientWithAPI(api, "us-east-1", "listings", "/auction_app/images/")

	u, err := c.Upload(context.Background(), staging.NewMemoryFile("Lamp.JPG", []byte("jpegdata"), "image/jpeg"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	key := aws.ToString(api.input.Key)
	if !strings.HasPrefix(key, "auction_app/images/") || !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("key = %s", key)
	}
	if aws.ToString(api.input.Bucket) != "listings" || aws.ToString(api.input.ContentType) != "image/jpeg" {
		t.Fatalf("bucket=%s type=%s", aws.ToString(api.input.Bucket), aws.ToString(api.input.ContentType))
	}
	if api.body != "jpegdata" || aws.ToInt64(api.input.ContentLength) != 8 {
		t.Fatalf("body=%q length=%d", api.body, aws.ToInt64(api.input.ContentLength))
	}
	if u != "https://listings.s3.us-east-1.amazonaws.com/"+key {
		t.Fatalf("url = %s", u)
	}
}

func TestUploadUsesPublicBaseURLAndMimeExtension(t *testing.T) {
	api := &fakePutter{}
	c := NewS3ClientWithAPI(api, "eu-west-1", "b", "imgs")
	c.SetPublicBaseURL("http://localhost:4566/b/")

	u, err := c.Upload(context.Background(), staging.NewMemoryFile("blob", []byte("x"), "image/webp"))
	if err != nil {
		t.Fatal(err)
	}
	key := aws.ToString(api.input.Key)
	if !strings.HasSuffix(key, ".webp") {
		t.Fatalf("key = %s, want .webp suffix", key)
	}
	if u != "http://localhost:4566/b/"+key {
		t.Fatalf("url = %s", u)
	}
}

func TestUploadWrapsPutError(t *testing.T) {
	boom := errors.New("access denied")
	c := NewS3ClientWithAPI(&fakePutter{err: boom}, "us-east-1", "b", "imgs")
	if _, err := c.Upload(context.Background(), staging.NewMemoryFile("a.png", []byte("x"), "image/png")); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}
