package listing

import (
	"context"
	"fmt"

	"github.com/mcdev12/gavel/go/clients/cloudinary_client"
	"github.com/mcdev12/gavel/go/internal/models"
)

// Strategy decides how staged images reach the server. It is fixed at startup.
type Strategy int

const (
	// StrategyLocalPreview posts the staged binaries in the images field
	StrategyLocalPreview Strategy = iota
	// StrategyStagedUpload uploads to object storage first and posts the URLs
	StrategyStagedUpload
)

func (s Strategy) String() string {
	switch s {
	case StrategyLocalPreview:
		return "local_preview"
	case StrategyStagedUpload:
		return "staged_upload"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Uploader stores one image and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, file models.FileHandle) (string, error)
}

// Submitter performs the native form submission
type Submitter interface {
	SubmitListing(ctx context.Context, sub models.ListingSubmission) (models.SubmitResult, error)
}

// CloudinaryUploader adapts the unsigned upload client to Uploader
type CloudinaryUploader struct {
	Client *cloudinary_client.CloudinaryClient
}

func (u CloudinaryUploader) Upload(ctx context.Context, file models.FileHandle) (string, error) {
	resp, err := u.Client.Upload(ctx, file)
	if err != nil {
		return "", err
	}
	return resp.ImageURL()
}
