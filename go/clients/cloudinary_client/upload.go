package cloudinary_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/clients"
	"github.com/mcdev12/gavel/go/internal/models"
)

// ErrNoURL is returned when an upload response carries neither secure_url nor url
var ErrNoURL = errors.New("no URL returned from upload")

type UploadResponse struct {
	PublicID     string `json:"public_id"`
	Version      int64  `json:"version"`
	Format       string `json:"format"`
	ResourceType string `json:"resource_type"`
	Bytes        int64  `json:"bytes"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	SecureURL    string `json:"secure_url"`
	URL          string `json:"url"`
}

// ImageURL returns the canonical URL: secure_url first, then url.
func (r UploadResponse) ImageURL() (string, error) {
	if r.SecureURL != "" {
		return r.SecureURL, nil
	}
	if r.URL != "" {
		return r.URL, nil
	}
	return "", ErrNoURL
}

// Upload sends one file to the unsigned upload endpoint.
func (c *CloudinaryClient) Upload(ctx context.Context, file models.FileHandle) (UploadResponse, error) {
	rc, err := file.Open()
	if err != nil {
		return UploadResponse{}, fmt.Errorf("open %s: %w", file.Name(), err)
	}
	defer rc.Close()

	fields := url.Values{}
	fields.Set(UploadPresetField, c.preset)
	fields.Set(FolderField, c.folder)

	body, contentType, err := clients.EncodeMultipart(fields, []string{UploadPresetField, FolderField}, []clients.FilePart{{
		Field:       FileField,
		FileName:    file.Name(),
		ContentType: file.MIMEType(),
		Content:     rc,
	}})
	if err != nil {
		return UploadResponse{}, fmt.Errorf("build upload body: %w", err)
	}

	endpoint := fmt.Sprintf(ImageUploadEndpoint, url.PathEscape(c.cloudName))
	respBody, err := c.Post(ctx, endpoint, body, contentType)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("upload %s: %w", file.Name(), err)
	}

	var response UploadResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return UploadResponse{}, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(respBody))
	}

	imageURL, err := response.ImageURL()
	if err != nil {
		return UploadResponse{}, fmt.Errorf("upload %s: %w", file.Name(), err)
	}

	log.Debug().
		Str("file", file.Name()).
		Str("public_id", PublicIDFromURL(imageURL)).
		Str("url", imageURL).
		Msg("image uploaded")

	return response, nil
}

// PublicIDFromURL turns a delivery URL such as
// https://res.cloudinary.com/<cloud>/image/upload/v169/auction_app/images/name.jpg
// into its public id (auction_app/images/name). It returns "" when url is not
// an upload URL.
func PublicIDFromURL(rawURL string) string {
	_, tail, ok := strings.Cut(rawURL, "/upload/")
	if !ok {
		return ""
	}
	if first, rest, found := strings.Cut(tail, "/"); found && isVersion(first) {
		tail = rest
	}
	tail, _, _ = strings.Cut(tail, "?")
	if i := strings.LastIndex(tail, "."); i >= 0 {
		tail = tail[:i]
	}
	return tail
}

func isVersion(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
