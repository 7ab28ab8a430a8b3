package cloudinary_client

import (
	"github.com/mcdev12/gavel/go/clients"
)

// CloudinaryClient uploads images with an unsigned upload preset, so no API
// secret is needed on the client.
type CloudinaryClient struct {
	*clients.BaseClient
	cloudName string
	preset    string
	folder    string
}

func NewCloudinaryClient(cloudName, uploadPreset string) *CloudinaryClient {
	client := &CloudinaryClient{
		BaseClient: clients.NewBaseClient(BaseURL),
		cloudName:  cloudName,
		preset:     uploadPreset,
		folder:     DefaultFolder,
	}

	// uploads are bounded by the caller's context only
	client.SetTimeout(0)

	return client
}

// NewCloudinaryClientWithBaseURL points the client at another host, e.g. a test server
func NewCloudinaryClientWithBaseURL(baseURL, cloudName, uploadPreset string) *CloudinaryClient {
	client := NewCloudinaryClient(cloudName, uploadPreset)
	client.BaseClient = clients.NewBaseClient(baseURL)
	client.SetTimeout(0)
	return client
}

// SetFolder changes the destination folder
func (c *CloudinaryClient) SetFolder(folder string) {
	c.folder = folder
}
