package cloudinary_client

const (
	// Base URL
	BaseURL = "https://api.cloudinary.com"

	// API Endpoints, formatted with the cloud name
	ImageUploadEndpoint = "/v1_1/%s/image/upload"

	// Default folder for listing images
	DefaultFolder = "auction_app/images"

	// Multipart field names
	FileField         = "file"
	UploadPresetField = "upload_preset"
	FolderField       = "folder"
)
