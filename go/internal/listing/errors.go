package listing

import "errors"

var (
	ErrNoImages         = errors.New("no images staged")
	ErrUploadInProgress = errors.New("upload already in progress")
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrAlreadySubmitted = errors.New("listing already submitted")
	ErrNoURL            = errors.New("upload returned no URL")
	ErrNoUploader       = errors.New("staged upload strategy requires an uploader")
)

const (
	noImagesMessage     = "Please upload at least one image."
	uploadFailedMessage = "Image upload failed. Check logs for details."
	submitFailedMessage = "Could not create listing. Please try again."
)
