package staging

import "errors"

var (
	// ErrTooManyFiles is returned when a batch would push the collection past the limit
	ErrTooManyFiles = errors.New("too many files")
	// ErrTypeNotAllowed is returned for a candidate whose MIME type is rejected
	ErrTypeNotAllowed = errors.New("file type not allowed")
	// ErrTooLarge is returned for a candidate above the byte ceiling
	ErrTooLarge = errors.New("file too large")
	// ErrDuplicate is returned for a candidate already staged under the same name and size
	ErrDuplicate = errors.New("duplicate file")
)
