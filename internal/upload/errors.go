package upload

import "errors"

var (
	// ErrNoFileSelected is returned by Submit when no file has been selected.
	ErrNoFileSelected = errors.New("no file selected")
	// ErrUploadInProgress is returned by Submit while another upload is in flight.
	ErrUploadInProgress = errors.New("upload already in progress")
	// ErrUploadRejected wraps a non-2xx answer from the analysis service.
	ErrUploadRejected = errors.New("upload rejected")
	// ErrUploadError wraps transport failures and malformed responses.
	ErrUploadError = errors.New("upload error")
)

// User-facing notice texts.
const (
	msgNoFileSelected = "Please select a file first!"
	msgUploadRejected = "Failed to upload file"
	msgUploadError    = "An error occurred while uploading the file"
)
