package service

import "errors"

// Error kinds returned by FileService. Failures past validation wrap the
// underlying cause, so callers match with errors.Is and log err.Error().
var (
	ErrNoFilePart             = errors.New("no file part")
	ErrNoSelectedFile         = errors.New("no selected file")
	ErrUnsupportedFileType    = errors.New("unsupported file type")
	ErrStagingWrite           = errors.New("staging write failed")
	ErrObjectStoreUpload      = errors.New("object store upload failed")
	ErrDownloadLinkGeneration = errors.New("error generating download link")
	ErrMetadataWrite          = errors.New("metadata write failed")
	ErrMetadataRead           = errors.New("metadata read failed")
	ErrNotFound               = errors.New("file not found")

	// ErrObjectNotFound is returned by ObjectStore implementations.
	ErrObjectNotFound = errors.New("object not found")
)

// IsBadRequest reports whether err is a validation failure of the request
// itself.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrNoFilePart) || errors.Is(err, ErrNoSelectedFile)
}
