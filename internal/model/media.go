package model

import "errors"

const (
	MaxImageSizeBytes = 5 * 1024 * 1024 // 5MB per upload

	ProfileImageWidth  = 256
	ProfileImageHeight = 256
	ProfileImageFolder = "profile"

	HeaderImageWidth  = 1500
	HeaderImageHeight = 500
	HeaderImageFolder = "header"

	ImageExt          = ".jpg"
	ImageCacheControl = "public, max-age=31536000" // 1 year
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
}

// Domain errors for media operations
var (
	ErrFileTooLarge      = errors.New("file too large")
	ErrInvalidImageType  = errors.New("invalid image type")
	ErrMediaNotAvailable = errors.New("image uploads are not configured")
)

// UploadResult represents the uploaded object location.
// Key is the object key inside the bucket, kept for later deletes.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
