// Package media is the upload gateway: it validates type and size
// before any network call, stores bytes in S3-compatible storage, and
// hands back the public URL for the pointer row.
package media

import (
	"fmt"
	"net/http"
)

// Kind selects the allow-list and size ceiling for an upload.
type Kind string

const (
	KindGalleryPhoto Kind = "gallery"
	KindSectionImage Kind = "sectionImage"
	KindSectionVideo Kind = "sectionVideo"
)

const (
	galleryPhotoLimit = 4 << 20
	sectionImageLimit = 10 << 20
	sectionVideoLimit = 50 << 20
)

var imageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

var videoTypes = map[string]struct{}{
	"video/mp4":       {},
	"video/webm":      {},
	"video/quicktime": {},
}

// ValidationError carries the HTTP status the gateway's rules map to:
// 400 for a missing file or disallowed type, 413 for an oversize file.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SizeLimit returns the byte ceiling for an upload kind.
func SizeLimit(kind Kind) int64 {
	switch kind {
	case KindSectionImage:
		return sectionImageLimit
	case KindSectionVideo:
		return sectionVideoLimit
	default:
		return galleryPhotoLimit
	}
}

// Validate fails fast on the gateway's rules, before any bytes move.
func Validate(kind Kind, contentType string, size int64) error {
	if size <= 0 {
		return &ValidationError{Status: http.StatusBadRequest, Message: "No file provided"}
	}

	allowed := imageTypes
	if kind == KindSectionVideo {
		allowed = videoTypes
	}
	if _, ok := allowed[contentType]; !ok {
		return &ValidationError{Status: http.StatusBadRequest, Message: "Invalid file type"}
	}

	limit := SizeLimit(kind)
	if size > limit {
		return &ValidationError{
			Status:  http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("File size exceeds %dMB limit", limit>>20),
		}
	}
	return nil
}
