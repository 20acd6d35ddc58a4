package service

import (
	"context"
	"io"
)

// MediaUploadService stores image attachments and returns their public URL.
type MediaUploadService interface {
	UploadImage(ctx context.Context, file io.Reader, contentType, folder string) (string, error)
	Close() error
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageExtension returns the object suffix for an allowed image type.
func ImageExtension(contentType string) (string, bool) {
	ext, ok := allowedImageTypes[contentType]
	return ext, ok
}
