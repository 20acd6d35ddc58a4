package handler

import (
	"fmt"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"groupchat/internal/adapter/api/middleware"
	"groupchat/internal/domain/service"
	"groupchat/pkg/errors"
	"groupchat/pkg/logger"
	"groupchat/pkg/response"
)

const (
	maxUploadSize = 5 * 1024 * 1024
	chatFolder    = "chat-images"
)

type FileHandler struct {
	uploader    service.MediaUploadService
	maxFileSize int64
}

var fileHandler *FileHandler

func NewFileHandler(uploader service.MediaUploadService) *FileHandler {
	return &FileHandler{
		uploader:    uploader,
		maxFileSize: maxUploadSize,
	}
}

func SetupFileHandler(uploader service.MediaUploadService) {
	fileHandler = NewFileHandler(uploader)
}

func GetFileHandler() *FileHandler {
	return fileHandler
}

type UploadResult struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// UploadImage stores an image attachment and returns its public URL. The
// client then sends the URL as a media message.
func (h *FileHandler) UploadImage(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	if file.Size > h.maxFileSize {
		logger.Warn("File too large: %d bytes (max: %d)", file.Size, h.maxFileSize)
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	contentType := file.Header.Get(echo.HeaderContentType)
	if _, ok := service.ImageExtension(contentType); !ok {
		logger.Warn("Invalid file type: %s", contentType)
		return response.Error(c, errors.BadRequest("File type not supported", nil))
	}

	folder := chatFolder
	if identity, ok := middleware.GetIdentity(c); ok {
		folder = chatFolder + "/" + sanitizeFolderName(identity.UID)
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to read upload", err))
	}
	defer src.Close()

	url, err := h.uploader.UploadImage(c.Request().Context(), src, contentType, folder)
	if err != nil {
		logger.Error("Upload failed: %v", err)
		return response.Error(c, errors.Internal("Failed to store upload", err))
	}

	return response.Created(c, UploadResult{URL: url, ContentType: contentType, Size: file.Size})
}

func sanitizeFolderName(folder string) string {
	folder = filepath.Base(folder)

	validChars := []rune{}
	for _, char := range folder {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			validChars = append(validChars, char)
		}
	}

	sanitized := string(validChars)
	if sanitized == "" {
		return "anonymous"
	}
	return sanitized
}
