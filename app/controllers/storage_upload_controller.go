package controllers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/middleware"
	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/storage"
)

const presignTTL = 15 * time.Minute

// StorageUploadController stores uploaded assets in R2 and hands out
// presigned download URLs.
type StorageUploadController struct {
	Client *storage.Client
	Config *storage.Config
}

func NewStorageUploadController(client *storage.Client, cfg *storage.Config) *StorageUploadController {
	return &StorageUploadController{Client: client, Config: cfg}
}

// HandleUpload accepts a multipart file and stores it under a generated key.
func (sc *StorageUploadController) HandleUpload(c *fiber.Ctx) error {
	if middleware.SessionFromLocals(c) == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Authentication required",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "failed to read upload",
		})
	}
	defer file.Close()

	now := time.Now()
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	key := sc.Config.ObjectKey(uuid.NewString(), ext, now.Year(), int(now.Month()))

	contentType := fileHeader.Header.Get(fiber.HeaderContentType)
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}

	if err := sc.Client.Upload(c.Context(), key, file, contentType); err != nil {
		log.Errorf("[Upload] Failed to store object %s: %v", key, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "upload failed",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"key":     key,
		"size":    fileHeader.Size,
	})
}

// HandleDownloadURL returns a presigned GET URL for a stored object.
func (sc *StorageUploadController) HandleDownloadURL(c *fiber.Ctx) error {
	if middleware.SessionFromLocals(c) == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Authentication required",
		})
	}

	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "key is required",
		})
	}

	url, err := sc.Client.PresignDownload(c.Context(), key, presignTTL)
	if err != nil {
		log.Errorf("[Upload] Failed to presign object %s: %v", key, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "failed to create download url",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"url":     url,
		"expires": time.Now().Add(presignTTL).UTC().Format(time.RFC3339),
	})
}
