package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sweetdelights/bakery-api/services"
	"github.com/sweetdelights/bakery-api/utils"
)

// uploadDir is where locally stored product images live.
func uploadDir() string {
	if local, ok := services.GetImageService().(*services.LocalImageService); ok {
		return local.Dir()
	}
	return utils.UploadDir
}

// GetUploadedImage handles GET /api/v1/uploads/:filename - serves locally stored product images
func GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")

	if filename == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Filename is required")
		return
	}

	// Security: Prevent directory traversal attacks
	if !utils.IsSafeFilename(filename) {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	ext := strings.ToLower(filepath.Ext(filename))
	contentTypes, ok := utils.AllowedImageExtensions[ext]
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only png, jpg, jpeg and gif files are supported")
		return
	}

	filePath := filepath.Join(uploadDir(), filename)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Image not found")
		return
	}

	c.Header("Content-Type", contentTypes[0])
	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}
