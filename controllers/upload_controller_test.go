package controllers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetdelights/bakery-api/services"
)

// setupUploadDir points the local image service at a fresh directory.
func setupUploadDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := services.GetImageService()
	services.SetImageService(services.NewLocalImageService(dir))
	t.Cleanup(func() { services.SetImageService(prev) })
	return dir
}

func uploadRouter() *gin.Engine {
	router := setupTestRouter()
	router.GET("/uploads/:filename", GetUploadedImage)
	return router
}

func TestGetUploadedImage_ContentTypes(t *testing.T) {
	dir := setupUploadDir(t)

	tests := []struct {
		filename    string
		contentType string
	}{
		{"3f6c_cake.png", "image/png"},
		{"3f6c_bread.jpg", "image/jpeg"},
		{"3f6c_BREAD.JPEG", "image/jpeg"},
		{"3f6c_donut.gif", "image/gif"},
		{"3f6c_tart.PNG", "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			content := []byte("content of " + tt.filename)
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.filename), content, 0644))

			w := serve(uploadRouter(), httptest.NewRequest(http.MethodGet, "/uploads/"+tt.filename, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))
			assert.Equal(t, content, w.Body.Bytes())
		})
	}
}

func TestGetUploadedImage_FileNotFound(t *testing.T) {
	setupUploadDir(t)

	w := serve(uploadRouter(), httptest.NewRequest(http.MethodGet, "/uploads/nonexistent.png", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "FILE_NOT_FOUND")
	assert.Contains(t, w.Body.String(), "Image not found")
}

func TestGetUploadedImage_EmptyFilename(t *testing.T) {
	w := serve(uploadRouter(), httptest.NewRequest(http.MethodGet, "/uploads/", nil))

	// Gin will handle this as a 404 because route doesn't match
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUploadedImage_DirectoryTraversal(t *testing.T) {
	setupUploadDir(t)
	router := uploadRouter()

	testCases := []struct {
		name           string
		filename       string
		expectedStatus int
		expectedError  string
	}{
		// Gin's router treats slashes as path separators, so these never reach the handler
		{"Parent directory traversal", "../../../etc/passwd", http.StatusNotFound, ""},
		{"Forward slash in filename", "path/to/file.png", http.StatusNotFound, ""},

		{"Backslash in filename", "path\\to\\file.png", http.StatusBadRequest, "INVALID_FILENAME"},
		{"Dots in filename", "..file.png", http.StatusBadRequest, "INVALID_FILENAME"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(router, httptest.NewRequest(http.MethodGet, "/uploads/"+tc.filename, nil))

			assert.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedError != "" {
				assert.Contains(t, w.Body.String(), tc.expectedError)
			}
		})
	}
}

func TestGetUploadedImage_InvalidFileType(t *testing.T) {
	setupUploadDir(t)
	router := uploadRouter()

	for _, filename := range []string{"image.bmp", "image.webp", "image", "document.txt"} {
		t.Run(filename, func(t *testing.T) {
			w := serve(router, httptest.NewRequest(http.MethodGet, "/uploads/"+filename, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_FILE_TYPE")
		})
	}
}
