package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	// MaxFileSize is 16MB in bytes
	MaxFileSize = 16 * 1024 * 1024
)

var (
	// AllowedImageExtensions maps each accepted extension to the content
	// types its bytes may sniff as.
	AllowedImageExtensions = map[string][]string{
		".png":  {"image/png"},
		".jpg":  {"image/jpeg"},
		".jpeg": {"image/jpeg"},
		".gif":  {"image/gif"},
	}

	// UploadDir is the directory where uploaded files are stored
	// Can be overridden for testing
	UploadDir = "./static/uploads"

	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImageFile checks size, extension and sniffed content type.
// It returns the detected content type.
func ValidateImageFile(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size > MaxFileSize {
		return "", &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	allowed, ok := AllowedImageExtensions[ext]
	if !ok {
		return "", &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only png, jpg, jpeg and gif files are allowed",
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("failed to inspect uploaded file: %w", err)
	}
	for _, want := range allowed {
		if mtype.Is(want) {
			return want, nil
		}
	}
	return "", &FileUploadError{
		Code:    "INVALID_FILE_CONTENT",
		Message: fmt.Sprintf("File content (%s) does not match a %s image", mtype.String(), strings.TrimPrefix(ext, ".")),
	}
}

// StorageName returns a collision-free name for an upload: a random uuid
// prefix followed by the sanitised original base name.
func StorageName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == "_" {
		base = "image"
	}
	return uuid.NewString() + "_" + base
}

// SaveUploadedFile saves the uploaded file into uploadDir under a fresh
// StorageName and returns that name.
func SaveUploadedFile(fileHeader *multipart.FileHeader, uploadDir string) (filename string, err error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	filename = StorageName(fileHeader.Filename)
	fullPath := filepath.Join(uploadDir, filename)

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filename, nil
}

// IsSafeFilename rejects names that could escape the upload directory.
func IsSafeFilename(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}

// GetImageURL returns the URL path for accessing the uploaded image
func GetImageURL(filename string) string {
	if filename == "" {
		return ""
	}
	return fmt.Sprintf("/api/v1/uploads/%s", filename)
}
