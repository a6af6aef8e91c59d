package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetdelights/bakery-api/config"
	"github.com/sweetdelights/bakery-api/utils"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}

func TestS3ImageService(t *testing.T) {
	ctx := context.Background()
	s3mock := NewMockS3Service()
	svc := NewS3ImageService(s3mock)

	key, err := svc.UploadImage(ctx, fileHeader(t, "eclair.png", pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, S3KeyPrefix))
	assert.True(t, strings.HasSuffix(key, "_eclair.png"))
	assert.True(t, s3mock.FileExists(key))
	assert.Equal(t, "image/png", s3mock.ContentType(key))

	url, err := svc.GetImageURL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, key)

	empty, err := svc.GetImageURL(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, svc.DeleteImage(ctx, key))
	assert.False(t, s3mock.FileExists(key))
}

func TestS3ImageServiceRejectsInvalidFile(t *testing.T) {
	s3mock := NewMockS3Service()
	svc := NewS3ImageService(s3mock)

	_, err := svc.UploadImage(context.Background(), fileHeader(t, "notes.txt", []byte("hello")))
	var uploadErr *utils.FileUploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "INVALID_FILE_FORMAT", uploadErr.Code)
}

func TestLocalImageService(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	svc := NewLocalImageService(dir)

	key, err := svc.UploadImage(ctx, fileHeader(t, "croissant.png", pngBytes))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, key))

	url, err := svc.GetImageURL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/uploads/"+key, url)

	require.NoError(t, svc.DeleteImage(ctx, key))
	_, err = os.Stat(filepath.Join(dir, key))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	require.NoError(t, svc.DeleteImage(ctx, key))
	assert.Error(t, svc.DeleteImage(ctx, "../outside.png"))
}

func TestInitImageServiceChoosesLocalWithoutBucket(t *testing.T) {
	prev := GetImageService()
	t.Cleanup(func() { SetImageService(prev) })

	svc, err := InitImageService(context.Background(), &config.Config{UploadDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalImageService{}, svc)
	assert.Same(t, svc, GetImageService())
}

func TestMockImageService(t *testing.T) {
	ctx := context.Background()
	mock := NewMockImageService()

	key, err := mock.UploadImage(ctx, fileHeader(t, "bun.png", pngBytes))
	require.NoError(t, err)
	assert.True(t, mock.ImageExists(key))
	assert.Equal(t, pngBytes, mock.GetUploadedImages()[key])

	_, err = mock.GetImageURL(ctx, "missing.png")
	assert.Error(t, err)

	mock.Clear()
	assert.False(t, mock.ImageExists(key))
}
