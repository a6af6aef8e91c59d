package integration

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/sweetdelights/bakery-api/tests/testutil"
)

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

// ProductIntegrationTestSuite manages the catalog with images stored on local disk
type ProductIntegrationTestSuite struct {
	suite.Suite
	app        *testutil.App
	adminToken string
	staffToken string
}

// SetupSuite runs once before all tests
func (suite *ProductIntegrationTestSuite) SetupSuite() {
	testutil.MustSetTestEnvironment(suite.T())
}

// SetupTest runs before each test
func (suite *ProductIntegrationTestSuite) SetupTest() {
	suite.app = testutil.NewApp(suite.T())
	suite.adminToken = testutil.IssueToken(suite.T(), suite.app.Config, suite.app.Admin)
	suite.staffToken = testutil.IssueToken(suite.T(), suite.app.Config, suite.app.Staff)
}

func (suite *ProductIntegrationTestSuite) sendForm(method, path, token string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		suite.Require().NoError(writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		suite.Require().NoError(err)
		_, err = part.Write(content)
		suite.Require().NoError(err)
	}
	suite.Require().NoError(writer.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	testutil.Authorize(req, token)
	w := httptest.NewRecorder()
	suite.app.Router.ServeHTTP(w, req)
	return w
}

// TestProductLifecycle creates, serves, replaces and retires a product image
func (suite *ProductIntegrationTestSuite) TestProductLifecycle() {
	w := suite.sendForm(http.MethodPost, "/api/v1/products", suite.adminToken,
		map[string]string{"name": "Lemon Drizzle", "quantity": "1 loaf", "price": "12.5", "category": "Cakes"},
		"lemon.png", pngImage)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	created := testutil.Decode(suite.T(), w.Body.Bytes())["data"].(map[string]interface{})
	id := created["id"].(float64)
	imageKey := created["image"].(string)
	assert.Equal(suite.T(), "12.50", created["price"])
	assert.Equal(suite.T(), "/api/v1/uploads/"+imageKey, created["image_url"])
	assert.FileExists(suite.T(), filepath.Join(suite.app.Config.UploadDir, imageKey))

	// the stored image is served back
	req := httptest.NewRequest(http.MethodGet, created["image_url"].(string), nil)
	rec := httptest.NewRecorder()
	suite.app.Router.ServeHTTP(rec, req)
	suite.Require().Equal(http.StatusOK, rec.Code)
	assert.Equal(suite.T(), "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(suite.T(), pngImage, rec.Body.Bytes())

	// staff can read the catalog but not change it
	w = testutil.DoJSON(suite.T(), suite.app.Router, http.MethodGet, "/api/v1/products?category=Cakes", suite.staffToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Len(suite.T(), testutil.Decode(suite.T(), w.Body.Bytes())["data"], 1)

	w = suite.sendForm(http.MethodPost, "/api/v1/products", suite.staffToken,
		map[string]string{"name": "Sneaky Scone", "price": "1"}, "", nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	// replacing the image removes the old file
	path := "/api/v1/products/" + formatID(id)
	w = suite.sendForm(http.MethodPut, path, suite.adminToken,
		map[string]string{"name": "Lemon Drizzle", "quantity": "1 loaf", "price": "13", "category": "Cakes"},
		"lemon-v2.png", pngImage)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	updated := testutil.Decode(suite.T(), w.Body.Bytes())["data"].(map[string]interface{})
	assert.NotEqual(suite.T(), imageKey, updated["image"])
	assert.NoFileExists(suite.T(), filepath.Join(suite.app.Config.UploadDir, imageKey))

	// deleting hides the product from the active catalog
	w = testutil.DoJSON(suite.T(), suite.app.Router, http.MethodDelete, path, suite.adminToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = testutil.DoJSON(suite.T(), suite.app.Router, http.MethodGet, "/api/v1/products", suite.staffToken, nil)
	assert.Empty(suite.T(), testutil.Decode(suite.T(), w.Body.Bytes())["data"])

	w = testutil.DoJSON(suite.T(), suite.app.Router, http.MethodGet, "/api/v1/products?include_inactive=true", suite.adminToken, nil)
	products := testutil.Decode(suite.T(), w.Body.Bytes())["data"].([]interface{})
	suite.Require().Len(products, 1)
	assert.Equal(suite.T(), false, products[0].(map[string]interface{})["active"])
}

// TestRejectsDisguisedUpload refuses files whose content does not match the extension
func (suite *ProductIntegrationTestSuite) TestRejectsDisguisedUpload() {
	w := suite.sendForm(http.MethodPost, "/api/v1/products", suite.adminToken,
		map[string]string{"name": "Mystery Bun", "price": "2"},
		"bun.png", []byte("#!/bin/sh\necho not an image\n"))

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "INVALID_FILE_CONTENT", testutil.ErrorCode(suite.T(), w.Body.Bytes()))

	entries, err := os.ReadDir(suite.app.Config.UploadDir)
	if err == nil {
		assert.Empty(suite.T(), entries)
	}
}

// TestUploadsAreServedWithoutAuth serves product images to anonymous clients
func (suite *ProductIntegrationTestSuite) TestUploadsAreServedWithoutAuth() {
	suite.Require().NoError(os.MkdirAll(suite.app.Config.UploadDir, 0755))
	suite.Require().NoError(os.WriteFile(filepath.Join(suite.app.Config.UploadDir, "abc_bread.jpg"), []byte("jpeg"), 0644))

	testCases := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"existing", "/api/v1/uploads/abc_bread.jpg", http.StatusOK},
		{"missing", "/api/v1/uploads/nope.jpg", http.StatusNotFound},
		{"bad extension", "/api/v1/uploads/abc_bread.txt", http.StatusBadRequest},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			w := testutil.DoJSON(t, suite.app.Router, http.MethodGet, tc.path, "", nil)
			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func formatID(id float64) string {
	return testutil.FormatID(uint(id))
}

func TestProductIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ProductIntegrationTestSuite))
}
