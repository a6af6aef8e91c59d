package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sweetdelights/bakery-api/config"
	"github.com/sweetdelights/bakery-api/middleware"
	"github.com/sweetdelights/bakery-api/models"
)

// IssueToken signs a session token for user without going through login.
func IssueToken(t *testing.T, cfg *config.Config, user *models.User) string {
	t.Helper()
	token, _, err := middleware.IssueToken(cfg, user, time.Now())
	require.NoError(t, err)
	return token
}

// Login posts credentials to the login endpoint and returns the token.
func Login(t *testing.T, router *gin.Engine, username, password string) string {
	t.Helper()
	w := DoJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEmpty(t, response.Data.Token)
	return response.Data.Token
}

// DoJSON sends a JSON request, with a bearer token when token is non-empty.
func DoJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	Authorize(req, token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// Authorize sets the bearer header when token is non-empty.
func Authorize(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// Decode unmarshals a response envelope.
func Decode(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &response), string(body))
	return response
}

// ErrorCode extracts error.code from a failure envelope.
func ErrorCode(t *testing.T, body []byte) string {
	t.Helper()
	errObj, ok := Decode(t, body)["error"].(map[string]interface{})
	require.True(t, ok, "no error object in %s", string(body))
	return errObj["code"].(string)
}

// FormatID renders a numeric id for use in a path.
func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
