package v1_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/config"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/auth"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/db"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/infrastructure/storage"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testRouter *gin.Engine

const testConfigYAML = `
server:
  port: 8080
  public_base_url: http://vault.test
db:
  driver: sqlite
  dsn: "file:handler_test?mode=memory&cache=shared"
auth:
  jwt_secret: handler-test-secret
  audience: authenticated
log:
  path: %s
storage:
  backend: local
  local_root: %s
`

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "vault-handler-test")
	if err != nil {
		panic(err)
	}

	// 初始化配置
	cfg, err := config.Parse([]byte(fmt.Sprintf(testConfigYAML,
		filepath.Join(tmpDir, "logs", "app.log"),
		filepath.Join(tmpDir, "storage"),
	)))
	if err != nil {
		panic(err)
	}
	config.AppConfig = cfg
	config.InitLogger()

	// 初始化数据库、存储和鉴权
	if err := db.InitDB(); err != nil {
		panic(err)
	}
	if err := storage.InitStorage(); err != nil {
		panic(err)
	}
	if err := auth.InitAuth(); err != nil {
		panic(err)
	}

	// 设置 Gin 为测试模式
	gin.SetMode(gin.TestMode)
	testRouter = router.SetupRouter()

	// 运行测试
	code := m.Run()
	_ = os.RemoveAll(tmpDir)
	os.Exit(code)
}

func mustIssueToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := auth.Default.IssueToken(subject, subject+"@example.com", time.Hour)
	require.NoError(t, err)
	return token
}

// uniqueName 让共享库里的测试数据互不干扰
func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// performRequest 执行请求的辅助函数
func performRequest(r http.Handler, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func performJSONRequest(t *testing.T, r http.Handler, method, path string, payload interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return performRequest(r, method, path, bytes.NewReader(body), token)
}

func performMultipartRequest(t *testing.T, r http.Handler, method, path, fileField, fileName string, content []byte, fields map[string]string, token string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("create multipart file failed: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("copy multipart file failed: %v", err)
		}
	}

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write multipart field failed: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer failed: %v", err)
	}

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

type uploadedImage struct {
	ID          string
	ImageURL    string
	StoragePath string
}

// uploadImage 通过接口上传一张图片
func uploadImage(t *testing.T, token, module, campaign string, content []byte, extra map[string]interface{}) uploadedImage {
	t.Helper()

	meta := map[string]interface{}{
		"camera_module_id":   module,
		"camera_type":        "RGB",
		"test_campaign":      campaign,
		"scene_type":         "indoor_lab",
		"lighting_condition": "D65",
	}
	for k, v := range extra {
		meta[k] = v
	}
	raw, err := json.Marshal(meta)
	require.NoError(t, err)

	w := performMultipartRequest(t, testRouter, http.MethodPost, "/functions/v1/image-upload",
		"file", "frame.png", content, map[string]string{"metadata": string(raw)}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Image   struct {
			ID       string `json:"id"`
			ImageURL string `json:"image_url"`
		} `json:"image"`
		StoragePath string `json:"storage_path"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return uploadedImage{ID: resp.Image.ID, ImageURL: resp.Image.ImageURL, StoragePath: resp.StoragePath}
}
