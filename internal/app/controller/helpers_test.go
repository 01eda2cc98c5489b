package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/db"
	"github.com/velora-shop/storefront-backend/internal/middleware"
	"github.com/velora-shop/storefront-backend/internal/storage"
	"github.com/velora-shop/storefront-backend/pkg/util"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	util.PasswordCost = bcrypt.MinCost
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

// asStaff marks every request as coming from an authenticated admin.
func asStaff(c *gin.Context) {
	c.Set(middleware.UserIDKey, uint(1))
	c.Set(middleware.UserEmailKey, "admin@velora.test")
	c.Set(middleware.UserRoleKey, model.RoleAdmin)
	c.Next()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type formFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func doMultipart(t *testing.T, router http.Handler, method, path string, fields map[string][]string, file *formFile) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	if file != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.filename+`"`)
		header.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

type fakeImages struct {
	uploads   []string
	deleted   []string
	deleteErr error
}

func (f *fakeImages) Upload(_ context.Context, filename, _ string, body io.Reader) (*storage.StoredImage, error) {
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	key := "products/" + filename
	f.uploads = append(f.uploads, key)
	return &storage.StoredImage{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func seedProduct(t *testing.T, testDB *gorm.DB, p model.Product) *model.Product {
	t.Helper()
	if p.Status == "" {
		p.Status = model.ProductStatusActive
	}
	if p.Category == "" {
		p.Category = "Women's Fashion"
	}
	require.NoError(t, testDB.Create(&p).Error)
	return &p
}
