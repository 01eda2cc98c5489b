package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/db"
	"github.com/velora-shop/storefront-backend/internal/storage"
	"github.com/velora-shop/storefront-backend/pkg/util"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	util.PasswordCost = bcrypt.MinCost
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
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

// fakeImages records uploads and deletes in memory.
type fakeImages struct {
	mu        sync.Mutex
	uploaded  map[string][]byte
	deleted   []string
	uploadErr error
	deleteErr error
	seq       int
}

func newFakeImages() *fakeImages {
	return &fakeImages{uploaded: make(map[string][]byte)}
}

func (f *fakeImages) Upload(_ context.Context, filename, _ string, body io.Reader) (*storage.StoredImage, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	key := "products/" + string(rune('a'+f.seq-1)) + "-" + filename
	f.uploaded[key] = data
	return &storage.StoredImage{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.uploaded, key)
	return nil
}

func jpeg(name string) *ImageUpload {
	return &ImageUpload{Filename: name, ContentType: "image/jpeg", Body: bytes.NewReader([]byte("jpeg-bytes"))}
}

type recordingNotifier struct {
	created []*model.Order
	changed []*model.Order
}

func (n *recordingNotifier) OrderCreated(o *model.Order)       { n.created = append(n.created, o) }
func (n *recordingNotifier) OrderStatusChanged(o *model.Order) { n.changed = append(n.changed, o) }

type recordingCheckouts struct {
	methods []string
}

func (r *recordingCheckouts) IncCheckout(pm string) { r.methods = append(r.methods, pm) }

var errBoom = errors.New("boom")
