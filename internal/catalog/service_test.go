// AngelaMos | 2026
// service_test.go

package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/core"
)

var pngBytes = append(
	[]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"),
	bytes.Repeat([]byte{0}, 64)...,
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	n       int
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Upload(_ context.Context, prefix, filename, _ string, body io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.n++
	key := fmt.Sprintf("%s/%d-%s", prefix, m.n, filename)
	m.objects[key] = b
	return m.URL(key), nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) URL(key string) string { return "https://cdn.test/" + key }

func (m *memStore) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, "https://cdn.test/") {
		return "", false
	}
	return strings.TrimPrefix(url, "https://cdn.test/"), true
}

func (m *memStore) Ping(context.Context) error { return nil }

type fileSpec struct {
	name string
	data []byte
}

func fileHeaders(t *testing.T, files ...fileSpec) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("image_file", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image_file"]
}

// fakeRepo implements the methods the tests touch; anything else panics.
type fakeRepo struct {
	Repository
	products      map[string]*Product
	categoryCount int
	deleted       []string
}

func (f *fakeRepo) GetProduct(_ context.Context, id string) (*Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) GetProducts(_ context.Context, ids []string) ([]Product, error) {
	var out []Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateProduct(_ context.Context, p *Product) error {
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateProduct(_ context.Context, p *Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return core.ErrNotFound
	}
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeRepo) CountProductsInCategory(context.Context, string) (int, error) {
	return f.categoryCount, nil
}

func (f *fakeRepo) DeleteCategory(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestService(repo *fakeRepo, store *memStore) *Service {
	return NewService(ServiceConfig{
		Repo:     repo,
		Uploader: NewUploader(store, 1024),
	})
}

var validForm = ProductForm{
	Name:            "Mug",
	Description:     "A mug",
	LongDescription: "A very good mug",
	Price:           "12.50",
	CategoryID:      "6f1c2a8e-3b1d-4c8e-9a55-1f1d2b3c4d5e",
	DataAIHint:      "mug",
}

func TestCreateProductUploadsImages(t *testing.T) {
	repo := &fakeRepo{products: map[string]*Product{}}
	store := newMemStore()

	p, err := newTestService(repo, store).CreateProduct(
		context.Background(),
		validForm,
		fileHeaders(t, fileSpec{"front view.png", pngBytes}, fileSpec{"back.png", pngBytes}),
	)
	require.NoError(t, err)

	assert.Len(t, p.ImageURLs, 2)
	assert.Contains(t, p.ImageURLs[0], "front_view.png")
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.50")))
	assert.Len(t, store.objects, 2)
}

func TestCreateProductRejectsBadImages(t *testing.T) {
	tests := []struct {
		name  string
		files []fileSpec
		want  error
	}{
		{"no images", nil, ErrImageRequired},
		{"not an image", []fileSpec{{"notes.png", []byte("just some text, honestly")}}, ErrImageType},
		{"too large", []fileSpec{{"big.png", append(pngBytes, make([]byte, 2048)...)}}, ErrImageTooLarge},
		{"second bad", []fileSpec{{"ok.png", pngBytes}, {"bad.gif", []byte("GIF89a......")}}, ErrImageType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{products: map[string]*Product{}}
			store := newMemStore()

			var files []*multipart.FileHeader
			if len(tt.files) > 0 {
				files = fileHeaders(t, tt.files...)
			}

			_, err := newTestService(repo, store).CreateProduct(context.Background(), validForm, files)

			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, store.objects, "nothing left in storage")
			assert.Empty(t, repo.products)
		})
	}
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	form := validForm
	form.Price = "-1"

	_, err := newTestService(&fakeRepo{products: map[string]*Product{}}, newMemStore()).
		CreateProduct(context.Background(), form, nil)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields, "price")
}

func TestUpdateProductReplacesImages(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	oldURL, err := store.Upload(ctx, "products", "old.png", "image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	repo := &fakeRepo{products: map[string]*Product{
		"p1": {ID: "p1", ImageURLs: ImageURLs{oldURL}},
	}}
	svc := newTestService(repo, store)

	kept, err := svc.UpdateProduct(ctx, "p1", validForm, nil)
	require.NoError(t, err)
	assert.Equal(t, ImageURLs{oldURL}, kept.ImageURLs, "images kept without new files")

	replaced, err := svc.UpdateProduct(ctx, "p1", validForm, fileHeaders(t, fileSpec{"new.png", pngBytes}))
	require.NoError(t, err)
	require.Len(t, replaced.ImageURLs, 1)
	assert.NotEqual(t, oldURL, replaced.ImageURLs[0])

	oldKey, _ := store.KeyFromURL(oldURL)
	assert.NotContains(t, store.objects, oldKey, "old image removed")
	assert.Len(t, store.objects, 1)
}

func TestDeleteCategoryInUse(t *testing.T) {
	repo := &fakeRepo{categoryCount: 3}

	err := newTestService(repo, newMemStore()).DeleteCategory(context.Background(), "c1")

	var inUse *CategoryInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, "Cannot delete category. 3 product(s) are currently assigned to it.", inUse.Error())
	assert.Empty(t, repo.deleted)
}

func TestDeleteCategoryUnused(t *testing.T) {
	repo := &fakeRepo{}

	require.NoError(t, newTestService(repo, newMemStore()).DeleteCategory(context.Background(), "c1"))
	assert.Equal(t, []string{"c1"}, repo.deleted)
}

func TestPricesSkipsUnknownProducts(t *testing.T) {
	repo := &fakeRepo{products: map[string]*Product{
		"p1": {ID: "p1", Price: decimal.RequireFromString("10.00")},
	}}

	prices, err := newTestService(repo, newMemStore()).Prices(context.Background(), []string{"p1", "ghost"})
	require.NoError(t, err)

	assert.Len(t, prices, 1)
	assert.True(t, prices["p1"].Equal(decimal.RequireFromString("10")))
}

func TestImageURLsScan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want ImageURLs
	}{
		{"array", []byte(`["a","b"]`), ImageURLs{"a", "b"}},
		{"legacy single", `"https://x/y.png"`, ImageURLs{"https://x/y.png"}},
		{"null", nil, ImageURLs{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ImageURLs
			require.NoError(t, got.Scan(tt.src))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad ImageURLs
	assert.Error(t, bad.Scan(42))
}
