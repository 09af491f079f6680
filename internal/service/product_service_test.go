package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-service/internal/config"
	"github.com/spec-kit/storefront-service/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func image(name, contentType string, body string) ImageFile {
	return ImageFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewBufferString(body)), nil
		},
	}
}

func validProduct(slNo int) ProductInput {
	return ProductInput{
		SlNo:        ptr(slNo),
		ProductName: ptr("Linen shirt"),
		Description: ptr("Summer shirt"),
		Sizes:       []string{"S", "M"},
		Price:       ptr(2500),
		OfferPrice:  ptr(1999),
		AgentName:   ptr("Rita"),
		Category:    ptr("shirts"),
	}
}

func newProductFixture() (*ProductService, *testutil.ProductRepo, *testutil.FileStore) {
	repo := testutil.NewProductRepo()
	store := testutil.NewFileStore()
	svc := NewProductService(repo, store, config.UploadConfig{MaxFileBytes: 16, MaxFiles: 2}, nil)
	return svc, repo, store
}

func TestProductService_CreateWithImages(t *testing.T) {
	svc, _, store := newProductFixture()

	product, err := svc.Create(context.Background(), validProduct(1), []ImageFile{
		image("front.PNG", "image/png", "png-bytes"),
		image("back", "image/webp", "webp"),
	}, "http://shop.test")
	require.NoError(t, err)

	require.Len(t, product.Images, 2)
	assert.True(t, strings.HasPrefix(product.Images[0], "http://shop.test/uploads/products/"))
	assert.True(t, strings.HasSuffix(product.Images[0], ".png"))
	assert.True(t, strings.HasSuffix(product.Images[1], ".webp"))
	assert.Len(t, store.Keys(), 2)
}

func TestProductService_CreateValidation(t *testing.T) {
	svc, _, store := newProductFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, ProductInput{ProductName: ptr("x")}, nil, "")
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"sl_no", "description", "price", "offer_price", "agent_name", "category"}, fe.Fields)

	bad := validProduct(1)
	bad.Price = ptr(0)
	_, err = svc.Create(ctx, bad, nil, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, validProduct(1), []ImageFile{image("a.txt", "text/plain", "x")}, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, validProduct(1), []ImageFile{image("a.png", "image/png", strings.Repeat("x", 17))}, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, validProduct(1), []ImageFile{
		image("a.png", "image/png", "x"), image("b.png", "image/png", "x"), image("c.png", "image/png", "x"),
	}, "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, store.Keys())
}

func TestProductService_DuplicateSerial(t *testing.T) {
	svc, _, store := newProductFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, validProduct(7), nil, "")
	require.NoError(t, err)

	_, err = svc.Create(ctx, validProduct(7), []ImageFile{image("a.png", "image/png", "x")}, "")
	assert.ErrorIs(t, err, ErrDuplicateSerial)
	assert.Empty(t, store.Keys())
}

func TestProductService_StoreFailureSavesNothing(t *testing.T) {
	svc, repo, store := newProductFixture()
	store.SaveErr = errors.New("disk full")

	_, err := svc.Create(context.Background(), validProduct(1), []ImageFile{image("a.png", "image/png", "x")}, "")
	assert.ErrorContains(t, err, "disk full")
	products, _ := repo.List(context.Background())
	assert.Empty(t, products)
}

func TestProductService_Update(t *testing.T) {
	svc, _, _ := newProductFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, validProduct(1), []ImageFile{image("a.png", "image/png", "x")}, "http://shop.test")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, ProductInput{OfferPrice: ptr(1500)}, nil, "http://shop.test")
	require.NoError(t, err)
	assert.Equal(t, 1500, updated.OfferPrice)
	assert.Equal(t, 2500, updated.Price)
	assert.Equal(t, created.Images, updated.Images)

	replaced, err := svc.Update(ctx, created.ID, ProductInput{}, []ImageFile{image("b.gif", "image/gif", "y")}, "http://shop.test")
	require.NoError(t, err)
	require.Len(t, replaced.Images, 1)
	assert.NotEqual(t, created.Images[0], replaced.Images[0])

	_, err = svc.Update(ctx, "missing", ProductInput{}, nil, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(ctx, validProduct(2), nil, "")
	require.NoError(t, err)
	_, err = svc.Update(ctx, created.ID, ProductInput{SlNo: ptr(2)}, nil, "")
	assert.ErrorIs(t, err, ErrDuplicateSerial)
}

func TestProductService_GetListDelete(t *testing.T) {
	svc, _, _ := newProductFixture()
	ctx := context.Background()

	second, err := svc.Create(ctx, validProduct(2), nil, "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, validProduct(1), nil, "")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].SlNo)

	got, err := svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SlNo)

	_, err = svc.Delete(ctx, second.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductService_Import(t *testing.T) {
	svc, _, _ := newProductFixture()

	bad := validProduct(3)
	bad.Category = nil
	report, err := svc.Import(context.Background(), []ProductInput{validProduct(1), validProduct(1), bad, validProduct(2)})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.NotEmpty(t, report.Details[0].ProductID)
	assert.Equal(t, ErrDuplicateSerial.Error(), report.Details[1].Error)
	assert.Equal(t, "Linen shirt", report.Details[2].ProductName)

	_, err = svc.Import(context.Background(), nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseList(t *testing.T) {
	tests := []struct {
		raw     string
		want    []string
		wantErr bool
	}{
		{raw: "", want: []string{}},
		{raw: "S,M,L", want: []string{"S", "M", "L"}},
		{raw: " S, M ,, L ", want: []string{"S", "M", "L"}},
		{raw: `["Red","Blue"]`, want: []string{"Red", "Blue"}},
		{raw: `[]`, want: []string{}},
		{raw: `["Red",`, want: []string{`["Red"`}},
		{raw: `[1,2]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseList("sizes", tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
