package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-service/internal/config"
	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/filestore"
	"github.com/spec-kit/storefront-service/internal/repository"
)

// ErrInvalidImage is wrapped by upload validation failures.
var ErrInvalidImage = errors.New("only image files are allowed")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageFile is one uploaded image awaiting storage.
type ImageFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// ProductInput carries product fields. Nil fields are left untouched on update.
type ProductInput struct {
	SlNo          *int
	ProductName   *string
	Description   *string
	Images        []string
	Sizes         []string
	Colors        []string
	Price         *int
	OfferPrice    *int
	AffiliateLink *string
	AgentName     *string
	Category      *string
}

// ImportResult reports the outcome for one imported product.
type ImportResult struct {
	Index       int
	ProductName string
	ProductID   string
	Error       string
}

// ImportReport summarizes a bulk import.
type ImportReport struct {
	Total     int
	Succeeded int
	Failed    int
	Details   []ImportResult
}

// ProductService manages the catalog and its images.
type ProductService struct {
	products repository.ProductRepository
	store    filestore.Store
	limits   config.UploadConfig
	logger   *zap.Logger
}

// NewProductService builds the service.
func NewProductService(products repository.ProductRepository, store filestore.Store, limits config.UploadConfig, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.MaxFileBytes <= 0 {
		limits.MaxFileBytes = 5 * 1024 * 1024
	}
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = 10
	}
	return &ProductService{products: products, store: store, limits: limits, logger: logger}
}

// Limits returns the upload bounds enforced by the service.
func (s *ProductService) Limits() config.UploadConfig {
	return s.limits
}

// Create validates the input, stores the images and persists the product.
func (s *ProductService) Create(ctx context.Context, in ProductInput, images []ImageFile, baseURL string) (*domain.Product, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	if err := s.validateImages(images); err != nil {
		return nil, err
	}
	if _, err := s.products.GetBySlNo(ctx, *in.SlNo); err == nil {
		return nil, ErrDuplicateSerial
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	keys, urls, err := s.saveImages(ctx, images, baseURL)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{}
	applyInput(product, in)
	if len(urls) > 0 {
		product.Images = urls
	}
	if err := s.products.Create(ctx, product); err != nil {
		s.removeImages(keys)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateSerial
		}
		return nil, err
	}
	return product, nil
}

// Update applies the non-nil fields. New images replace the stored list.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput, images []ImageFile, baseURL string) (*domain.Product, error) {
	if err := validateUpdate(in); err != nil {
		return nil, err
	}
	if err := s.validateImages(images); err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}

	keys, urls, err := s.saveImages(ctx, images, baseURL)
	if err != nil {
		return nil, err
	}
	applyInput(product, in)
	if len(urls) > 0 {
		product.Images = urls
	}
	if err := s.products.Update(ctx, product); err != nil {
		s.removeImages(keys)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateSerial
		}
		return nil, wrapNotFound(err)
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return product, nil
}

// Delete removes the product and returns the removed row.
func (s *ProductService) Delete(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.Delete(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return product, nil
}

// Import creates each product independently and reports per-item outcomes.
func (s *ProductService) Import(ctx context.Context, items []ProductInput) (*ImportReport, error) {
	if len(items) == 0 {
		return nil, invalidField("products", "no products supplied")
	}
	report := &ImportReport{Total: len(items), Details: make([]ImportResult, 0, len(items))}
	for i, in := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := ImportResult{Index: i}
		if in.ProductName != nil {
			res.ProductName = *in.ProductName
		}
		product, err := s.Create(ctx, in, nil, "")
		if err != nil {
			if !errors.Is(err, ErrValidation) && !errors.Is(err, ErrDuplicateSerial) {
				s.logger.Warn("product import failed", zap.Int("index", i), zap.Error(err))
			}
			res.Error = err.Error()
			report.Failed++
		} else {
			res.ProductID = product.ID
			report.Succeeded++
		}
		report.Details = append(report.Details, res)
	}
	return report, nil
}

func (s *ProductService) validateImages(images []ImageFile) error {
	if len(images) > s.limits.MaxFiles {
		return invalidField("images", fmt.Sprintf("at most %d images per request", s.limits.MaxFiles))
	}
	for _, img := range images {
		if _, ok := imageExtensions[strings.ToLower(img.ContentType)]; !ok {
			return &FieldError{Fields: []string{"images"}, Message: ErrInvalidImage.Error()}
		}
		if img.Size > s.limits.MaxFileBytes {
			return invalidField("images", fmt.Sprintf("image %s exceeds %d bytes", img.Name, s.limits.MaxFileBytes))
		}
	}
	return nil
}

// saveImages writes every image or none of them.
func (s *ProductService) saveImages(ctx context.Context, images []ImageFile, baseURL string) ([]string, []string, error) {
	keys := make([]string, 0, len(images))
	urls := make([]string, 0, len(images))
	for _, img := range images {
		key := "products/" + uuid.NewString() + imageExt(img)
		if err := s.saveImage(ctx, key, img); err != nil {
			s.removeImages(keys)
			return nil, nil, fmt.Errorf("store image %s: %w", img.Name, err)
		}
		keys = append(keys, key)
		urls = append(urls, s.store.URL(key, baseURL))
	}
	return keys, urls, nil
}

func (s *ProductService) saveImage(ctx context.Context, key string, img ImageFile) error {
	r, err := img.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	return s.store.Save(ctx, key, r, img.Size, strings.ToLower(img.ContentType))
}

func (s *ProductService) removeImages(keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(context.Background(), key); err != nil {
			s.logger.Warn("orphaned upload", zap.String("key", key), zap.Error(err))
		}
	}
}

func imageExt(img ImageFile) string {
	ext := strings.ToLower(filepath.Ext(img.Name))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	}
	return imageExtensions[strings.ToLower(img.ContentType)]
}

func validateCreate(in ProductInput) error {
	var missing []string
	if in.SlNo == nil {
		missing = append(missing, "sl_no")
	}
	if blank(in.ProductName) {
		missing = append(missing, "product_name")
	}
	if blank(in.Description) {
		missing = append(missing, "description")
	}
	if in.Price == nil {
		missing = append(missing, "price")
	}
	if in.OfferPrice == nil {
		missing = append(missing, "offer_price")
	}
	if blank(in.AgentName) {
		missing = append(missing, "agent_name")
	}
	if blank(in.Category) {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return missingFields(missing...)
	}
	return validateUpdate(in)
}

func validateUpdate(in ProductInput) error {
	if in.SlNo != nil && *in.SlNo <= 0 {
		return invalidField("sl_no", "sl_no must be positive")
	}
	if in.Price != nil && *in.Price <= 0 {
		return invalidField("price", "price must be positive")
	}
	if in.OfferPrice != nil && *in.OfferPrice <= 0 {
		return invalidField("offer_price", "offer_price must be positive")
	}
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"product_name", in.ProductName},
		{"description", in.Description},
		{"agent_name", in.AgentName},
		{"category", in.Category},
	} {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return invalidField(f.name, f.name+" must not be empty")
		}
	}
	return nil
}

func applyInput(p *domain.Product, in ProductInput) {
	if in.SlNo != nil {
		p.SlNo = *in.SlNo
	}
	if in.ProductName != nil {
		p.ProductName = strings.TrimSpace(*in.ProductName)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.Sizes != nil {
		p.Sizes = in.Sizes
	}
	if in.Colors != nil {
		p.Colors = in.Colors
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.OfferPrice != nil {
		p.OfferPrice = *in.OfferPrice
	}
	if in.AffiliateLink != nil {
		p.AffiliateLink = strings.TrimSpace(*in.AffiliateLink)
	}
	if in.AgentName != nil {
		p.AgentName = strings.TrimSpace(*in.AgentName)
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
}

func blank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}

// ParseList accepts either a JSON array of strings or a comma separated list.
func ParseList(field, raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, invalidField(field, fmt.Sprintf(`invalid %s format; use a JSON array like ["a","b"] or a comma separated list like "a,b"`, field))
		}
		if out == nil {
			out = []string{}
		}
		return out, nil
	}
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}
