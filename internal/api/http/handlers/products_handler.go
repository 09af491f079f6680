package handlers

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-service/internal/api/dto"
	"github.com/spec-kit/storefront-service/internal/service"
	apperrors "github.com/spec-kit/storefront-service/pkg/util"
)

// ProductsHandler exposes catalog endpoints.
type ProductsHandler struct {
	products  *service.ProductService
	publicURL string
}

// NewProductsHandler constructs handler. When publicURL is empty image links use the request base URL.
func NewProductsHandler(products *service.ProductService, publicURL string) *ProductsHandler {
	return &ProductsHandler{products: products, publicURL: strings.TrimSuffix(publicURL, "/")}
}

// Create handles POST /api/products.
func (h *ProductsHandler) Create(c *fiber.Ctx) error {
	input, images, err := h.parseProduct(c)
	if err != nil {
		return err
	}
	product, err := h.products.Create(c.UserContext(), input, images, h.baseURL(c))
	if err != nil {
		return mapServiceError(err, "product")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":         "product created",
		"data":            dto.NewProductResponse(product),
		"uploaded_images": uploadedURLs(product.Images, len(images)),
	})
}

// List handles GET /api/products.
func (h *ProductsHandler) List(c *fiber.Ctx) error {
	products, err := h.products.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponses(products)})
}

// Get handles GET /api/products/:id.
func (h *ProductsHandler) Get(c *fiber.Ctx) error {
	product, err := h.products.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapServiceError(err, "product")
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Update handles PUT /api/products/:id.
func (h *ProductsHandler) Update(c *fiber.Ctx) error {
	input, images, err := h.parseProduct(c)
	if err != nil {
		return err
	}
	product, err := h.products.Update(c.UserContext(), c.Params("id"), input, images, h.baseURL(c))
	if err != nil {
		return mapServiceError(err, "product")
	}
	return c.JSON(fiber.Map{
		"message":         "product updated",
		"data":            dto.NewProductResponse(product),
		"uploaded_images": uploadedURLs(product.Images, len(images)),
	})
}

// Delete handles DELETE /api/products/:id.
func (h *ProductsHandler) Delete(c *fiber.Ctx) error {
	product, err := h.products.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapServiceError(err, "product")
	}
	return c.JSON(fiber.Map{
		"message": "product deleted",
		"data":    dto.NewProductResponse(product),
	})
}

// Import handles POST /api/products/import with a JSON array body.
func (h *ProductsHandler) Import(c *fiber.Ctx) error {
	var reqs []dto.ProductRequest
	if err := c.BodyParser(&reqs); err != nil {
		return apperrors.NewValidationError("expected a JSON array of products", nil)
	}
	items := make([]service.ProductInput, 0, len(reqs))
	for _, req := range reqs {
		items = append(items, inputFromRequest(req))
	}

	report, err := h.products.Import(c.UserContext(), items)
	if err != nil {
		return mapServiceError(err, "product")
	}

	resp := dto.ImportResponse{
		Message:              "bulk insertion completed",
		TotalProducts:        report.Total,
		SuccessfulInsertions: report.Succeeded,
		FailedInsertions:     report.Failed,
		Details:              make([]dto.ImportItemResponse, 0, len(report.Details)),
	}
	for _, d := range report.Details {
		resp.Details = append(resp.Details, dto.ImportItemResponse{
			Index:       d.Index,
			ProductName: d.ProductName,
			Success:     d.Error == "",
			ProductID:   d.ProductID,
			Error:       d.Error,
		})
	}
	return c.JSON(resp)
}

func (h *ProductsHandler) baseURL(c *fiber.Ctx) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	return c.BaseURL()
}

// parseProduct reads a JSON body or a multipart/urlencoded form carrying product fields and images.
func (h *ProductsHandler) parseProduct(c *fiber.Ctx) (service.ProductInput, []service.ImageFile, error) {
	if c.Is("json") {
		var req dto.ProductRequest
		if err := c.BodyParser(&req); err != nil {
			return service.ProductInput{}, nil, apperrors.NewValidationError("invalid payload", nil)
		}
		return inputFromRequest(req), nil, nil
	}

	var (
		in  service.ProductInput
		err error
	)
	if in.SlNo, err = formInt(c, "sl_no"); err != nil {
		return in, nil, err
	}
	if in.Price, err = formInt(c, "price"); err != nil {
		return in, nil, err
	}
	if in.OfferPrice, err = formInt(c, "offer_price"); err != nil {
		return in, nil, err
	}
	if in.Sizes, err = formList(c, "sizes"); err != nil {
		return in, nil, mapServiceError(err, "product")
	}
	if in.Colors, err = formList(c, "colors"); err != nil {
		return in, nil, mapServiceError(err, "product")
	}
	in.ProductName = formString(c, "product_name")
	in.Description = formString(c, "description")
	in.AgentName = formString(c, "agent_name")
	in.Category = formString(c, "category")
	in.AffiliateLink = formString(c, "affiliate_link")
	if in.AffiliateLink == nil {
		in.AffiliateLink = formString(c, "affiate_link")
	}

	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		return in, nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return in, nil, apperrors.NewValidationError("invalid multipart form", nil)
	}
	files := form.File["images"]
	if limit := h.products.Limits().MaxFiles; len(files) > limit {
		return in, nil, apperrors.NewValidationError("too many images", map[string]any{"max_files": limit})
	}
	images := make([]service.ImageFile, 0, len(files))
	for _, fh := range files {
		images = append(images, imageFromHeader(fh))
	}
	return in, images, nil
}

func imageFromHeader(fh *multipart.FileHeader) service.ImageFile {
	return service.ImageFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func inputFromRequest(req dto.ProductRequest) service.ProductInput {
	link := req.AffiliateLink
	if link == nil {
		link = req.AffiateLink
	}
	return service.ProductInput{
		SlNo:          req.SlNo,
		ProductName:   req.ProductName,
		Description:   req.Description,
		Images:        req.Images,
		Sizes:         req.Sizes,
		Colors:        req.Colors,
		Price:         req.Price,
		OfferPrice:    req.OfferPrice,
		AffiliateLink: link,
		AgentName:     req.AgentName,
		Category:      req.Category,
	}
}

func formString(c *fiber.Ctx, key string) *string {
	v := c.FormValue(key)
	if v == "" {
		return nil
	}
	return &v
}

func formInt(c *fiber.Ctx, key string) (*int, error) {
	v := strings.TrimSpace(c.FormValue(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, apperrors.NewValidationError(key+" must be an integer", map[string]any{"fields": []string{key}})
	}
	return &n, nil
}

func formList(c *fiber.Ctx, key string) ([]string, error) {
	v := c.FormValue(key)
	if v == "" {
		return nil, nil
	}
	return service.ParseList(key, v)
}

func uploadedURLs(images []string, uploaded int) []string {
	if uploaded == 0 {
		return []string{}
	}
	return images
}
