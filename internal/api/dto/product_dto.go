package dto

import (
	"time"

	"github.com/spec-kit/storefront-service/internal/domain"
)

// ProductRequest is the JSON form of a product write. Absent fields stay nil.
type ProductRequest struct {
	SlNo          *int     `json:"sl_no"`
	ProductName   *string  `json:"product_name"`
	Description   *string  `json:"description"`
	Images        []string `json:"images"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Price         *int     `json:"price"`
	OfferPrice    *int     `json:"offer_price"`
	AffiliateLink *string  `json:"affiliate_link"`
	// accepted for payloads produced by older clients
	AffiateLink *string `json:"affiate_link"`
	AgentName   *string `json:"agent_name"`
	Category    *string `json:"category"`
}

// ProductResponse is the public view of a product.
type ProductResponse struct {
	ID            string    `json:"id"`
	SlNo          int       `json:"sl_no"`
	ProductName   string    `json:"product_name"`
	Description   string    `json:"description"`
	Images        []string  `json:"images"`
	Sizes         []string  `json:"sizes"`
	Colors        []string  `json:"colors"`
	Price         int       `json:"price"`
	OfferPrice    int       `json:"offer_price"`
	AffiliateLink string    `json:"affiliate_link"`
	AgentName     string    `json:"agent_name"`
	Category      string    `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewProductResponse maps a domain product.
func NewProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		SlNo:          p.SlNo,
		ProductName:   p.ProductName,
		Description:   p.Description,
		Images:        orEmpty(p.Images),
		Sizes:         orEmpty(p.Sizes),
		Colors:        orEmpty(p.Colors),
		Price:         p.Price,
		OfferPrice:    p.OfferPrice,
		AffiliateLink: p.AffiliateLink,
		AgentName:     p.AgentName,
		Category:      p.Category,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// NewProductResponses maps a list of products.
func NewProductResponses(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, NewProductResponse(&products[i]))
	}
	return out
}

// ImportItemResponse reports one bulk import entry.
type ImportItemResponse struct {
	Index       int    `json:"index"`
	ProductName string `json:"product_name"`
	Success     bool   `json:"success"`
	ProductID   string `json:"product_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ImportResponse summarizes a bulk import.
type ImportResponse struct {
	Message              string               `json:"message"`
	TotalProducts        int                  `json:"total_products"`
	SuccessfulInsertions int                  `json:"successful_insertions"`
	FailedInsertions     int                  `json:"failed_insertions"`
	Details              []ImportItemResponse `json:"details"`
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
