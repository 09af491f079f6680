package repository

import (
	"context"

	"github.com/spec-kit/storefront-service/internal/domain"
)

// ProductRepository defines persistence access for catalog entries.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlNo(ctx context.Context, slNo int) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Delete(ctx context.Context, id string) (*domain.Product, error)
}

const productColumns = `id, sl_no, product_name, description, images, sizes, colors, price, offer_price,
        affiliate_link, agent_name, category, created_at, updated_at`

type productRepository struct {
	db DB
}

// NewProductRepository returns a Postgres-backed implementation.
func NewProductRepository(db DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	const query = `
        INSERT INTO products (sl_no, product_name, description, images, sizes, colors, price, offer_price,
            affiliate_link, agent_name, category)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.SlNo,
		p.ProductName,
		p.Description,
		nonNil(p.Images),
		nonNil(p.Sizes),
		nonNil(p.Colors),
		p.Price,
		p.OfferPrice,
		p.AffiliateLink,
		p.AgentName,
		p.Category,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	const query = `
        UPDATE products SET sl_no=$1, product_name=$2, description=$3, images=$4, sizes=$5, colors=$6,
            price=$7, offer_price=$8, affiliate_link=$9, agent_name=$10, category=$11, updated_at=NOW()
        WHERE id=$12
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		p.SlNo,
		p.ProductName,
		p.Description,
		nonNil(p.Images),
		nonNil(p.Sizes),
		nonNil(p.Colors),
		p.Price,
		p.OfferPrice,
		p.AffiliateLink,
		p.AgentName,
		p.Category,
		p.ID,
	).Scan(&p.UpdatedAt)
	return mapError(err)
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	return scanProduct(r.db.QueryRow(ctx, query, id))
}

func (r *productRepository) GetBySlNo(ctx context.Context, slNo int) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sl_no=$1`
	return scanProduct(r.db.QueryRow(ctx, query, slNo))
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY sl_no`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *productRepository) Delete(ctx context.Context, id string) (*domain.Product, error) {
	query := `DELETE FROM products WHERE id=$1 RETURNING ` + productColumns
	return scanProduct(r.db.QueryRow(ctx, query, id))
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.SlNo,
		&p.ProductName,
		&p.Description,
		&p.Images,
		&p.Sizes,
		&p.Colors,
		&p.Price,
		&p.OfferPrice,
		&p.AffiliateLink,
		&p.AgentName,
		&p.Category,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
