package domain

import "time"

// Product is a catalog entry. Prices are integer minor units.
type Product struct {
	ID            string
	SlNo          int
	ProductName   string
	Description   string
	Images        []string
	Sizes         []string
	Colors        []string
	Price         int
	OfferPrice    int
	AffiliateLink string
	AgentName     string
	Category      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
