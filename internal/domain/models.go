package domain

import "time"

// Product is the storefront's view of a catalog item. Prices are UZS.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      float64 `json:"rating"`
	InStock     bool    `json:"inStock"`
	Description string  `json:"description,omitempty"`
	Photos      []Photo `json:"photos,omitempty"`
}

// Photo is one photo record as the backend returns it. Any field may be empty.
type Photo struct {
	ID       int64  `json:"id,omitempty"`
	Image    string `json:"image,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	URL      string `json:"url,omitempty"`
	Alt      string `json:"alt,omitempty"`
}

// CartItem is a product with a quantity of at least one.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Referral holds the attribution captured from a referral link.
type Referral struct {
	Code        string    `json:"referral_code"`
	UTMSource   string    `json:"utm_source"`
	UTMMedium   string    `json:"utm_medium,omitempty"`
	UTMCampaign string    `json:"utm_campaign,omitempty"`
	UTMTerm     string    `json:"utm_term,omitempty"`
	UTMContent  string    `json:"utm_content,omitempty"`
	FirstVisit  time.Time `json:"first_visit"`
}

// Review is a product review as shown on the home page.
type Review struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"productId"`
	ProductTitle string    `json:"productTitle"`
	Author       string    `json:"author"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
}
