package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"storefront/internal/currency"
	"storefront/internal/domain"
)

// productDTO is the backend's product shape.
type productDTO struct {
	ID           json.Number    `json:"id"`
	Title        string         `json:"title"`
	Name         string         `json:"name"`
	PriceUZS     json.Number    `json:"price_uzs"`
	CategoryName string         `json:"category_name"`
	Description  string         `json:"description"`
	IsActive     *bool          `json:"is_active"`
	Rating       *float64       `json:"rating"`
	Photos       []domain.Photo `json:"photos"`
}

func (c *Client) toProduct(d productDTO) domain.Product {
	name := d.Title
	if name == "" {
		name = d.Name
	}
	if name == "" {
		name = "Untitled Product"
	}
	rating := 5.0
	if d.Rating != nil {
		rating = min(max(*d.Rating, 0), 5)
	}
	return domain.Product{
		ID:          d.ID.String(),
		Name:        name,
		Price:       currency.FromMinorUnits(d.PriceUZS.String()),
		Category:    d.CategoryName,
		Image:       c.photos.ProductImage(name, d.CategoryName, d.Photos),
		Rating:      rating,
		InStock:     d.IsActive == nil || *d.IsActive,
		Description: d.Description,
		Photos:      d.Photos,
	}
}

// productList accepts a bare array or a paginated {"results": [...]} page.
type productList []productDTO

func (l *productList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, (*[]productDTO)(l))
	}
	var page struct {
		Results []productDTO `json:"results"`
	}
	if err := json.Unmarshal(b, &page); err != nil {
		return err
	}
	*l = page.Results
	return nil
}

func (c *Client) products(ctx context.Context, u string) ([]domain.Product, error) {
	var list productList
	if err := c.do(ctx, http.MethodGet, u, "", nil, &list, nil); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(list))
	for _, d := range list {
		out = append(out, c.toProduct(d))
	}
	return out, nil
}

func (c *Client) FeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	return c.products(ctx, c.apiURL+"/api/products/featured")
}

// Products lists the catalog; q is passed through (search, category, page...).
func (c *Client) Products(ctx context.Context, q url.Values) ([]domain.Product, error) {
	u := c.apiURL + "/api/products"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return c.products(ctx, u)
}

func (c *Client) Product(ctx context.Context, id string) (domain.Product, error) {
	var d productDTO
	if err := c.do(ctx, http.MethodGet, c.apiURL+"/api/products/"+url.PathEscape(id), "", nil, &d, nil); err != nil {
		return domain.Product{}, err
	}
	return c.toProduct(d), nil
}
