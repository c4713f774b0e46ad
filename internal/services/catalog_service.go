package services

import (
	"context"
	"net/url"
	"strings"

	"storefront/internal/domain"
)

// Catalog is the backend's read side of the product catalog.
type Catalog interface {
	FeaturedProducts(ctx context.Context) ([]domain.Product, error)
	Products(ctx context.Context, q url.Values) ([]domain.Product, error)
	Product(ctx context.Context, id string) (domain.Product, error)
	LatestReviews(ctx context.Context) ([]domain.Review, error)
}

// RelatedLimit caps the related products shown beside a product.
const RelatedLimit = 4

// CategoryAll lists every product regardless of category.
const CategoryAll = "all"

type CatalogService struct {
	API Catalog
}

func NewCatalogService(api Catalog) *CatalogService {
	return &CatalogService{API: api}
}

func (s *CatalogService) Featured(ctx context.Context) ([]domain.Product, error) {
	return s.API.FeaturedProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.API.Product(ctx, id)
}

// Related lists up to n other catalog products, in catalog order.
func (s *CatalogService) Related(ctx context.Context, id string, n int) ([]domain.Product, error) {
	all, err := s.API.Products(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, n)
	for _, p := range all {
		if len(out) == n {
			break
		}
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *CatalogService) LatestReviews(ctx context.Context) ([]domain.Review, error) {
	return s.API.LatestReviews(ctx)
}

// Search matches q against product names and descriptions, case-insensitively.
// An empty q returns the whole catalog.
func (s *CatalogService) Search(ctx context.Context, q string) ([]domain.Product, error) {
	all, err := s.API.Products(ctx, nil)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return all, nil
	}
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListByCategory keeps the products whose category name slugs to slug.
func (s *CatalogService) ListByCategory(ctx context.Context, slug string) ([]domain.Product, error) {
	all, err := s.API.Products(ctx, nil)
	if err != nil {
		return nil, err
	}
	slug = Slug(slug)
	if slug == CategoryAll {
		return all, nil
	}
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if Slug(p.Category) == slug {
			out = append(out, p)
		}
	}
	return out, nil
}

// Slug lowercases name and joins its words with dashes.
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
