// Package photos picks display image URLs for products.
package photos

import (
	"net/url"
	"strings"

	"storefront/internal/domain"
)

// DefaultBaseURL prefixes relative media paths.
const DefaultBaseURL = "http://127.0.0.1:8000"

// Resolver resolves photo records against a media base URL.
type Resolver struct {
	BaseURL string
}

var std = Resolver{BaseURL: DefaultBaseURL}

// URL returns the display URL of p, or "" when neither field is usable and
// the caller should fall back to a default image.
func (r Resolver) URL(p domain.Photo) string {
	if u := strings.TrimSpace(p.ImageURL); u != "" {
		return u
	}
	img := strings.TrimSpace(p.Image)
	if img == "" {
		return ""
	}
	if dec, err := url.PathUnescape(img); err == nil {
		img = dec
	}
	if isAbsolute(img) {
		return img
	}
	base := r.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(img, "/")
}

// All resolves every usable photo, dropping the rest.
func (r Resolver) All(ps []domain.Photo) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		if u := r.URL(p); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// First resolves the first photo only.
func (r Resolver) First(ps []domain.Photo) string {
	if len(ps) == 0 {
		return ""
	}
	return r.URL(ps[0])
}

// ProductImage returns the product's first usable photo, or a stock image
// picked from the product name and category.
func (r Resolver) ProductImage(name, category string, ps []domain.Photo) string {
	if u := r.First(ps); u != "" {
		return u
	}
	return DefaultImage(name, category)
}

func URL(p domain.Photo) string { return std.URL(p) }

func All(ps []domain.Photo) []string { return std.All(ps) }

func First(ps []domain.Photo) string { return std.First(ps) }

func isAbsolute(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
