package photos

import "strings"

const fallbackImage = "https://images.unsplash.com/photo-1441986300917-64674bd600d8?w=400&h=400&fit=crop"

var categoryImages = map[string]string{
	"electronics": "https://images.unsplash.com/photo-1441986300917-64674bd600d8?w=400&h=400&fit=crop",
	"clothing":    "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=400&h=400&fit=crop",
	"shoes":       "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=400&h=400&fit=crop",
	"books":       "https://images.unsplash.com/photo-1481627834876-b7833e8f5570?w=400&h=400&fit=crop",
	"home":        "https://images.unsplash.com/photo-1416879595882-3373a0480b5b?w=400&h=400&fit=crop",
	"sports":      "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400&h=400&fit=crop",
	"beauty":      "https://images.unsplash.com/photo-1596462502278-27bfdc403348?w=400&h=400&fit=crop",
	"toys":        "https://images.unsplash.com/photo-1558618666-fcd25c85cd64?w=400&h=400&fit=crop",
}

// keyword rules are checked in order against the lowercased product name.
var keywordRules = []struct {
	category string
	words    []string
}{
	{"electronics", []string{"phone", "iphone", "samsung", "galaxy"}},
	{"clothing", []string{"shirt", "dress", "clothing", "t-shirt"}},
	{"shoes", []string{"shoe", "nike", "adidas", "sneaker"}},
	{"books", []string{"book", "programming", "python"}},
	{"home", []string{"plant", "pot", "garden"}},
	{"sports", []string{"headphone", "speaker", "audio"}},
}

// DefaultImage picks a stock image for a product that has no photos.
func DefaultImage(name, category string) string {
	n := strings.ToLower(name)
	for _, rule := range keywordRules {
		for _, w := range rule.words {
			if strings.Contains(n, w) {
				return categoryImages[rule.category]
			}
		}
	}
	if img, ok := categoryImages[strings.ToLower(category)]; ok {
		return img
	}
	return fallbackImage
}
