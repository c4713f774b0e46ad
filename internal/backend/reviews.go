package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain"
)

// reviewDTO is one entry of the latest-reviews feed. product is either the
// product id or a nested {id, title} object.
type reviewDTO struct {
	ID            int64           `json:"id"`
	Product       json.RawMessage `json:"product"`
	ProductTitle  string          `json:"product_title"`
	UserName      string          `json:"user_name"`
	UserFirstName string          `json:"user_first_name"`
	UserLastName  string          `json:"user_last_name"`
	Rating        int             `json:"rating"`
	Comment       string          `json:"comment"`
	Verified      bool            `json:"verified"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (d reviewDTO) toReview() domain.Review {
	r := domain.Review{
		ID:           d.ID,
		ProductTitle: d.ProductTitle,
		Author:       strings.TrimSpace(d.UserFirstName + " " + d.UserLastName),
		Rating:       min(max(d.Rating, 0), 5),
		Comment:      d.Comment,
		Verified:     d.Verified,
		CreatedAt:    d.CreatedAt,
	}
	if r.Author == "" {
		r.Author = d.UserName
	}
	raw := bytes.TrimSpace(d.Product)
	if len(raw) > 0 && raw[0] == '{' {
		var p struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		}
		if json.Unmarshal(raw, &p) == nil {
			r.ProductID = p.ID
			if r.ProductTitle == "" {
				r.ProductTitle = p.Title
			}
		}
	} else {
		_ = json.Unmarshal(raw, &r.ProductID)
	}
	return r
}

// LatestReviews returns the newest reviews across the catalog.
func (c *Client) LatestReviews(ctx context.Context) ([]domain.Review, error) {
	var list []reviewDTO
	if err := c.do(ctx, http.MethodGet, c.apiURL+"/api/reviews/latest", "", nil, &list, nil); err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(list))
	for _, d := range list {
		out = append(out, d.toReview())
	}
	return out, nil
}
