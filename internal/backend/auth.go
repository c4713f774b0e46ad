package backend

import (
	"context"
	"net/http"

	"storefront/internal/domain"
)

// Tokens is what login and register answer with.
type Tokens struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh,omitempty"`
	User    *domain.User `json:"user,omitempty"`
}

type RegisterRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Password2    string `json:"password2"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
	ReferralCode string `json:"referral_code,omitempty"`
}

func (c *Client) Login(ctx context.Context, username, password string) (Tokens, error) {
	var out Tokens
	in := map[string]string{"username": username, "password": password}
	err := c.do(ctx, http.MethodPost, c.apiURL+"/api/auth/login/", "", in, &out, nil)
	return out, err
}

func (c *Client) Register(ctx context.Context, r RegisterRequest) (Tokens, error) {
	var out Tokens
	err := c.do(ctx, http.MethodPost, c.apiURL+"/api/auth/register/", "", r, &out, nil)
	return out, err
}

// CurrentUser fetches the profile behind token. An invalid token yields an
// error matching ErrUnauthorized.
func (c *Client) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodGet, c.AuthUserURL(), token, nil, &u, nil); err != nil {
		return nil, err
	}
	return &u, nil
}
