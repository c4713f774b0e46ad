package backend

import (
	"context"
	"net/http"
)

// Visit is one referral landing reported to the backend.
type Visit struct {
	ReferralCode string `json:"referral_code"`
	ProductID    string `json:"product_id,omitempty"`
	PageURL      string `json:"page_url"`
	UserAgent    string `json:"user_agent"`
	// IPAddress stays empty; the backend resolves it from X-Forwarded-For.
	IPAddress    string `json:"ip_address"`
	UTMSource    string `json:"utm_source,omitempty"`
	UTMMedium    string `json:"utm_medium,omitempty"`
	UTMCampaign  string `json:"utm_campaign,omitempty"`
	UTMTerm      string `json:"utm_term,omitempty"`
	UTMContent   string `json:"utm_content,omitempty"`
	FirstVisit   string `json:"first_visit,omitempty"`
	CurrentVisit string `json:"current_visit"`
}

func (c *Client) TrackVisit(ctx context.Context, v Visit, clientIP string) error {
	var h http.Header
	if clientIP != "" {
		h = http.Header{"X-Forwarded-For": []string{clientIP}}
	}
	return c.do(ctx, http.MethodPost, c.referralVisitsURL(), "", v, nil, h)
}
