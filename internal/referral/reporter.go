package referral

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/backend"
	"storefront/internal/domain"
	applog "storefront/internal/log"
)

// Tracker is the backend endpoint that records referral visits.
type Tracker interface {
	TrackVisit(ctx context.Context, v backend.Visit, clientIP string) error
}

// Reporter sends one visit per qualifying page load. It never clears the
// attribution cookies, so every page load inside the 30 day window reports
// again; deduplication is the backend's call. Failures are logged only.
type Reporter struct {
	api     Tracker
	timeout time.Duration
	now     func() time.Time
	tracer  trace.Tracer
	wg      sync.WaitGroup
}

func NewReporter(api Tracker, timeout time.Duration) *Reporter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Reporter{
		api:     api,
		timeout: timeout,
		now:     time.Now,
		tracer:  otel.Tracer("storefront/referral"),
	}
}

// Visit builds the report for a, or returns false when a does not qualify.
func (r *Reporter) Visit(a domain.Referral, productID, pageURL, userAgent string) (backend.Visit, bool) {
	if !Qualifies(a) {
		return backend.Visit{}, false
	}
	v := backend.Visit{
		ReferralCode: a.Code,
		ProductID:    productID,
		PageURL:      pageURL,
		UserAgent:    userAgent,
		UTMSource:    a.UTMSource,
		UTMMedium:    a.UTMMedium,
		UTMCampaign:  a.UTMCampaign,
		UTMTerm:      a.UTMTerm,
		UTMContent:   a.UTMContent,
		CurrentVisit: r.now().UTC().Format(timestampLayout),
	}
	if !a.FirstVisit.IsZero() {
		v.FirstVisit = a.FirstVisit.UTC().Format(timestampLayout)
	}
	return v, true
}

// Report sends v and logs the outcome.
func (r *Reporter) Report(ctx context.Context, v backend.Visit, clientIP string) {
	ctx, span := r.tracer.Start(ctx, "referral.report", trace.WithAttributes(
		attribute.String("referral.code", v.ReferralCode),
		attribute.String("referral.product_id", v.ProductID),
	))
	defer span.End()

	if err := r.api.TrackVisit(ctx, v, clientIP); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "track visit failed")
		applog.Error(nil, "referral.report.fail", err, map[string]any{"code": v.ReferralCode, "page": v.PageURL})
		return
	}
	applog.Info(nil, "referral.report", map[string]any{
		"code": v.ReferralCode, "product": v.ProductID, "source": v.UTMSource, "campaign": v.UTMCampaign,
	})
}

// Track reports after the page handler has run. productParam names the route
// parameter holding the product id; empty means the page is not product
// scoped.
func (r *Reporter) Track(productParam string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		var productID string
		if productParam != "" {
			productID = strings.Clone(c.Params(productParam))
		}
		pageURL := c.BaseURL() + strings.Clone(c.OriginalURL())
		v, ok := r.Visit(Attribution(c), productID, pageURL, strings.Clone(c.Get(fiber.HeaderUserAgent)))
		if !ok {
			return err
		}
		ip := strings.Clone(c.IP())

		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			defer cancel()
			r.Report(ctx, v, ip)
		}()
		return err
	}
}

// Wait blocks until every report started by Track has finished.
func (r *Reporter) Wait() { r.wg.Wait() }
