package resources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/samvad-hq/bizdesk/internal/domain"
	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

const dateLayout = "2006-01-02"

// DashboardService reads aggregated metrics and account summaries.
type DashboardService struct{ base }

func (s *DashboardService) Metrics(ctx context.Context) (*apiclient.Response, error) {
	return s.call(ctx, opDashboardMetrics, nil, nil)
}

// SalesSeries fetches the sales time series. Zero dates and a nil UserOnly are
// left out of the query string.
func (s *DashboardService) SalesSeries(ctx context.Context, q domain.SalesSeriesQuery) (*apiclient.Response, error) {
	return s.call(ctx, opSalesSeries, salesSeriesQuery(q), nil)
}

func (s *DashboardService) Accounts(ctx context.Context) (*apiclient.Response, error) {
	return s.call(ctx, opDashboardAccounts, nil, nil)
}

func (s *DashboardService) AllAccounts(ctx context.Context) (*apiclient.Response, error) {
	return s.call(ctx, opAllAccounts, nil, nil)
}

func salesSeriesQuery(q domain.SalesSeriesQuery) url.Values {
	values := url.Values{}
	if !q.From.IsZero() {
		values.Set("from", q.From.Format(dateLayout))
	}
	if !q.To.IsZero() {
		values.Set("to", q.To.Format(dateLayout))
	}
	if q.UserOnly != nil {
		values.Set("userOnly", strconv.FormatBool(*q.UserOnly))
	}
	return values
}
