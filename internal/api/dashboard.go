package api

import (
	"context"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/vidvault/client/internal/models"
)

const (
	dashboardRetries    = 3
	dashboardRetryDelay = 200 * time.Millisecond
)

// Dashboard fetches the video catalog. The list is returned exactly as the
// backend ordered it: no filtering, sorting, deduplication, or caching
// happens on this side. Transient network failures are retried a bounded
// number of times; an authorization failure is returned immediately for the
// session manager to act on.
func (c *Client) Dashboard(ctx context.Context) ([]models.Video, error) {
	var dashboard models.Dashboard

	err := retry.Do(
		func() error {
			return c.doJSON(ctx, http.MethodGet, "/dashboard", nil, &dashboard, "dashboard", reportUnauthorized)
		},
		retry.Attempts(dashboardRetries),
		retry.Delay(dashboardRetryDelay),
		retry.RetryIf(IsRetryable),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	return dashboard.Videos, nil
}
