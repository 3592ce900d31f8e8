package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sadewadee/social-analytics/internal/domain"
)

// DefaultTimeseriesWindow is the lookback used when the caller does not
// bound the timeseries query
const DefaultTimeseriesWindow = 7 * 24 * time.Hour

// AnalyticsService serves the dashboard's aggregate views
type AnalyticsService struct {
	accounts  domain.AccountRepository
	analytics domain.AnalyticsRepository
}

// NewAnalyticsService creates an analytics service
func NewAnalyticsService(accounts domain.AccountRepository, analytics domain.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{accounts: accounts, analytics: analytics}
}

// GetOverview returns the aggregate metrics for one user's accounts
func (s *AnalyticsService) GetOverview(ctx context.Context, userID uuid.UUID) (*domain.Overview, error) {
	overview, err := s.analytics.GetOverview(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load overview: %w", err)
	}
	return overview, nil
}

// GetTimeseries returns hourly buckets for one of the user's accounts.
// Zero bounds default to the last week ending now; an inverted window is
// an error.
func (s *AnalyticsService) GetTimeseries(ctx context.Context, userID, accountID uuid.UUID, from, to time.Time) ([]domain.TimeseriesPoint, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, domain.ErrAccountNotFound
	}

	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-DefaultTimeseriesWindow)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("invalid time range: from %s is not before to %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	points, err := s.analytics.GetTimeseries(ctx, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeseries: %w", err)
	}
	return points, nil
}

// ListAccounts returns the user's linked accounts
func (s *AnalyticsService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.SocialAccount, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
