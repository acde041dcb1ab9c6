package report

import (
	"context"

	"github.com/finops/backend/internal/domain/report"
)

// FeedService answers unified transaction feed queries. The heavy lifting
// (union, filter, sort, paginate) happens in the storage layer so results
// always reflect current committed state.
type FeedService struct {
	feed report.FeedRepository
}

// NewFeedService creates a new FeedService
func NewFeedService(feed report.FeedRepository) *FeedService {
	return &FeedService{feed: feed}
}

// Query validates and normalizes the filter, then delegates to the store.
func (s *FeedService) Query(ctx context.Context, filter report.FeedFilter) (*report.FeedPage, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	filter.Normalize()
	return s.feed.Query(ctx, filter)
}
