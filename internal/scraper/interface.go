package scraper

import (
	"context"

	"github.com/MrJJimenez/jobscout/internal/models"
)

// Scraper collects raw postings from one job source.
//
// Scrape never returns an error: failures, including cancellation through
// ctx, are reported in the result's Errors. Any session a scrape opens is
// released before Scrape returns.
type Scraper interface {
	Name() models.Source
	Scrape(ctx context.Context, cfg models.ScrapeConfig) models.ScraperResult
	Close() error
}
