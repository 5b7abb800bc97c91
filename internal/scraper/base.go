// Package scraper defines the interface every job-board scraper implements.
package scraper

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"go-ronin-automation/internal/models"
)

// Scraper discovers postings on one platform. Implementations return raw
// postings in DISCOVERED status; scoring and persistence happen upstream.
type Scraper interface {
	// Scrape collects postings from the platform using the given page.
	Scrape(ctx context.Context, page playwright.Page) ([]models.JobPosting, error)

	// Name is the platform name, also used as JobPosting.Source.
	Name() string
}
