package filter

import "time"

const maxPostingAge = 60 * 24 * time.Hour

// IsRecent reports whether a posting is fresh enough to pursue. Postings
// without a parsed date pass; scrapers often cannot extract one and a
// missing date should not bury an otherwise good match.
func IsRecent(postedAt time.Time) bool {
	if postedAt.IsZero() {
		return true
	}

	diff := time.Since(postedAt)
	if diff > maxPostingAge {
		return false
	}
	// dates more than 2 days in the future are scraper artifacts
	if diff < -2*24*time.Hour {
		return false
	}
	return true
}
