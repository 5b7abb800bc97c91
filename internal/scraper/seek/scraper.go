// Package seek scrapes job postings from seek.com.au search results.
package seek

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-ronin-automation/internal/config"
	"go-ronin-automation/internal/models"
	"go-ronin-automation/utils"
)

const maxCardsPerSearch = 20

// jobIDRegex extracts the numeric posting id from a seek job URL, e.g.
// /job/81234567?type=standard.
var jobIDRegex = regexp.MustCompile(`/job/(\d+)`)

// agoRegex parses seek's relative dates ("3d ago", "12h ago", "30m ago").
var agoRegex = regexp.MustCompile(`(?i)(\d+)\s*([mhd])\s*ago`)

type Scraper struct {
	cfg   *config.Config
	shots *utils.ScreenshotDebugger
	log   *slog.Logger
}

func NewScraper(cfg *config.Config, log *slog.Logger) *Scraper {
	return &Scraper{cfg: cfg, shots: utils.NewScreenshotDebugger(log), log: log}
}

func (s *Scraper) Name() string {
	return "seek"
}

// Scrape runs one search per configured keyword and extracts the result
// cards. Blocks and challenges skip the search, never fail the run.
func (s *Scraper) Scrape(ctx context.Context, page playwright.Page) ([]models.JobPosting, error) {
	var all []models.JobPosting

	// warm-up visit so the first search does not arrive out of nowhere
	s.log.Info("navigating to seek home for warm-up")
	if _, err := page.Goto("https://www.seek.com.au/", playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return nil, fmt.Errorf("seek warm-up failed: %w", err)
	}
	utils.RandomDelay(2000, 5000)
	utils.MouseJiggle(page)

	for _, keyword := range s.cfg.Scrape.Keywords {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		jobs, err := s.scrapeKeyword(ctx, page, keyword)
		if err != nil {
			s.log.Warn("search failed, continuing",
				slog.String("keyword", keyword), slog.String("err", err.Error()))
			continue
		}
		all = append(all, jobs...)
	}

	return dedupeByURL(all), nil
}

func (s *Scraper) scrapeKeyword(ctx context.Context, page playwright.Page, keyword string) ([]models.JobPosting, error) {
	// "golang developer" -> golang-developer-jobs
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(keyword)), " ", "-")
	url := fmt.Sprintf("https://www.seek.com.au/%s-jobs", slug)
	if s.cfg.Scrape.Location != "" {
		locSlug := strings.ReplaceAll(strings.ToLower(s.cfg.Scrape.Location), " ", "-")
		url = fmt.Sprintf("%s/in-%s", url, locSlug)
	}
	url += "?sortmode=ListedDate"
	s.log.Info("searching seek", slog.String("keyword", keyword), slog.String("url", url))

	page.SetExtraHTTPHeaders(map[string]string{"Referer": "https://www.seek.com.au/"})
	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return nil, err
	}

	if blocked, _ := s.blocked(page); blocked {
		s.shots.Capture(page, "seek-blocked", "seek served a challenge page")
		return nil, fmt.Errorf("blocked on %s", url)
	}

	// human behavior
	utils.RandomDelay(1000, 2000)
	utils.MouseJiggle(page)
	utils.SmoothScroll(page)
	utils.RandomDelay(500, 1000)

	cards, err := page.Locator("[data-automation='normalJob'], article[data-card-type='JobCard']").All()
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		s.log.Info("no results", slog.String("keyword", keyword))
		return nil, nil
	}
	s.log.Info("found job cards", slog.String("keyword", keyword), slog.Int("count", len(cards)))

	var jobs []models.JobPosting
	for _, card := range cards {
		if len(jobs) >= maxCardsPerSearch {
			break
		}
		if err := ctx.Err(); err != nil {
			return jobs, err
		}

		posting, ok := s.extractCard(card)
		if !ok {
			continue
		}
		if kw := s.excludedKeyword(posting); kw != "" {
			s.log.Debug("skipped by exclude keyword",
				slog.String("keyword", kw), slog.String("title", posting.Title))
			continue
		}
		jobs = append(jobs, posting)
	}
	return jobs, nil
}

// extractCard pulls one posting out of a search result card.
func (s *Scraper) extractCard(card playwright.Locator) (models.JobPosting, bool) {
	titleEl := card.Locator("[data-automation='jobTitle']").First()
	title, _ := titleEl.TextContent()
	href, _ := titleEl.GetAttribute("href")

	company, _ := card.Locator("[data-automation='jobCompany']").First().TextContent()
	location, _ := card.Locator("[data-automation='jobLocation']").First().TextContent()

	salary, err := card.Locator("[data-automation='jobSalary']").First().TextContent(
		playwright.LocatorTextContentOptions{Timeout: playwright.Float(100)})
	if err != nil {
		salary = ""
	}
	listed, err := card.Locator("[data-automation='jobListingDate']").First().TextContent(
		playwright.LocatorTextContentOptions{Timeout: playwright.Float(100)})
	if err != nil {
		listed = ""
	}

	title = strings.TrimSpace(title)
	href = strings.TrimSpace(href)
	if title == "" || href == "" {
		return models.JobPosting{}, false
	}

	externalID := extractJobID(href)
	if externalID == "" {
		return models.JobPosting{}, false
	}
	if strings.HasPrefix(href, "/") {
		href = "https://www.seek.com.au" + href
	}

	// seek marks postings with its native one-session flow
	quickApply := false
	if count, _ := card.Locator("[data-automation='quick-apply'], :text('Quick apply')").Count(); count > 0 {
		quickApply = true
	}

	return models.JobPosting{
		Source:     s.Name(),
		ExternalID: externalID,
		Title:      title,
		Company:    strings.TrimSpace(company),
		URL:        href,
		Salary:     strings.TrimSpace(salary),
		Location:   strings.TrimSpace(location),
		PostedAt:   parseListedDate(listed, time.Now()),
		QuickApply: quickApply,
		Status:     models.StatusDiscovered,
	}, true
}

// blocked checks the usual challenge tells.
func (s *Scraper) blocked(page playwright.Page) (bool, error) {
	title, err := page.Title()
	if err != nil {
		return false, err
	}
	for _, tell := range []string{"Just a moment", "Attention Required", "Access Denied", "Cloudflare"} {
		if strings.Contains(title, tell) {
			return true, nil
		}
	}
	count, _ := page.Locator(".captcha, .recaptcha, [data-captcha]").Count()
	return count > 0, nil
}

func (s *Scraper) excludedKeyword(p models.JobPosting) string {
	text := strings.ToLower(p.Title + " " + p.Company)
	for _, kw := range s.cfg.Scrape.ExcludeKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

func extractJobID(href string) string {
	if match := jobIDRegex.FindStringSubmatch(href); match != nil {
		return match[1]
	}
	return ""
}

// parseListedDate turns seek's "3d ago" style labels into an absolute time.
// Unparseable labels return the zero time, which the recency filter accepts.
func parseListedDate(listed string, now time.Time) time.Time {
	match := agoRegex.FindStringSubmatch(listed)
	if match == nil {
		return time.Time{}
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}
	}
	switch strings.ToLower(match[2]) {
	case "m":
		return now.Add(-time.Duration(n) * time.Minute)
	case "h":
		return now.Add(-time.Duration(n) * time.Hour)
	case "d":
		return now.AddDate(0, 0, -n)
	}
	return time.Time{}
}

func dedupeByURL(jobs []models.JobPosting) []models.JobPosting {
	seen := make(map[string]bool, len(jobs))
	out := make([]models.JobPosting, 0, len(jobs))
	for _, j := range jobs {
		if seen[j.URL] {
			continue
		}
		seen[j.URL] = true
		out = append(out, j)
	}
	return out
}
