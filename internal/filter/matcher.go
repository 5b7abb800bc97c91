// Package filter decides which discovered postings are worth applying to.
package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go-ronin-automation/internal/models"
)

var (
	seniorityRegex  = regexp.MustCompile(`(?i)\b(senior|lead|manager|principal|staff|architect|head\s+of)\b`)
	entryLevelRegex = regexp.MustCompile(`(?i)\b(junior|graduate|entry[\s-]?level|early\s+career|associate)\b`)
	yearsRegex      = regexp.MustCompile(`(?i)\b(\d{1,2})\s*\+?\s*years?\b`)
	remoteRegex     = regexp.MustCompile(`(?i)\b(remote|work\s+from\s+home|wfh|hybrid)\b`)
)

// Matcher scores postings against one candidate profile. Scores range 0-100;
// the orchestrator applies its own threshold.
type Matcher struct {
	profile         models.CandidateProfile
	excludeKeywords []string
}

func NewMatcher(profile models.CandidateProfile, excludeKeywords []string) *Matcher {
	return &Matcher{profile: profile, excludeKeywords: excludeKeywords}
}

// Score rates one posting and explains the rating. The rationale is
// persisted so a human can audit why a posting was or was not pursued.
func (m *Matcher) Score(p models.JobPosting) (int, string) {
	text := strings.ToLower(p.Title + " " + p.DescriptionRaw)
	title := strings.ToLower(p.Title)
	score := 0
	var reasons []string

	if kw := m.excludedKeyword(text); kw != "" {
		return 0, fmt.Sprintf("excluded keyword %q", kw)
	}
	if !IsRecent(p.PostedAt) {
		return 0, "posted more than 60 days ago"
	}

	// skills: the first match in the title is worth more than one buried in
	// the description
	matched := m.matchedSkills(text)
	switch {
	case len(matched) > 0 && strings.Contains(title, strings.ToLower(matched[0])):
		score += 30
		reasons = append(reasons, fmt.Sprintf("%s in title", matched[0]))
	case len(matched) > 0:
		score += 20
		reasons = append(reasons, fmt.Sprintf("%s in description", matched[0]))
	default:
		return 0, "no profile skill mentioned"
	}
	if extra := len(matched) - 1; extra > 0 {
		bonus := extra * 5
		if bonus > 20 {
			bonus = 20
		}
		score += bonus
		reasons = append(reasons, fmt.Sprintf("%d more skills matched", extra))
	}

	// seniority fit
	if seniorityRegex.MatchString(title) && m.profile.YearsExperience < 5 {
		score -= 40
		reasons = append(reasons, "seniority above profile")
	}
	if entryLevelRegex.MatchString(text) && m.profile.YearsExperience <= 3 {
		score += 15
		reasons = append(reasons, "entry level fit")
	}
	if years := requiredYears(text); years > m.profile.YearsExperience+1 {
		score -= 30
		reasons = append(reasons, fmt.Sprintf("asks %d+ years", years))
	}

	// location
	location := strings.ToLower(p.Location + " " + p.DescriptionRaw)
	switch {
	case remoteRegex.MatchString(location):
		score += 15
		reasons = append(reasons, "remote friendly")
	case m.profile.Location != "" && strings.Contains(location, strings.ToLower(m.profile.Location)):
		score += 15
		reasons = append(reasons, "local")
	case m.profile.RemoteOnly:
		score -= 30
		reasons = append(reasons, "onsite only")
	}

	if p.QuickApply {
		score += 10
		reasons = append(reasons, "quick apply")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score, strings.Join(reasons, ", ")
}

// matchedSkills returns the profile skills mentioned in the text, in profile
// order.
func (m *Matcher) matchedSkills(text string) []string {
	var matched []string
	for _, skill := range m.profile.Skills {
		if skill == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(skill)) {
			matched = append(matched, skill)
		}
	}
	return matched
}

func (m *Matcher) excludedKeyword(text string) string {
	for _, kw := range m.excludeKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

// requiredYears extracts the highest explicit years-of-experience demand, 0
// when none is stated.
func requiredYears(text string) int {
	max := 0
	for _, match := range yearsRegex.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(match[1]); err == nil && n > max {
			max = n
		}
	}
	return max
}
