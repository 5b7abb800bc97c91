package filter

import (
	"strings"
	"testing"
	"time"

	"go-ronin-automation/internal/models"
)

func testMatcher() *Matcher {
	return NewMatcher(models.CandidateProfile{
		Skills:          []string{"Go", "Kubernetes", "PostgreSQL"},
		Location:        "Sydney",
		YearsExperience: 2,
	}, []string{"clearance required", "unpaid"})
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		posting  models.JobPosting
		min, max int
	}{
		{
			name: "strong match",
			posting: models.JobPosting{
				Title:          "Junior Go Developer",
				DescriptionRaw: "Go, Kubernetes and PostgreSQL in a remote-first team",
				Location:       "Sydney",
				QuickApply:     true,
			},
			min: 70, max: 100,
		},
		{
			name: "skill only in description",
			posting: models.JobPosting{
				Title:          "Backend Developer",
				DescriptionRaw: "We use Go on AWS",
				Location:       "Sydney",
			},
			min: 20, max: 50,
		},
		{
			name: "seniority mismatch",
			posting: models.JobPosting{
				Title:          "Principal Go Architect",
				DescriptionRaw: "10+ years experience required",
			},
			min: 0, max: 0,
		},
		{
			name: "no relevant skills",
			posting: models.JobPosting{
				Title:          "Marketing Coordinator",
				DescriptionRaw: "Social media campaigns",
			},
			min: 0, max: 0,
		},
	}

	m := testMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, rationale := m.Score(tt.posting)
			if score < tt.min || score > tt.max {
				t.Errorf("score %d outside [%d, %d] (rationale: %s)", score, tt.min, tt.max, rationale)
			}
		})
	}
}

func TestScore_ExcludedKeywordShortCircuits(t *testing.T) {
	score, rationale := testMatcher().Score(models.JobPosting{
		Title:          "Go Developer",
		DescriptionRaw: "NV1 clearance required",
	})
	if score != 0 {
		t.Errorf("got score %d, want 0", score)
	}
	if !strings.Contains(rationale, "clearance required") {
		t.Errorf("rationale %q does not name the excluded keyword", rationale)
	}
}

func TestScore_StalePostingScoresZero(t *testing.T) {
	score, rationale := testMatcher().Score(models.JobPosting{
		Title:    "Go Developer",
		PostedAt: time.Now().Add(-90 * 24 * time.Hour),
	})
	if score != 0 {
		t.Errorf("got score %d, want 0 (rationale: %s)", score, rationale)
	}
}

func TestScore_RationaleExplainsTheNumber(t *testing.T) {
	_, rationale := testMatcher().Score(models.JobPosting{
		Title:          "Junior Go Developer",
		DescriptionRaw: "Kubernetes, remote ok",
		QuickApply:     true,
	})
	for _, want := range []string{"Go in title", "entry level", "remote", "quick apply"} {
		if !strings.Contains(rationale, want) {
			t.Errorf("rationale %q missing %q", rationale, want)
		}
	}
}

func TestIsRecent(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		postedAt time.Time
		want     bool
	}{
		{"unknown date passes", time.Time{}, true},
		{"last week", now.Add(-7 * 24 * time.Hour), true},
		{"two months ago", now.Add(-61 * 24 * time.Hour), false},
		{"slightly future (timezone skew)", now.Add(24 * time.Hour), true},
		{"far future artifact", now.Add(10 * 24 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecent(tt.postedAt); got != tt.want {
				t.Errorf("IsRecent(%v) = %v, want %v", tt.postedAt, got, tt.want)
			}
		})
	}
}

func TestRequiredYears(t *testing.T) {
	if got := requiredYears("5+ years of go, 3 years of sql"); got != 5 {
		t.Errorf("got %d, want 5", got)
	}
	if got := requiredYears("no explicit requirement"); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}
