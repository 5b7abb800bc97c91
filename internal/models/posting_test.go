package models_test

import (
	"testing"

	"go-ronin-automation/internal/models"
)

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{
		"DISCOVERED", "MATCHED", "SKIPPED", "IN_PROGRESS",
		"SUBMITTED", "FAILED_RETRYABLE", "PERMANENTLY_FAILED",
	}
	for _, s := range valid {
		got, err := models.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	for _, s := range []string{"APPLIED", "in_progress", ""} {
		if _, err := models.ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) expected error, got nil", s)
		}
	}
}

func TestIsTransitionAllowed_ValidForward(t *testing.T) {
	cases := []struct {
		from models.Status
		to   models.Status
	}{
		{models.StatusDiscovered, models.StatusMatched},
		{models.StatusDiscovered, models.StatusSkipped},
		{models.StatusMatched, models.StatusInProgress},
		{models.StatusInProgress, models.StatusSubmitted},
		{models.StatusInProgress, models.StatusFailedRetryable},
		{models.StatusInProgress, models.StatusPermanentlyFailed},
		{models.StatusFailedRetryable, models.StatusInProgress},
		{models.StatusFailedRetryable, models.StatusPermanentlyFailed},
	}
	for _, c := range cases {
		if !models.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", c.from, c.to)
		}
	}
}

func TestIsTransitionAllowed_TerminalStatesHaveNoExit(t *testing.T) {
	terminals := []models.Status{
		models.StatusSubmitted, models.StatusSkipped, models.StatusPermanentlyFailed,
	}
	all := []models.Status{
		models.StatusDiscovered, models.StatusMatched, models.StatusSkipped,
		models.StatusInProgress, models.StatusSubmitted,
		models.StatusFailedRetryable, models.StatusPermanentlyFailed,
	}
	for _, from := range terminals {
		for _, to := range all {
			if models.IsTransitionAllowed(from, to) {
				t.Errorf("IsTransitionAllowed(%s → %s) should be false, %s is terminal", from, to, from)
			}
		}
	}
}

func TestIsTransitionAllowed_NoResubmission(t *testing.T) {
	// a SUBMITTED posting can never go back through IN_PROGRESS
	if models.IsTransitionAllowed(models.StatusSubmitted, models.StatusInProgress) {
		t.Error("SUBMITTED → IN_PROGRESS must never be allowed")
	}
	// MATCHED cannot jump straight to SUBMITTED without a claimed attempt
	if models.IsTransitionAllowed(models.StatusMatched, models.StatusSubmitted) {
		t.Error("MATCHED → SUBMITTED must pass through IN_PROGRESS")
	}
}

func TestIsTerminal(t *testing.T) {
	want := map[models.Status]bool{
		models.StatusDiscovered:        false,
		models.StatusMatched:           false,
		models.StatusSkipped:           true,
		models.StatusInProgress:        false,
		models.StatusSubmitted:         true,
		models.StatusFailedRetryable:   false,
		models.StatusPermanentlyFailed: true,
	}
	for s, terminal := range want {
		if models.IsTerminal(s) != terminal {
			t.Errorf("IsTerminal(%s) = %v, want %v", s, !terminal, terminal)
		}
	}
}

func TestResumeFor_FallsBackToDefaultTag(t *testing.T) {
	p := models.CandidateProfile{
		ResumeText: map[string]string{"aws": "aws resume", "azure": "azure resume"},
		DefaultTag: "aws",
	}
	if got := p.ResumeFor("azure"); got != "azure resume" {
		t.Errorf("ResumeFor(azure) = %q", got)
	}
	if got := p.ResumeFor("AZURE"); got != "azure resume" {
		t.Errorf("ResumeFor should be case-insensitive, got %q", got)
	}
	if got := p.ResumeFor("cobol"); got != "aws resume" {
		t.Errorf("ResumeFor(unknown) should fall back to default, got %q", got)
	}
}

func TestDetectTag(t *testing.T) {
	p := models.CandidateProfile{
		ResumeText: map[string]string{"aws": "a", "azure": "b"},
		DefaultTag: "aws",
	}
	job := models.JobPosting{Title: "Platform Engineer", DescriptionRaw: "Azure DevOps pipelines"}
	if got := p.DetectTag(job); got != "azure" {
		t.Errorf("DetectTag = %q, want azure", got)
	}
	job = models.JobPosting{Title: "Backend Engineer", DescriptionRaw: "Go microservices"}
	if got := p.DetectTag(job); got != "aws" {
		t.Errorf("DetectTag = %q, want default aws", got)
	}
}

func TestDetectTag_MultipleMatchesAreDeterministic(t *testing.T) {
	p := models.CandidateProfile{
		ResumeText: map[string]string{"aws": "a", "azure": "b", "gcp": "c", "mixed": "d"},
		DefaultTag: "mixed",
	}
	job := models.JobPosting{Title: "Cloud Engineer", DescriptionRaw: "gcp and azure experience required"}

	// map iteration order must not pick the variant; ties resolve alphabetically
	for i := 0; i < 50; i++ {
		if got := p.DetectTag(job); got != "azure" {
			t.Fatalf("DetectTag = %q on run %d, want azure", got, i)
		}
	}
}
