package models

import (
	"sort"
	"strings"
)

// CandidateProfile holds the facts the interpreter draws answers from. Loaded
// once from config and immutable for the duration of a run.
type CandidateProfile struct {
	FullName string   `yaml:"full_name" json:"full_name"`
	Skills   []string `yaml:"skills" json:"skills"`

	// Resume text and resume file paths keyed by domain tag ("aws", "azure",
	// "mixed", ...). DefaultTag is used when a posting's detected tag has no
	// entry.
	ResumeText  map[string]string `yaml:"resume_text" json:"resume_text"`
	ResumeFiles map[string]string `yaml:"resume_files" json:"resume_files"`
	DefaultTag  string            `yaml:"default_tag" json:"default_tag"`

	SalaryFloor   int    `yaml:"salary_floor" json:"salary_floor"`
	SalaryCeiling int    `yaml:"salary_ceiling" json:"salary_ceiling"`
	RemoteOnly    bool   `yaml:"remote_only" json:"remote_only"`
	Location      string `yaml:"location" json:"location"`

	// Facts used by the deterministic rules, so yes/no screening questions
	// never need an AI round-trip.
	WorkRights        bool   `yaml:"work_rights" json:"work_rights"`
	WillingToRelocate bool   `yaml:"willing_to_relocate" json:"willing_to_relocate"`
	YearsExperience   int    `yaml:"years_experience" json:"years_experience"`
	NoticePeriod      string `yaml:"notice_period" json:"notice_period"`
}

// ResumeFor returns the resume text for a domain tag, falling back to the
// default tag when the posting's tag has no variant.
func (p CandidateProfile) ResumeFor(tag string) string {
	if text, ok := p.ResumeText[strings.ToLower(tag)]; ok {
		return text
	}
	return p.ResumeText[p.DefaultTag]
}

// ResumeFileFor returns the resume file path for a domain tag, with the same
// fallback as ResumeFor.
func (p CandidateProfile) ResumeFileFor(tag string) string {
	if path, ok := p.ResumeFiles[strings.ToLower(tag)]; ok {
		return path
	}
	return p.ResumeFiles[p.DefaultTag]
}

// DetectTag picks the resume variant tag for a posting by scanning its text
// for the configured tags. Tags are checked in alphabetical order so a
// posting matching several always resolves to the same variant; the default
// tag otherwise.
func (p CandidateProfile) DetectTag(posting JobPosting) string {
	text := strings.ToLower(posting.Title + " " + posting.DescriptionRaw)

	tags := make([]string, 0, len(p.ResumeText))
	for tag := range p.ResumeText {
		if tag != p.DefaultTag {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	for _, tag := range tags {
		if strings.Contains(text, tag) {
			return tag
		}
	}
	return p.DefaultTag
}
