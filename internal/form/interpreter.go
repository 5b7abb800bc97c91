package form

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"go-ronin-automation/internal/ai"
	"go-ronin-automation/internal/models"
)

// Deterministic question patterns. Matching one of these answers the field
// straight from the profile, with no AI round-trip.
var (
	salaryRegex     = regexp.MustCompile(`(?i)salary.*(expectation|requirement)|expected.*salary`)
	workRightsRegex = regexp.MustCompile(`(?i)(visa|work).*(status|right|permit)|citizen`)
	startDateRegex  = regexp.MustCompile(`(?i)(when|earliest|notice).*(start|commence|begin|period)`)
	relocateRegex   = regexp.MustCompile(`(?i)(willing|able).*(relocate|move)`)
	yearsExpRegex   = regexp.MustCompile(`(?i)(how many )?years.*(experience|worked)`)
)

// Interpreter maps one form field plus the candidate profile to a Decision.
// Pure apart from the outbound AI call; it never writes to the store.
type Interpreter struct {
	ai      ai.Client
	timeout time.Duration
	log     *slog.Logger
}

func NewInterpreter(client ai.Client, timeout time.Duration, log *slog.Logger) *Interpreter {
	return &Interpreter{ai: client, timeout: timeout, log: log}
}

// Interpret decides what to do with a field. AI failures of any kind come
// back as ActionNoAnswer, never as an error: a single flaky field must not
// abort the surrounding traversal.
func (it *Interpreter) Interpret(ctx context.Context, field FormField, profile models.CandidateProfile, posting models.JobPosting) (Decision, error) {
	if field.Label == "" {
		return Decision{Action: ActionNoAnswer}, ErrUnsupportedFieldKind
	}
	switch field.Kind {
	case KindText, KindSingleSelect, KindMultiSelect, KindUpload, KindBool:
	default:
		return Decision{Action: ActionNoAnswer}, ErrUnsupportedFieldKind
	}

	// uploads are always deterministic: the resume variant for the posting's
	// detected domain
	if field.Kind == KindUpload {
		if path := profile.ResumeFileFor(profile.DetectTag(posting)); path != "" {
			return Decision{Action: ActionUpload, Value: path}, nil
		}
		return Decision{Action: ActionNoAnswer}, nil
	}

	if d, ok := it.deterministic(field, profile); ok {
		return d, nil
	}

	return it.askModel(ctx, field, profile, posting), nil
}

// deterministic answers the common screening questions from the profile.
func (it *Interpreter) deterministic(field FormField, profile models.CandidateProfile) (Decision, bool) {
	label := normalizeLabel(field.Label)

	var answer string
	switch {
	case workRightsRegex.MatchString(label):
		answer = yesNo(profile.WorkRights)
	case relocateRegex.MatchString(label):
		answer = yesNo(profile.WillingToRelocate)
	case salaryRegex.MatchString(label):
		answer = strconv.Itoa(profile.SalaryFloor)
	case startDateRegex.MatchString(label):
		answer = profile.NoticePeriod
	case yearsExpRegex.MatchString(label):
		answer = strconv.Itoa(profile.YearsExperience)
	default:
		return Decision{}, false
	}

	return it.coerce(field, answer), true
}

// askModel is the AI fallback for free-text and ambiguous fields.
func (it *Interpreter) askModel(ctx context.Context, field FormField, profile models.CandidateProfile, posting models.JobPosting) Decision {
	ctx, cancel := context.WithTimeout(ctx, it.timeout)
	defer cancel()

	answer, err := it.ai.AnswerField(ctx, ai.FieldQuery{
		Label:          field.Label,
		Kind:           string(field.Kind),
		Options:        field.Options,
		Resume:         profile.ResumeFor(profile.DetectTag(posting)),
		JobTitle:       posting.Title,
		JobDescription: posting.DescriptionRaw,
	})
	if err != nil {
		it.log.Warn("ai call failed, leaving field unresolved",
			slog.String("label", field.Label), slog.String("err", err.Error()))
		return Decision{Action: ActionNoAnswer}
	}

	if strings.EqualFold(strings.TrimSpace(answer), "SKIP") {
		return Decision{Action: ActionSkip}
	}

	return it.coerce(field, answer)
}

// coerce fits a raw answer to the field's kind, enforcing the option set for
// constrained kinds.
func (it *Interpreter) coerce(field FormField, answer string) Decision {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Decision{Action: ActionNoAnswer}
	}

	switch field.Kind {
	case KindText:
		return Decision{Action: ActionFill, Value: answer}

	case KindBool:
		switch strings.ToLower(answer) {
		case "yes", "true", "y":
			return Decision{Action: ActionSelect, Value: "true"}
		case "no", "false", "n":
			return Decision{Action: ActionSelect, Value: "false"}
		}
		return Decision{Action: ActionNoAnswer}

	case KindSingleSelect:
		if opt, ok := matchOption(field.Options, answer); ok {
			return Decision{Action: ActionSelect, Value: opt}
		}
		return Decision{Action: ActionNoAnswer}

	case KindMultiSelect:
		var picked []string
		seen := map[string]bool{}
		for _, line := range splitAnswers(answer) {
			if opt, ok := matchOption(field.Options, line); ok && !seen[opt] {
				picked = append(picked, opt)
				seen[opt] = true
			}
		}
		if len(picked) == 0 {
			return Decision{Action: ActionNoAnswer}
		}
		return Decision{Action: ActionSelectMany, Values: picked}
	}

	return Decision{Action: ActionNoAnswer}
}

// matchOption finds the allowed option an answer refers to: exact match
// first, then a single fuzzy containment pass on normalized text.
func matchOption(options []string, answer string) (string, bool) {
	for _, opt := range options {
		if opt == answer {
			return opt, true
		}
	}

	normAnswer := normalizeLabel(answer)
	if normAnswer == "" {
		return "", false
	}
	for _, opt := range options {
		normOpt := normalizeLabel(opt)
		if normOpt == normAnswer ||
			strings.Contains(normOpt, normAnswer) ||
			strings.Contains(normAnswer, normOpt) {
			return opt, true
		}
	}
	return "", false
}

func splitAnswers(answer string) []string {
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		return r == '\n' || r == ','
	})
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(f), "-"))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// normalizeLabel lowercases and strips diacritics so matching survives
// accented site copy.
func normalizeLabel(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, str)
	return strings.ToLower(strings.TrimSpace(result))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
