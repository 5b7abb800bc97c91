package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-ronin-automation/internal/ai"
	"go-ronin-automation/internal/models"
)

// fakeAI returns a scripted answer (or error) and records the queries it saw.
type fakeAI struct {
	answer  string
	err     error
	queries []ai.FieldQuery
}

func (f *fakeAI) AnswerField(_ context.Context, q ai.FieldQuery) (string, error) {
	f.queries = append(f.queries, q)
	return f.answer, f.err
}

func testProfile() models.CandidateProfile {
	return models.CandidateProfile{
		ResumeText:        map[string]string{"aws": "aws resume", "azure": "azure resume"},
		ResumeFiles:       map[string]string{"aws": "assets/resume_aws.pdf"},
		DefaultTag:        "aws",
		SalaryFloor:       90000,
		WorkRights:        true,
		WillingToRelocate: false,
		YearsExperience:   2,
		NoticePeriod:      "Immediately",
	}
}

func newTestInterpreter(client ai.Client) *Interpreter {
	return NewInterpreter(client, time.Second, discardLogger())
}

func TestInterpret_RejectsEmptyLabelAndUnknownKind(t *testing.T) {
	it := newTestInterpreter(&fakeAI{})

	_, err := it.Interpret(context.Background(), FormField{Label: "", Kind: KindText}, testProfile(), models.JobPosting{})
	assert.ErrorIs(t, err, ErrUnsupportedFieldKind)

	_, err = it.Interpret(context.Background(), FormField{Label: "Date grid", Kind: FieldKind("date-grid")}, testProfile(), models.JobPosting{})
	assert.ErrorIs(t, err, ErrUnsupportedFieldKind)
}

func TestInterpret_DeterministicRulesSkipAI(t *testing.T) {
	client := &fakeAI{answer: "should never be used"}
	it := newTestInterpreter(client)

	tests := []struct {
		name  string
		field FormField
		want  Decision
	}{
		{
			name:  "work rights yes/no",
			field: FormField{Label: "Do you have full working rights in Australia?", Kind: KindSingleSelect, Options: []string{"Yes", "No"}},
			want:  Decision{Action: ActionSelect, Value: "Yes"},
		},
		{
			name:  "relocation",
			field: FormField{Label: "Are you willing to relocate?", Kind: KindSingleSelect, Options: []string{"Yes", "No"}},
			want:  Decision{Action: ActionSelect, Value: "No"},
		},
		{
			name:  "salary expectation text",
			field: FormField{Label: "What is your salary expectation?", Kind: KindText},
			want:  Decision{Action: ActionFill, Value: "90000"},
		},
		{
			name:  "start date",
			field: FormField{Label: "When is the earliest you can start?", Kind: KindText},
			want:  Decision{Action: ActionFill, Value: "Immediately"},
		},
		{
			name:  "years of experience",
			field: FormField{Label: "How many years of experience do you have with Kubernetes?", Kind: KindText},
			want:  Decision{Action: ActionFill, Value: "2"},
		},
		{
			name:  "work rights checkbox",
			field: FormField{Label: "I confirm I am a citizen or permanent resident", Kind: KindBool},
			want:  Decision{Action: ActionSelect, Value: "true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := it.Interpret(context.Background(), tt.field, testProfile(), models.JobPosting{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Empty(t, client.queries, "deterministic fields must not reach the AI service")
}

func TestInterpret_UploadUsesResumeVariant(t *testing.T) {
	it := newTestInterpreter(&fakeAI{})
	field := FormField{Label: "Upload your resume", Kind: KindUpload}

	got, err := it.Interpret(context.Background(), field, testProfile(), models.JobPosting{Title: "AWS Engineer"})
	require.NoError(t, err)
	assert.Equal(t, Decision{Action: ActionUpload, Value: "assets/resume_aws.pdf"}, got)
}

func TestInterpret_AIFreeText(t *testing.T) {
	client := &fakeAI{answer: "I led a migration of 40 services to Kubernetes."}
	it := newTestInterpreter(client)
	field := FormField{Label: "Tell us about a project you are proud of", Kind: KindText}
	posting := models.JobPosting{Title: "Platform Engineer", DescriptionRaw: "azure pipelines"}

	got, err := it.Interpret(context.Background(), field, testProfile(), posting)
	require.NoError(t, err)
	assert.Equal(t, ActionFill, got.Action)
	assert.Equal(t, client.answer, got.Value)

	require.Len(t, client.queries, 1)
	// posting mentions azure, so the azure resume variant must be sent
	assert.Equal(t, "azure resume", client.queries[0].Resume)
}

func TestInterpret_AIErrorBecomesNoAnswer(t *testing.T) {
	it := newTestInterpreter(&fakeAI{err: errors.New("rate limited")})
	field := FormField{Label: "Describe your ideal team", Kind: KindText}

	got, err := it.Interpret(context.Background(), field, testProfile(), models.JobPosting{})
	require.NoError(t, err, "AI failures must never propagate")
	assert.Equal(t, ActionNoAnswer, got.Action)
}

func TestInterpret_AISkip(t *testing.T) {
	it := newTestInterpreter(&fakeAI{answer: "SKIP"})
	field := FormField{Label: "Anything else to add?", Kind: KindText}

	got, err := it.Interpret(context.Background(), field, testProfile(), models.JobPosting{})
	require.NoError(t, err)
	assert.Equal(t, ActionSkip, got.Action)
}

func TestInterpret_SelectExactMatch(t *testing.T) {
	it := newTestInterpreter(&fakeAI{answer: "2-3 years"})
	field := FormField{
		Label:   "Which range best describes your Terraform experience?",
		Kind:    KindSingleSelect,
		Options: []string{"Less than 1 year", "1-2 years", "2-3 years", "More than 3 years"},
	}

	got, err := it.Interpret(context.Background(), field, testProfile(), models.JobPosting{})
	require.NoError(t, err)
	assert.Equal(t, Decision{Action: ActionSelect, Value: "2-3 years"}, got)
}

func TestInterpret_SelectFuzzyContainment(t *testing.T) {
	it := newTestInterpreter(&fakeAI{answer: "Bachelor"})
	field := FormField{
		Label:   "Highest qualification obtained",
		Kind:    KindSingleSelect,
		Options: []string{"High school", "Bachelor's degree", "Master's degree"},
	}

	got, err := it.Interpret(context.Background(), field, testProfile(), models.JobPosting{})
	require.NoError(t, err)
	assert.Equal(t, "Bachelor's degree", got.Value)
}

func TestInterpret_SelectNoMatchIsNoAnswer(t *testing.T) {
	it := newTestInterpreter(&fakeAI{answer: "PhD"})
	field := FormField{
		Label:   "Highest qualification obtained",
		Kind:    KindSingleSelect,
		Options: []string{"High school", "Bachelor's degree"},
	}

	got, err := it.Interpret(context.Background(), field, testProfile(), models.JobPosting{})
	require.NoError(t, err)
	assert.Equal(t, ActionNoAnswer, got.Action)
}

func TestInterpret_MultiSelect(t *testing.T) {
	it := newTestInterpreter(&fakeAI{answer: "- Terraform\n- Kubernetes\nCOBOL"})
	field := FormField{
		Label:   "Which tools have you used professionally?",
		Kind:    KindMultiSelect,
		Options: []string{"Terraform", "Kubernetes", "Ansible"},
	}

	got, err := it.Interpret(context.Background(), field, testProfile(), models.JobPosting{})
	require.NoError(t, err)
	assert.Equal(t, ActionSelectMany, got.Action)
	assert.Equal(t, []string{"Terraform", "Kubernetes"}, got.Values)
}

func TestMatchOption_NormalizesDiacritics(t *testing.T) {
	opt, ok := matchOption([]string{"Cần Thơ", "Hà Nội"}, "can tho")
	require.True(t, ok)
	assert.Equal(t, "Cần Thơ", opt)
}
