package ai

import (
	"context"
	"fmt"
	"strings"
)

// FieldQuery is one form-field question paired with the profile facts the
// model needs to answer it.
type FieldQuery struct {
	Label          string
	Kind           string   // text, single-select, multi-select, boolean
	Options        []string // allowed options for constrained kinds
	Resume         string   // resume variant selected for this posting
	JobTitle       string
	JobDescription string
}

// Client is the interface for AI completion providers.
type Client interface {
	// AnswerField returns either a literal value to enter, one of the allowed
	// options verbatim, or the single word SKIP when the field should be left
	// alone. Any transport or decoding failure surfaces as an error; callers
	// must treat errors as "no confident answer", never as fatal.
	AnswerField(ctx context.Context, q FieldQuery) (string, error)
}

// buildSystemPrompt creates the system instruction for the model.
func buildSystemPrompt(q FieldQuery) string {
	return fmt.Sprintf(`You are a professional job applicant assistant filling in an application form on my behalf. Based on my resume below, answer the application question concisely and professionally.

Rules:
- If allowed options are listed, reply with EXACTLY one of them, character for character. DO NOT invent options that are not in the list.
- For multi-select questions, reply with the chosen options, one per line, each copied exactly from the list.
- For free-text questions, keep the answer under 100 words and reply with the answer only, no preamble.
- If the question cannot be answered from my resume, reply with the single word SKIP.

My resume: %s`, q.Resume)
}

// buildUserPrompt creates the user message for a single field.
func buildUserPrompt(q FieldQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\nInput type: %s\n", q.Label, q.Kind)
	if len(q.Options) > 0 {
		b.WriteString("Allowed options:\n")
		for _, opt := range q.Options {
			fmt.Fprintf(&b, "- %s\n", opt)
		}
	}
	if q.JobTitle != "" || q.JobDescription != "" {
		fmt.Fprintf(&b, "\nJob context: %s\n%s\n", q.JobTitle, q.JobDescription)
	}
	return b.String()
}
