package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *groqClient {
	return &groqClient{
		apiKey:     "test-key",
		model:      "llama-3.3-70b-versatile",
		url:        url,
		httpClient: &http.Client{},
	}
}

func TestAnswerField_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"Yes"}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).AnswerField(context.Background(), FieldQuery{
		Label: "Do you have full working rights?",
		Kind:  "single-select",
	})
	require.NoError(t, err)
	assert.Equal(t, "Yes", got)
}

func TestAnswerField_StripsMarkdownFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"` + "```\\n2 years\\n```" + `"}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).AnswerField(context.Background(), FieldQuery{Label: "Years of experience?"})
	require.NoError(t, err)
	assert.Equal(t, "2 years", got)
}

func TestAnswerField_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).AnswerField(context.Background(), FieldQuery{Label: "x"})
	assert.ErrorContains(t, err, "429")
}

func TestAnswerField_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).AnswerField(context.Background(), FieldQuery{Label: "x"})
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestAnswerField_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).AnswerField(context.Background(), FieldQuery{Label: "x"})
	assert.ErrorContains(t, err, "no choices")
}

func TestBuildUserPrompt_IncludesOptions(t *testing.T) {
	q := FieldQuery{
		Label:   "Which cloud have you used?",
		Kind:    "single-select",
		Options: []string{"AWS", "Azure", "GCP"},
	}
	prompt := buildUserPrompt(q)
	assert.Contains(t, prompt, "Which cloud have you used?")
	assert.Contains(t, prompt, "- Azure")
}
