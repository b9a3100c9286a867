package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/pedsafe/ai/mock"
	"github.com/poiesic/pedsafe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		concept  string
		filters  []string
	}{
		{
			name:     "plain object",
			response: `{"concept": "skin issues", "filters": ["serious", "boys"]}`,
			concept:  "skin issues",
			filters:  []string{"serious", "boys"},
		},
		{
			name:     "json code fence",
			response: "```json\n{\"concept\": \"vomiting\", \"filters\": []}\n```",
			concept:  "vomiting",
			filters:  []string{},
		},
		{
			name:     "bare code fence",
			response: "```\n{\"concept\": \"rash\", \"filters\": [\"toddlers\"]}\n```",
			concept:  "rash",
			filters:  []string{"toddlers"},
		},
		{
			name:     "surrounding chatter",
			response: `Sure! Here is the JSON: {"concept": "fever", "filters": ["teens"]} Hope this helps.`,
			concept:  "fever",
			filters:  []string{"teens"},
		},
		{
			name:     "missing opening quotes on keys",
			response: `{concept": "seizure", filters": ["girls"]}`,
			concept:  "seizure",
			filters:  []string{"girls"},
		},
		{
			name:     "filters normalized",
			response: `{"concept": " headache ", "filters": [" Serious", "BOYS", "serious", ""]}`,
			concept:  "headache",
			filters:  []string{"serious", "boys"},
		},
		{
			name:     "unknown tokens kept for the filter chain to ignore",
			response: `{"concept": "cough", "filters": ["infants"]}`,
			concept:  "cough",
			filters:  []string{"infants"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(tt.response)
			require.NoError(t, err)
			assert.Equal(t, tt.concept, parsed.Concept)
			assert.Equal(t, tt.filters, parsed.Filters)
			assert.False(t, parsed.Fallback)
		})
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "empty", response: "  ", err: ErrEmptyResponse},
		{name: "empty fence", response: "```json\n```", err: ErrEmptyResponse},
		{name: "not json", response: "I think the concept is rashes."},
		{name: "missing filters", response: `{"concept": "rash"}`, err: ErrMissingKey},
		{name: "null filters", response: `{"concept": "rash", "filters": null}`, err: ErrMissingKey},
		{name: "missing concept", response: `{"filters": ["boys"]}`, err: ErrMissingKey},
		{name: "blank concept", response: `{"concept": "  ", "filters": []}`, err: ErrEmptyConcept},
		{name: "wrong concept type", response: `{"concept": 3, "filters": []}`},
		{name: "wrong filters type", response: `{"concept": "rash", "filters": "boys"}`},
		{name: "array instead of object", response: `["rash"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.response)
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestDeconstructor_Deconstruct(t *testing.T) {
	ctx := context.Background()
	question := "are there serious skin issues in young boys"

	t.Run("well formed response", func(t *testing.T) {
		gen := mock.NewMockGenerator(`{"concept": "skin issues", "filters": ["serious", "boys"]}`)
		d, err := NewDeconstructor(gen)
		require.NoError(t, err)

		parsed := d.Deconstruct(ctx, question)

		assert.Equal(t, core.ParsedQuery{Concept: "skin issues", Filters: []string{"serious", "boys"}}, parsed)
		assert.Equal(t, 1, gen.CallCount())

		prompt := gen.Prompts()[0]
		assert.True(t, strings.HasSuffix(prompt, "User query: "+question))
		for _, token := range core.FilterVocabulary {
			assert.Contains(t, prompt, token)
		}
	})

	t.Run("non-json output falls back", func(t *testing.T) {
		gen := mock.NewMockGenerator("The user is asking about skin problems.")
		d, err := NewDeconstructor(gen)
		require.NoError(t, err)

		parsed := d.Deconstruct(ctx, question)

		assert.Equal(t, question, parsed.Concept)
		assert.NotNil(t, parsed.Filters)
		assert.Empty(t, parsed.Filters)
		assert.True(t, parsed.Fallback)
	})

	t.Run("generator error falls back", func(t *testing.T) {
		gen := mock.NewMockGenerator("")
		gen.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
			return "", context.DeadlineExceeded
		}
		d, err := NewDeconstructor(gen)
		require.NoError(t, err)

		assert.Equal(t, core.FallbackQuery(question), d.Deconstruct(ctx, question))
		assert.Equal(t, 1, gen.CallCount())
	})

	t.Run("missing filters key falls back entirely", func(t *testing.T) {
		gen := mock.NewMockGenerator(`{"concept": "skin issues"}`)
		d, err := NewDeconstructor(gen)
		require.NoError(t, err)

		assert.Equal(t, core.FallbackQuery(question), d.Deconstruct(ctx, question))
	})
}

func TestNewDeconstructor_RequiresGenerator(t *testing.T) {
	_, err := NewDeconstructor(nil)
	assert.True(t, errors.Is(err, ErrGeneratorRequired))
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "valid unchanged", input: `{"concept": "a", "filters": ["b, c"]}`, want: `{"concept": "a", "filters": ["b, c"]}`},
		{name: "first key", input: `{concept": "a"}`, want: `{"concept": "a"}`},
		{name: "later key", input: `{"concept": "a", filters": []}`, want: `{"concept": "a", "filters": []}`},
		{name: "numbers untouched", input: `[1, 2]`, want: `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.input))
		})
	}
}
