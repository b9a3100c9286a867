package filter

import (
	"testing"

	"github.com/poiesic/pedsafe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func age(a float64) *float64 { return &a }

func sample() []core.EventRecord {
	return []core.EventRecord{
		{DrugName: "Amoxicillin", Reaction: "rash", Age: age(2), Sex: core.SexMale, IsSerious: false},
		{DrugName: "Amoxicillin", Reaction: "fever", Age: age(15), Sex: core.SexFemale, IsSerious: true},
		{DrugName: "AMOXICILLIN AND CLAVULANATE", Reaction: "rash", Age: age(13), Sex: core.SexMale, IsSerious: true},
		{DrugName: "Ibuprofen", Reaction: "rash", Age: age(3), Sex: core.SexFemale, IsSerious: true},
		{DrugName: "", Reaction: "rash", Age: age(2), Sex: core.SexMale, IsSerious: true},
		{DrugName: "amoxicillin", Reaction: "vomiting", Age: nil, Sex: core.SexUnknown, IsSerious: true},
		{DrugName: "amoxicillin", Reaction: "fever", Age: age(1), Sex: core.SexUnknown, IsSerious: false},
		{DrugName: "amoxicillin", Reaction: "fever", Age: age(17), Sex: core.SexMale, IsSerious: false},
	}
}

func TestApply_Example(t *testing.T) {
	records := []core.EventRecord{
		{DrugName: "Amoxicillin", Reaction: "rash", Age: age(2), Sex: core.SexMale, IsSerious: false},
		{DrugName: "Amoxicillin", Reaction: "fever", Age: age(15), Sex: core.SexFemale, IsSerious: true},
	}

	out, stages := Apply(records, []string{"rash", "fever"}, "amoxicillin", []string{"toddlers"})

	require.Len(t, out, 1)
	assert.Equal(t, records[0], out[0])
	assert.Equal(t, Stages{Input: 2, ByReaction: 2, ByDrug: 2, ByTokens: 1}, stages)
}

func TestApply_Steps(t *testing.T) {
	records := sample()

	t.Run("reaction membership", func(t *testing.T) {
		out, _ := Apply(records, []string{"vomiting"}, "amox", nil)
		require.Len(t, out, 1)
		assert.Equal(t, "vomiting", out[0].Reaction)
	})

	t.Run("drug match is case-insensitive substring and drops empty names", func(t *testing.T) {
		out, stages := Apply(records, []string{"rash"}, "Amoxicillin", nil)
		assert.Equal(t, 4, stages.ByReaction)
		require.Len(t, out, 2)
		assert.Equal(t, "Amoxicillin", out[0].DrugName)
		assert.Equal(t, "AMOXICILLIN AND CLAVULANATE", out[1].DrugName)
	})

	t.Run("no reactions means no evidence", func(t *testing.T) {
		out, _ := Apply(records, nil, "amoxicillin", nil)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})
}

func TestByTokens(t *testing.T) {
	records := sample()
	tests := []struct {
		name   string
		tokens []string
		want   int
	}{
		{name: "none", tokens: nil, want: len(records)},
		{name: "serious", tokens: []string{"serious"}, want: 5},
		{name: "boys", tokens: []string{"boys"}, want: 4},
		{name: "boy alias", tokens: []string{"boy"}, want: 4},
		{name: "males alias", tokens: []string{"Males"}, want: 4},
		{name: "girls", tokens: []string{"girls"}, want: 2},
		{name: "female alias", tokens: []string{"female"}, want: 2},
		{name: "toddlers inclusive bounds", tokens: []string{"toddlers"}, want: 4},
		{name: "teens inclusive bounds", tokens: []string{"teens"}, want: 3},
		{name: "unknown token is a no-op", tokens: []string{"infants"}, want: len(records)},
		{name: "singular toddler is not an alias", tokens: []string{"toddler"}, want: len(records)},
		{name: "singular teen is not an alias", tokens: []string{"teen"}, want: len(records)},
		{name: "combined", tokens: []string{"serious", "boys", "teens"}, want: 1},
		{name: "contradictory", tokens: []string{"boys", "girls"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, ByTokens(records, tt.tokens), tt.want)
		})
	}
}

func TestByTokens_UnknownAgeNeverMatches(t *testing.T) {
	records := []core.EventRecord{{DrugName: "x", Reaction: "rash"}}

	assert.Empty(t, ByTokens(records, []string{"toddlers"}))
	assert.Empty(t, ByTokens(records, []string{"teens"}))
}

func TestApply_MonotonicNarrowing(t *testing.T) {
	records := sample()
	reactions := []string{"rash", "fever", "vomiting"}
	tokens := []string{"serious", "boys", "girls", "toddlers", "teens", "unknown"}

	// Every prefix plus one more token is never larger than the prefix alone.
	for i := range tokens {
		base, _ := Apply(records, reactions, "amoxicillin", tokens[:i])
		more, _ := Apply(records, reactions, "amoxicillin", tokens[:i+1])
		assert.LessOrEqual(t, len(more), len(base), "adding %q", tokens[i])
	}

	// Every single token narrows the unfiltered set.
	all, _ := Apply(records, reactions, "amoxicillin", nil)
	for _, tok := range tokens {
		one, _ := Apply(records, reactions, "amoxicillin", []string{tok})
		assert.LessOrEqual(t, len(one), len(all), tok)
	}
}

func TestApply_DoesNotAliasInput(t *testing.T) {
	records := sample()
	out, _ := Apply(records, []string{"rash", "fever", "vomiting"}, "amoxicillin", nil)
	require.NotEmpty(t, out)

	out[0].Reaction = "changed"
	assert.Equal(t, "rash", records[0].Reaction)
}

func TestLookup(t *testing.T) {
	_, ok := Lookup(" Serious ")
	assert.True(t, ok)

	_, ok = Lookup("infants")
	assert.False(t, ok)
}
