package core

import (
	"encoding/json"
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "short content", content: "rash"},
		{name: "empty string", content: ""},
		{name: "long content", content: "Pyrexia\x1fRash\x1fVomiting\x1fDrug hypersensitivity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)
			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	if IDFromContent("content1") == IDFromContent("content2") {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestID_String(t *testing.T) {
	if got := ID(255).String(); got != "00000000000000ff" {
		t.Errorf("ID.String() = %q", got)
	}
}

func TestSexFromCode(t *testing.T) {
	tests := []struct {
		code string
		want Sex
	}{
		{"1", SexMale},
		{"2", SexFemale},
		{" 2 ", SexFemale},
		{"0", SexUnknown},
		{"", SexUnknown},
		{"M", SexUnknown},
	}
	for _, tt := range tests {
		if got := SexFromCode(tt.code); got != tt.want {
			t.Errorf("SexFromCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestSex_JSONRoundTrip(t *testing.T) {
	age := 2.0
	record := EventRecord{DrugName: "Amoxicillin", Reaction: "Rash", Age: &age, Sex: SexMale}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["sex"] != "Male" {
		t.Errorf("sex encoded as %v, want Male", decoded["sex"])
	}

	var back EventRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Sex != SexMale || back.Age == nil || *back.Age != 2 {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestEventRecord_AgeBetween(t *testing.T) {
	age := 3.0
	withAge := EventRecord{Reaction: "Rash", Age: &age}
	withoutAge := EventRecord{Reaction: "Rash"}

	if !withAge.AgeBetween(1, 3) {
		t.Errorf("AgeBetween(1, 3) should include the upper bound")
	}
	if withAge.AgeBetween(13, 17) {
		t.Errorf("AgeBetween(13, 17) matched age 3")
	}
	if withoutAge.AgeBetween(0, 100) {
		t.Errorf("unknown age must never match a range")
	}
}

func TestNewReactionCatalog(t *testing.T) {
	records := []EventRecord{
		{Reaction: "Rash"},
		{Reaction: "Pyrexia"},
		{Reaction: "Rash"},
		{Reaction: "Vomiting"},
		{Reaction: "Pyrexia"},
	}

	catalog := NewReactionCatalog(records)
	want := []string{"Rash", "Pyrexia", "Vomiting"}
	if len(catalog) != len(want) {
		t.Fatalf("catalog = %v, want %v", catalog, want)
	}
	for i := range want {
		if catalog[i] != want[i] {
			t.Errorf("catalog[%d] = %q, want %q", i, catalog[i], want[i])
		}
	}

	if got := NewReactionCatalog(nil); got == nil || len(got) != 0 {
		t.Errorf("empty input should give an empty, non-nil catalog, got %#v", got)
	}
}

func TestReactionCatalog_Fingerprint(t *testing.T) {
	a := ReactionCatalog{"Rash", "Pyrexia"}
	b := ReactionCatalog{"Pyrexia", "Rash"}
	if a.Fingerprint() == b.Fingerprint() {
		t.Errorf("fingerprint must depend on order")
	}
	if a.Fingerprint() != (ReactionCatalog{"Rash", "Pyrexia"}).Fingerprint() {
		t.Errorf("fingerprint must be deterministic")
	}
}

func TestFallbackQuery(t *testing.T) {
	q := FallbackQuery("any rashes?")
	if q.Concept != "any rashes?" || !q.Fallback {
		t.Errorf("unexpected fallback query %+v", q)
	}
	if q.Filters == nil || len(q.Filters) != 0 {
		t.Errorf("fallback filters should be an empty slice, got %#v", q.Filters)
	}
}
