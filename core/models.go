package core

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as fixed-width hex.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Sex is the patient sex as reported.
type Sex int

const (
	// SexUnknown covers missing and unrecognized codes.
	SexUnknown Sex = iota
	// SexMale corresponds to registry code "1".
	SexMale
	// SexFemale corresponds to registry code "2".
	SexFemale
)

// SexFromCode maps a registry sex code to a Sex.
func SexFromCode(code string) Sex {
	switch strings.TrimSpace(code) {
	case "1":
		return SexMale
	case "2":
		return SexFemale
	default:
		return SexUnknown
	}
}

func (s Sex) String() string {
	switch s {
	case SexMale:
		return "Male"
	case SexFemale:
		return "Female"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the sex by name.
func (s Sex) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a sex name. Unrecognized names decode to SexUnknown.
func (s *Sex) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "male":
		*s = SexMale
	case "female":
		*s = SexFemale
	default:
		*s = SexUnknown
	}
	return nil
}

// EventRecord is one (report, reaction) pair extracted from an adverse event report.
type EventRecord struct {
	ReportID    string   `json:"report_id,omitempty"`
	ReceiveDate string   `json:"receive_date,omitempty"`
	DrugName    string   `json:"drug_name"`
	Reaction    string   `json:"reaction"`
	Age         *float64 `json:"age"` // Years at onset; nil when unknown
	Sex         Sex      `json:"sex"`
	IsSerious   bool     `json:"is_serious"`
}

// HasAge reports whether the record carries a known age.
func (r EventRecord) HasAge() bool {
	return r.Age != nil
}

// AgeBetween reports whether the age is known and within [lo, hi].
func (r EventRecord) AgeBetween(lo, hi float64) bool {
	return r.Age != nil && *r.Age >= lo && *r.Age <= hi
}

// ReactionCatalog is the ordered set of unique reaction terms of a knowledge base.
// Position i of a vector index built from the catalog corresponds to catalog[i].
type ReactionCatalog []string

// NewReactionCatalog collects the unique reactions of records in first-seen order.
func NewReactionCatalog(records []EventRecord) ReactionCatalog {
	seen := make(map[string]struct{}, len(records))
	catalog := make(ReactionCatalog, 0)
	for _, r := range records {
		if _, ok := seen[r.Reaction]; ok {
			continue
		}
		seen[r.Reaction] = struct{}{}
		catalog = append(catalog, r.Reaction)
	}
	return catalog
}

// Fingerprint derives an ID from the catalog contents and order.
func (c ReactionCatalog) Fingerprint() ID {
	return IDFromContent(strings.Join(c, "\x1f"))
}

// Filter tokens understood by the filter chain.
const (
	FilterSerious  = "serious"
	FilterBoys     = "boys"
	FilterGirls    = "girls"
	FilterToddlers = "toddlers"
	FilterTeens    = "teens"
)

// FilterVocabulary lists the tokens a query parser is asked to produce.
var FilterVocabulary = []string{
	FilterSerious,
	FilterBoys,
	FilterGirls,
	FilterToddlers,
	FilterTeens,
}

// ParsedQuery is a question split into a search concept and structured filter tokens.
type ParsedQuery struct {
	Concept  string   `json:"concept"`
	Filters  []string `json:"filters"`
	Fallback bool     `json:"fallback"` // True when the raw question was used unparsed
}

// FallbackQuery returns the query used when a question cannot be deconstructed.
func FallbackQuery(userQuery string) ParsedQuery {
	return ParsedQuery{
		Concept:  userQuery,
		Filters:  []string{},
		Fallback: true,
	}
}
