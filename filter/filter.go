// Package filter narrows a record set by reaction, drug name and structured
// filter tokens.
package filter

import (
	"strings"

	"github.com/poiesic/pedsafe/core"
)

// Predicate reports whether a record passes a filter.
type Predicate func(core.EventRecord) bool

// Age bands, inclusive.
const (
	toddlerMinAge = 1
	toddlerMaxAge = 3
	teenMinAge    = 13
	teenMaxAge    = 17
)

var predicates = map[string]Predicate{
	core.FilterSerious:  func(r core.EventRecord) bool { return r.IsSerious },
	"boy":               isSex(core.SexMale),
	core.FilterBoys:     isSex(core.SexMale),
	"male":              isSex(core.SexMale),
	"males":             isSex(core.SexMale),
	"girl":              isSex(core.SexFemale),
	core.FilterGirls:    isSex(core.SexFemale),
	"female":            isSex(core.SexFemale),
	"females":           isSex(core.SexFemale),
	core.FilterToddlers: ageBand(toddlerMinAge, toddlerMaxAge),
	core.FilterTeens:    ageBand(teenMinAge, teenMaxAge),
}

func isSex(sex core.Sex) Predicate {
	return func(r core.EventRecord) bool { return r.Sex == sex }
}

func ageBand(lo, hi float64) Predicate {
	return func(r core.EventRecord) bool { return r.AgeBetween(lo, hi) }
}

// Lookup returns the predicate for a filter token. Tokens are matched
// case-insensitively after trimming; unknown tokens report false.
func Lookup(token string) (Predicate, bool) {
	p, ok := predicates[strings.ToLower(strings.TrimSpace(token))]
	return p, ok
}

// ByReaction keeps records whose reaction is one of reactions.
func ByReaction(records []core.EventRecord, reactions []string) []core.EventRecord {
	allowed := make(map[string]struct{}, len(reactions))
	for _, r := range reactions {
		allowed[r] = struct{}{}
	}
	return keep(records, func(r core.EventRecord) bool {
		_, ok := allowed[r.Reaction]
		return ok
	})
}

// ByDrug keeps records whose drug name contains drug, ignoring case.
// Records without a drug name never match.
func ByDrug(records []core.EventRecord, drug string) []core.EventRecord {
	needle := strings.ToLower(strings.TrimSpace(drug))
	return keep(records, func(r core.EventRecord) bool {
		return r.DrugName != "" && strings.Contains(strings.ToLower(r.DrugName), needle)
	})
}

// ByTokens applies each recognized token in turn. Unknown tokens are ignored.
func ByTokens(records []core.EventRecord, tokens []string) []core.EventRecord {
	out := keep(records, func(core.EventRecord) bool { return true })
	for _, tok := range tokens {
		if p, ok := Lookup(tok); ok {
			out = keep(out, p)
		}
	}
	return out
}

// Stages records the record count after each step of Apply.
type Stages struct {
	Input      int `json:"input"`
	ByReaction int `json:"by_reaction"`
	ByDrug     int `json:"by_drug"`
	ByTokens   int `json:"by_tokens"`
}

// Apply runs the full chain in order: reaction membership, drug name, then
// filter tokens. Each step only narrows the previous one. The result is a
// new slice and may be empty.
func Apply(records []core.EventRecord, reactions []string, drug string, tokens []string) ([]core.EventRecord, Stages) {
	stages := Stages{Input: len(records)}

	out := ByReaction(records, reactions)
	stages.ByReaction = len(out)

	out = ByDrug(out, drug)
	stages.ByDrug = len(out)

	out = ByTokens(out, tokens)
	stages.ByTokens = len(out)

	return out, stages
}

func keep(records []core.EventRecord, p Predicate) []core.EventRecord {
	out := make([]core.EventRecord, 0, len(records))
	for _, r := range records {
		if p(r) {
			out = append(out, r)
		}
	}
	return out
}
