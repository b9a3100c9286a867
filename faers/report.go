package faers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Text is a report field that the registry may encode as a JSON string or
// number. Null and absent fields decode to the empty string.
type Text string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*t = Text(strconv.FormatBool(b))
	case '{', '[':
		return fmt.Errorf("expected scalar, got %q", data[:1])
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*t = Text(n.String())
	}
	return nil
}

// Report is the subset of an openFDA drug event report the normalizer reads.
// Every field is optional.
type Report struct {
	SafetyReportID Text     `json:"safetyreportid"`
	ReceiveDate    Text     `json:"receivedate"`
	Patient        *Patient `json:"patient"`

	SeriousnessHospitalization   Text `json:"seriousnesshospitalization"`
	SeriousnessDeath             Text `json:"seriousnessdeath"`
	SeriousnessLifeThreatening   Text `json:"seriousnesslifethreatening"`
	SeriousnessDisabling         Text `json:"seriousnessdisabling"`
	SeriousnessCongenitalAnomaly Text `json:"seriousnesscongenitalanomali"`
	SeriousnessOther             Text `json:"seriousnessother"`
}

// Patient holds demographics plus the drug and reaction lists of a report.
type Patient struct {
	OnsetAge     Text       `json:"patientonsetage"`
	OnsetAgeUnit Text       `json:"patientonsetageunit"`
	Sex          Text       `json:"patientsex"`
	Drugs        []Drug     `json:"drug"`
	Reactions    []Reaction `json:"reaction"`
}

// Drug is one entry of a patient's drug list.
type Drug struct {
	MedicinalProduct Text `json:"medicinalproduct"`
	Characterization Text `json:"drugcharacterization"`
}

// Reaction is one adverse reaction entry.
type Reaction struct {
	MedDRAPT Text `json:"reactionmeddrapt"`
}

const (
	// seriousFlag is the sentinel the registry uses for a set seriousness flag.
	seriousFlag = "1"
	// primarySuspect marks the drugcharacterization of the main suspect drug.
	primarySuspect = "1"
)

// IsSerious reports whether any seriousness flag equals the "1" sentinel.
// The comparison is exact and case-sensitive.
func (r *Report) IsSerious() bool {
	for _, flag := range []Text{
		r.SeriousnessHospitalization,
		r.SeriousnessDeath,
		r.SeriousnessLifeThreatening,
		r.SeriousnessDisabling,
		r.SeriousnessCongenitalAnomaly,
		r.SeriousnessOther,
	} {
		if string(flag) == seriousFlag {
			return true
		}
	}
	return false
}

// PrimarySuspect returns the first drug characterized as primary suspect.
func (p *Patient) PrimarySuspect() (Drug, bool) {
	for _, d := range p.Drugs {
		if string(d.Characterization) == primarySuspect {
			return d, true
		}
	}
	return Drug{}, false
}

// Age unit codes used by patientonsetageunit.
const (
	unitDecade = "800"
	unitYear   = "801"
	unitMonth  = "802"
	unitWeek   = "803"
	unitDay    = "804"
	unitHour   = "805"
)

var yearsPerUnit = map[string]float64{
	unitDecade: 10,
	unitYear:   1,
	unitMonth:  1.0 / 12,
	unitWeek:   7.0 / 365.25,
	unitDay:    1.0 / 365.25,
	unitHour:   1.0 / (365.25 * 24),
}

// AgeYears parses the onset age and converts it to years. It returns nil for
// absent, non-numeric, infinite or negative values. Unknown units keep the raw number.
func (p *Patient) AgeYears() *float64 {
	age, err := strconv.ParseFloat(string(p.OnsetAge), 64)
	if err != nil || age < 0 || math.IsNaN(age) || math.IsInf(age, 0) {
		return nil
	}
	if factor, ok := yearsPerUnit[string(p.OnsetAgeUnit)]; ok {
		age *= factor
	}
	return &age
}
