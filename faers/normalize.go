package faers

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/poiesic/pedsafe/core"
)

// Stats tallies what happened to each raw report during normalization.
type Stats struct {
	Reports          int `json:"reports"`
	Malformed        int `json:"malformed"`
	NoPrimarySuspect int `json:"no_primary_suspect"`
	EmptyReactions   int `json:"empty_reactions"`
	InvalidRecords   int `json:"invalid_records"`
	Records          int `json:"records"`
	UniqueReactions  int `json:"unique_reactions"`
}

// Result is the flat record set extracted from a batch of raw reports.
type Result struct {
	Records []core.EventRecord
	Catalog core.ReactionCatalog
	Stats   Stats
}

// Option configures Normalize.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for skip diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Normalize turns raw report objects into event records and the reaction
// catalog. A report that cannot be decoded, has no patient, or has no primary
// suspect drug is skipped and tallied. Output order follows report order, then
// reaction order within a report.
func Normalize(raw []json.RawMessage, opts ...Option) Result {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("component", "normalizer")

	result := Result{Records: make([]core.EventRecord, 0)}
	result.Stats.Reports = len(raw)

	for i, msg := range raw {
		var report Report
		if err := json.Unmarshal(msg, &report); err != nil {
			logger.Warn("skipping malformed report", "position", i, "err", err)
			result.Stats.Malformed++
			continue
		}
		if report.Patient == nil {
			logger.Warn("skipping report without patient", "position", i, "report_id", report.SafetyReportID)
			result.Stats.Malformed++
			continue
		}

		drug, ok := report.Patient.PrimarySuspect()
		if !ok {
			logger.Debug("skipping report without primary suspect drug", "report_id", report.SafetyReportID)
			result.Stats.NoPrimarySuspect++
			continue
		}

		base := core.EventRecord{
			ReportID:    string(report.SafetyReportID),
			ReceiveDate: string(report.ReceiveDate),
			DrugName:    string(drug.MedicinalProduct),
			Age:         report.Patient.AgeYears(),
			Sex:         core.SexFromCode(string(report.Patient.Sex)),
			IsSerious:   report.IsSerious(),
		}

		for _, reaction := range report.Patient.Reactions {
			term := strings.TrimSpace(string(reaction.MedDRAPT))
			if term == "" {
				result.Stats.EmptyReactions++
				continue
			}
			record := base
			record.Reaction = term
			if err := core.ValidateEventRecord(&record); err != nil {
				logger.Warn("dropping invalid record", "report_id", record.ReportID, "err", err)
				result.Stats.InvalidRecords++
				continue
			}
			result.Records = append(result.Records, record)
		}
	}

	result.Catalog = core.NewReactionCatalog(result.Records)
	result.Stats.Records = len(result.Records)
	result.Stats.UniqueReactions = len(result.Catalog)

	logger.Info("normalized reports",
		"reports", result.Stats.Reports,
		"records", result.Stats.Records,
		"unique_reactions", result.Stats.UniqueReactions,
		"malformed", result.Stats.Malformed,
		"no_primary_suspect", result.Stats.NoPrimarySuspect,
		"empty_reactions", result.Stats.EmptyReactions)

	return result
}
