package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/poiesic/pedsafe"
	"github.com/poiesic/pedsafe/history"
	"github.com/urfave/cli/v2"
)

func askCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	progress := NewProgressTracker(c.App.ErrWriter)
	source, err := newReportSource(cfg, progress.Update)
	if err != nil {
		return err
	}
	defer source.Release()

	opts := explorerOptions(cfg)
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()
		opts = append(opts, pedsafe.WithHistory(store))
	}

	explorer, err := pedsafe.NewExplorer(source, provider, opts...)
	if err != nil {
		return err
	}

	progress.Start()
	analysis, err := explorer.Analyze(ctx, pedsafe.Request{
		Drug:     c.String("drug"),
		Question: c.String("question"),
		Audience: c.String("audience"),
	})
	progress.Finish()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}

	printAnalysis(c.App.Writer, analysis)
	if c.Bool("show-evidence") {
		printEvidence(c.App.Writer, analysis)
	}
	return nil
}

func printAnalysis(w io.Writer, a *pedsafe.Analysis) {
	fmt.Fprintf(w, "Analysis: %s\n", a.ID)
	fmt.Fprintf(w, "Drug: %s\n", a.Request.Drug)
	fmt.Fprintf(w, "Concept: %s\n", a.Query.Concept)
	if len(a.Query.Filters) > 0 {
		fmt.Fprintf(w, "Filters: %s\n", strings.Join(a.Query.Filters, ", "))
	}
	if a.Query.Fallback {
		fmt.Fprintln(w, "Note: the question could not be parsed; it was searched as written.")
	}
	if a.Degraded {
		fmt.Fprintln(w, "Note: semantic search was unavailable; all reaction terms were considered.")
	}
	fmt.Fprintf(w, "Reports: %d  Records: %d  Evidence: %d\n", a.Reports, a.Stats.Records, len(a.Evidence))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary for %s:\n%s\n", a.Audience, a.Summary)
}

func printEvidence(w io.Writer, a *pedsafe.Analysis) {
	if len(a.Evidence) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REPORT\tDRUG\tREACTION\tAGE\tSEX\tSERIOUS")
	for _, rec := range a.Evidence {
		age := "-"
		if rec.Age != nil {
			age = fmt.Sprintf("%.1f", *rec.Age)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\n",
			rec.ReportID, rec.DrugName, rec.Reaction, age, rec.Sex, rec.IsSerious)
	}
	tw.Flush()
}
