package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/poiesic/pedsafe/history"
	"github.com/urfave/cli/v2"
)

func historyCommand(c *cli.Context) error {
	limit := c.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	store, err := history.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("failed to list analyses: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.App.Writer, "No analyses recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tDRUG\tQUESTION\tEVIDENCE\tDEGRADED\tID")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Drug, e.Question, e.Evidence, e.Degraded, e.ID)
	}
	return tw.Flush()
}
