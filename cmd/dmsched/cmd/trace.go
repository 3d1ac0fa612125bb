package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/dmsched/datarecording"
	"github.com/sarchlab/dmsched/tracing"
)

func newTraceCmd() *cobra.Command {
	traceCmd := &cobra.Command{
		Use:   "trace <trace_file>",
		Short: "Print the execution segments stored in a recorded trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrace,
	}

	traceCmd.Flags().String("job", "", "only show segments of this job, e.g. T1.0")
	traceCmd.Flags().Int("limit", 0, "show at most this many segments")

	return traceCmd
}

func runTrace(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	job, _ := cmd.Flags().GetString("job")
	limit, _ := cmd.Flags().GetInt("limit")

	if _, err := os.Stat(args[0]); err != nil {
		return err
	}

	reader, err := datarecording.NewReader(args[0])
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable(tracing.SegmentTable, tracing.SegmentEntry{})

	params := datarecording.QueryParams{
		OrderBy: "rowid",
		Limit:   limit,
	}
	if job != "" {
		params.Where = "Job = ?"
		params.Args = []any{job}
	}

	rows, total, err := reader.Query(cmd.Context(), tracing.SegmentTable, params)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join([]string{"JOB", "START", "END", "OUTCOME"}, "\t"))

	for _, row := range rows {
		s := row.(*tracing.SegmentEntry)
		fmt.Fprintf(w, "%s\t%g\t%g\t%s\n", s.Job, s.Start, s.End, s.Outcome)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	if len(rows) < total {
		fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d segments)\n", len(rows), total)
	}

	return nil
}
