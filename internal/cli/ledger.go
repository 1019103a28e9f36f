package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mvp-joe/callminer/internal/ledger"
	"github.com/spf13/cobra"
)

var (
	ledgerJSON  bool
	ledgerLimit int
	ledgerFiles bool
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger <output-dir>",
	Short: "Show recorded extraction runs",
	Long: `Show the runs recorded in <output-dir>/ledger.db by "extract --ledger" or
"extract --resume", newest first.

Displays, per run:
- Root directory, start time and duration
- Files attempted, committed, failed and skipped
- Records appended to each corpus`,
	Args: cobra.ExactArgs(1),
	RunE: runLedger,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.Flags().BoolVar(&ledgerJSON, "json", false, "Output as JSON")
	ledgerCmd.Flags().IntVarP(&ledgerLimit, "limit", "n", 10, "Number of runs to show (0 for all)")
	ledgerCmd.Flags().BoolVar(&ledgerFiles, "files", false, "Also list failed files of each run")
}

func runLedger(cmd *cobra.Command, args []string) error {
	path := filepath.Join(args[0], ledger.DefaultFileName)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no ledger in %s: %w", args[0], err)
	}

	lg, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer lg.Close()

	runs, err := lg.RecentRuns(ledgerLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ledgerJSON {
		jsonBytes, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(jsonBytes))
		return nil
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	fmt.Fprintf(out, "Recorded Runs (%d):\n", len(runs))
	for _, r := range runs {
		formatRun(out, r)
		if ledgerFiles {
			if err := formatFailures(out, lg, r.ID); err != nil {
				return err
			}
		}
		fmt.Fprintln(out)
	}
	return nil
}

func formatRun(out io.Writer, r ledger.Run) {
	fmt.Fprintf(out, "  %s\n", r.ID)
	fmt.Fprintf(out, "    Root:      %s\n", r.RootDir)
	fmt.Fprintf(out, "    Started:   %s\n", formatTimeSince(r.StartedAt))
	if r.FinishedAt.IsZero() {
		fmt.Fprintf(out, "    Status:    unfinished\n")
		return
	}
	fmt.Fprintf(out, "    Duration:  %s\n", formatDuration(r.Totals.Elapsed))
	fmt.Fprintf(out, "    Files:     %s attempted, %s committed, %s failed, %s skipped\n",
		formatNumber(r.Totals.FilesAttempted), formatNumber(r.Totals.FilesSucceeded),
		formatNumber(r.Totals.FilesFailed), formatNumber(r.Totals.FilesSkipped))
	fmt.Fprintf(out, "    Records:   %s\n", formatNumber(r.Totals.Records))
}

func formatFailures(out io.Writer, lg *ledger.Ledger, runID string) error {
	outcomes, err := lg.FileOutcomes(runID)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Status == ledger.StatusFailed {
			fmt.Fprintf(out, "    failed: %s: %s\n", o.Path, o.Error)
		}
	}
	return nil
}

// formatDuration formats a duration in compact format.
// Examples: "850ms", "5s", "1m 5s", "1h 30m"
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	seconds := int(d.Seconds())
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	if minutes > 0 {
		if secs > 0 {
			return fmt.Sprintf("%dm %ds", minutes, secs)
		}
		return fmt.Sprintf("%dm", minutes)
	}

	return fmt.Sprintf("%ds", secs)
}

// formatTimeSince formats a timestamp as time ago.
// Examples: "5m ago", "2h ago", "3d ago"
func formatTimeSince(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	since := time.Since(t)

	days := int(since.Hours() / 24)
	hours := int(since.Hours()) % 24
	minutes := int(since.Minutes()) % 60

	if days > 0 {
		if hours > 0 {
			return fmt.Sprintf("%dd %dh ago", days, hours)
		}
		return fmt.Sprintf("%dd ago", days)
	}

	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm ago", hours, minutes)
		}
		return fmt.Sprintf("%dh ago", hours)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm ago", minutes)
	}

	return fmt.Sprintf("%ds ago", int(since.Seconds()))
}
