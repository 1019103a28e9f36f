package cli

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/mvp-joe/callminer/internal/runner"
	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter prints one "Parsing file" line per file, or a progress
// bar when bar is set. quiet suppresses everything but warnings.
type CLIProgressReporter struct {
	out            io.Writer
	quiet          bool
	bar            bool
	verbose        bool
	fileBar        *progressbar.ProgressBar
	totalFiles     int
	processedFiles int
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet, bar, verbose bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		out:     out,
		quiet:   quiet,
		bar:     bar,
		verbose: verbose,
	}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	if c.quiet || !c.verbose {
		return
	}
	log.Println("Discovering files...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files int) {
	if c.quiet || !c.verbose {
		return
	}
	log.Printf("Found %s source files\n", formatNumber(files))
}

func (c *CLIProgressReporter) OnFileProcessingStart(totalFiles int) {
	if c.quiet {
		return
	}
	c.totalFiles = totalFiles
	c.processedFiles = 0

	if !c.bar {
		return
	}
	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Extracting files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(file runner.FileReport) {
	if c.quiet {
		return
	}
	c.processedFiles++
	if c.fileBar != nil {
		c.fileBar.Add(1)
		return
	}
	if file.Skipped {
		if c.verbose {
			fmt.Fprintf(c.out, "Unchanged file: %s\n", file.Path)
		}
		return
	}
	fmt.Fprintf(c.out, "Parsing file: %s\n", file.Path)
}

func (c *CLIProgressReporter) OnComplete(stats *runner.Stats) {
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		c.fileBar.Finish()
		c.fileBar = nil
	}

	fmt.Fprintf(c.out, "Total execution time: %v (%s files)\n",
		stats.Elapsed.Round(time.Millisecond), formatNumber(stats.FilesSucceeded))

	if c.verbose {
		fmt.Fprintf(c.out, "  Methods:  %s\n", formatNumber(stats.Records))
		fmt.Fprintf(c.out, "  Failed:   %s\n", formatNumber(stats.FilesFailed))
		fmt.Fprintf(c.out, "  Skipped:  %s\n", formatNumber(stats.FilesSkipped))
		if stats.MethodsSkipped > 0 {
			fmt.Fprintf(c.out, "  Dropped:  %s methods without an enclosing type\n", formatNumber(stats.MethodsSkipped))
		}
	}
}

// formatNumber formats integer with thousand separators.
// Examples: 1234 -> "1,234", 1234567 -> "1,234,567"
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
