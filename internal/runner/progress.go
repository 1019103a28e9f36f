package runner

// ProgressReporter provides callbacks for reporting extraction progress.
// Implementations can display progress bars, log messages, or remain silent.
// Callbacks are invoked from a single goroutine.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(files int)

	// OnFileProcessingStart is called before processing files.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called once per attempted or skipped file, in commit order.
	OnFileProcessed(file FileReport)

	// OnComplete is called when the run completes.
	OnComplete(stats *Stats)
}

// FileReport describes the outcome of one file.
type FileReport struct {
	Path    string
	Methods int
	Skipped bool  // unchanged since a previous committed run
	Err     error // nil when the file was committed
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                    {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(files int)        {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int) {}
func (n *NoOpProgressReporter) OnFileProcessed(file FileReport)      {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)              {}
