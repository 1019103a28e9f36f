// Package runner drives an extraction run: it discovers source files, runs one
// extraction session per file, commits the results in discovery order and
// keeps the run statistics.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/mvp-joe/callminer/internal/extractor"
	"github.com/mvp-joe/callminer/internal/ledger"
	"github.com/mvp-joe/callminer/internal/syntax"
)

// Config configures a Driver.
type Config struct {
	RootDir          string
	CodePatterns     []string
	IgnorePatterns   []string
	RespectGitignore bool

	// Jobs is the number of files extracted concurrently. Results are always
	// committed in discovery order, so the corpora do not depend on it.
	Jobs int

	// Resume skips files whose current content a previous run already
	// committed. It requires a ledger.
	Resume bool

	Extraction extractor.Options
}

// Ledger records run outcomes. *ledger.Ledger implements it.
type Ledger interface {
	BeginRun(rootDir string) (string, error)
	RecordFile(runID string, o ledger.FileOutcome) error
	FinishRun(runID string, t ledger.RunTotals) error
	IsCommitted(path, hash string) (bool, error)
}

// Stats tracks what a run processed.
type Stats struct {
	RunID           string
	FilesDiscovered int
	FilesAttempted  int // extracted, successfully or not
	FilesSucceeded  int // committed to both corpora
	FilesFailed     int
	FilesSkipped    int // unchanged since a previous committed run
	Records         int // lines appended to each corpus
	MethodsSkipped  int // methods dropped for a missing parent link
	Elapsed         time.Duration
}

// Driver runs extraction sessions over the files of one root directory.
type Driver struct {
	cfg       Config
	discovery *FileDiscovery
	provider  syntax.Provider
	writer    extractor.Appender
	ledger    Ledger
	progress  ProgressReporter
}

// NewDriver creates a driver. ledger and progress may be nil.
func NewDriver(cfg Config, provider syntax.Provider, writer extractor.Appender, l Ledger, progress ProgressReporter) (*Driver, error) {
	if cfg.Jobs <= 0 {
		cfg.Jobs = 1
	}
	if cfg.Resume && l == nil {
		return nil, errors.New("resume requires a ledger")
	}
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}

	discovery, err := NewFileDiscovery(cfg.RootDir, cfg.CodePatterns, cfg.IgnorePatterns, cfg.RespectGitignore)
	if err != nil {
		return nil, fmt.Errorf("failed to compile file patterns: %w", err)
	}

	return &Driver{
		cfg:       cfg,
		discovery: discovery,
		provider:  provider,
		writer:    writer,
		ledger:    l,
		progress:  progress,
	}, nil
}

// Discovery returns the file discovery rules of the driver.
func (d *Driver) Discovery() *FileDiscovery {
	return d.discovery
}

// Run discovers every candidate file under the root and processes them.
// Per-file failures are counted, never returned; the error is non-nil only for
// discovery, ledger or cancellation failures.
func (d *Driver) Run(ctx context.Context) (*Stats, error) {
	d.progress.OnDiscoveryStart()
	files, err := d.discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	d.progress.OnDiscoveryComplete(len(files))

	return d.ProcessFiles(ctx, files)
}

// ProcessFiles extracts and commits the given files as one run.
func (d *Driver) ProcessFiles(ctx context.Context, files []string) (*Stats, error) {
	startTime := time.Now()
	stats := &Stats{FilesDiscovered: len(files)}

	if d.ledger != nil {
		runID, err := d.ledger.BeginRun(d.cfg.RootDir)
		if err != nil {
			return nil, err
		}
		stats.RunID = runID
	}

	d.progress.OnFileProcessingStart(len(files))

	var err error
	if d.cfg.Jobs == 1 || len(files) < 2 {
		err = d.processSequential(ctx, files, stats)
	} else {
		err = d.processParallel(ctx, files, stats)
	}

	stats.Elapsed = time.Since(startTime)

	if d.ledger != nil {
		totals := ledger.RunTotals{
			FilesAttempted: stats.FilesAttempted,
			FilesSucceeded: stats.FilesSucceeded,
			FilesFailed:    stats.FilesFailed,
			FilesSkipped:   stats.FilesSkipped,
			Records:        stats.Records,
			Elapsed:        stats.Elapsed,
		}
		if ferr := d.ledger.FinishRun(stats.RunID, totals); ferr != nil {
			log.Printf("Warning: %v\n", ferr)
		}
	}

	if err != nil {
		return stats, err
	}

	d.progress.OnComplete(stats)
	return stats, nil
}

// fileOutcome is the extraction result of one file before it is committed.
type fileOutcome struct {
	path      string
	hash      string
	res       *extractor.Result
	err       error
	skipped   bool
	cancelled bool
}

func (d *Driver) newSession() *extractor.Session {
	return extractor.NewSession(d.provider, d.writer, d.cfg.Extraction)
}

func (d *Driver) processSequential(ctx context.Context, files []string, stats *Stats) error {
	session := d.newSession()
	for _, path := range files {
		o := d.extractOne(ctx, session, path)
		if o.cancelled {
			return ctx.Err()
		}
		d.commit(session, o, stats)
	}
	return nil
}

// processParallel extracts on cfg.Jobs workers, each owning its session, and
// commits on the calling goroutine in discovery order.
func (d *Driver) processParallel(ctx context.Context, files []string, stats *Stats) error {
	type indexed struct {
		idx int
		fileOutcome
	}

	jobs := make(chan int)
	results := make(chan indexed, d.cfg.Jobs)

	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := d.newSession()
			for idx := range jobs {
				results <- indexed{idx: idx, fileOutcome: d.extractOne(ctx, session, files[idx])}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for idx := range files {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	committer := d.newSession()
	pending := make(map[int]fileOutcome)
	next := 0
	stopped := false
	for r := range results {
		if stopped {
			continue
		}
		pending[r.idx] = r.fileOutcome
		for {
			o, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if o.cancelled {
				stopped = true
				break
			}
			d.commit(committer, o, stats)
		}
	}

	return ctx.Err()
}

// extractOne runs the extraction half of a session for one file.
func (d *Driver) extractOne(ctx context.Context, session *extractor.Session, path string) fileOutcome {
	if ctx.Err() != nil {
		return fileOutcome{path: path, cancelled: true}
	}

	if d.cfg.Resume {
		hash, err := extractor.HashFile(path)
		if err == nil {
			committed, err := d.ledger.IsCommitted(d.relPath(path), hash)
			if err != nil {
				log.Printf("Warning: %v\n", err)
			} else if committed {
				return fileOutcome{path: path, hash: hash, skipped: true}
			}
		}
	}

	res, err := session.Extract(ctx, path)
	if err != nil && ctx.Err() != nil {
		return fileOutcome{path: path, cancelled: true}
	}
	return fileOutcome{path: path, hash: res.Hash, res: res, err: err}
}

// commit appends a successful extraction to the corpora and accounts for the
// file in stats, the ledger and the progress reporter.
func (d *Driver) commit(session *extractor.Session, o fileOutcome, stats *Stats) {
	outcome := ledger.FileOutcome{
		Path: d.relPath(o.path),
		Hash: o.hash,
	}
	report := FileReport{Path: o.path}

	switch {
	case o.skipped:
		stats.FilesSkipped++
		outcome.Status = ledger.StatusSkipped
		report.Skipped = true

	case o.err == nil:
		stats.FilesAttempted++
		outcome.Duration = o.res.Duration
		if err := session.Commit(o.res); err != nil {
			o.err = err
			break
		}
		stats.FilesSucceeded++
		stats.Records += o.res.Methods
		stats.MethodsSkipped += o.res.Skipped
		outcome.Status = ledger.StatusCommitted
		outcome.Methods = o.res.Methods
		outcome.Skipped = o.res.Skipped
		report.Methods = o.res.Methods

	default:
		stats.FilesAttempted++
		if o.res != nil {
			outcome.Duration = o.res.Duration
		}
	}

	if o.err != nil {
		stats.FilesFailed++
		outcome.Status = ledger.StatusFailed
		outcome.Error = o.err.Error()
		report.Err = o.err
	}

	if d.ledger != nil {
		if err := d.ledger.RecordFile(stats.RunID, outcome); err != nil {
			log.Printf("Warning: %v\n", err)
		}
	}
	d.progress.OnFileProcessed(report)
}

// relPath returns path relative to the root, slash separated, for the ledger.
func (d *Driver) relPath(path string) string {
	rel, err := filepath.Rel(d.cfg.RootDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
