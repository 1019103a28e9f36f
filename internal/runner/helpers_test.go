package runner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mvp-joe/callminer/internal/corpus"
	"github.com/mvp-joe/callminer/internal/extractor"
	"github.com/mvp-joe/callminer/internal/syntax"
	"github.com/stretchr/testify/require"
)

const fixtureProject = "../../testdata/java/project"

// copyProject copies the fixture project into a temp directory and returns its root.
func copyProject(t *testing.T) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "project")
	err := filepath.WalkDir(fixtureProject, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(fixtureProject, path)
		if err != nil {
			return err
		}
		target := filepath.Join(root, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
	require.NoError(t, err)
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testConfig(root string) Config {
	return Config{
		RootDir:      root,
		CodePatterns: []string{"**/*.java"},
		Jobs:         1,
		Extraction:   extractor.DefaultOptions(),
	}
}

// runOnce runs a driver over cfg into a fresh writer in outDir.
func runOnce(t *testing.T, cfg Config, outDir string, l Ledger, progress ProgressReporter) (*Stats, *corpus.Writer) {
	t.Helper()

	w := corpus.NewWriter(outDir, "", "")
	require.NoError(t, w.EnsureCreated())

	d, err := NewDriver(cfg, syntax.NewJavaProvider(), w, l, progress)
	require.NoError(t, err)

	stats, err := d.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return stats, w
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if len(data) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// recordingReporter captures progress callbacks.
type recordingReporter struct {
	mu         sync.Mutex
	discovered int
	started    int
	files      []FileReport
	completed  *Stats
}

func (r *recordingReporter) OnDiscoveryStart() {}

func (r *recordingReporter) OnDiscoveryComplete(files int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discovered = files
}

func (r *recordingReporter) OnFileProcessingStart(totalFiles int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = totalFiles
}

func (r *recordingReporter) OnFileProcessed(file FileReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, file)
}

func (r *recordingReporter) OnComplete(stats *Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = stats
}
