package runner

import (
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery enumerates candidate source files under a root directory.
type FileDiscovery struct {
	rootDir        string
	codePatterns   []compiledPattern
	ignorePatterns []compiledPattern
	gitignore      *ignore.GitIgnore
}

// NewFileDiscovery compiles the code and ignore patterns. When respectGitignore
// is set and <root>/.gitignore exists, matching files are skipped as well.
func NewFileDiscovery(rootDir string, codePatterns, ignorePatterns []string, respectGitignore bool) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		rootDir: rootDir,
	}

	for _, pattern := range codePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.codePatterns = append(fd.codePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.ignorePatterns = append(fd.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	if respectGitignore {
		if gi, err := ignore.CompileIgnoreFile(filepath.Join(rootDir, ".gitignore")); err == nil {
			fd.gitignore = gi
		}
	}

	return fd, nil
}

// DiscoverFiles walks the directory tree and returns every regular file that
// matches a code pattern, sorted by path. Unreadable subdirectories are logged
// and skipped; an unreadable root is an error.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == fd.rootDir {
				return err
			}
			log.Printf("Warning: skipping %s: %v\n", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		if fd.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether path (absolute or relative to the working directory)
// is a candidate file under the discovery rules.
func (fd *FileDiscovery) Matches(path string) bool {
	relPath, err := filepath.Rel(fd.rootDir, path)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return false
	}

	// Normalize path separators for glob matching
	relPath = filepath.ToSlash(relPath)

	if fd.shouldIgnore(relPath) {
		return false
	}
	return fd.matchesAnyPattern(relPath, fd.codePatterns)
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	// Never mine our own configuration directory
	if strings.HasPrefix(relPath, ".callminer/") {
		return true
	}

	if fd.gitignore != nil && fd.gitignore.MatchesPath(relPath) {
		return true
	}

	if fd.matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}

	// Also check every parent directory with a /** suffix
	// For example, "build/Gen.java" is ignored by pattern "build/**"
	dir := relPath
	for {
		idx := strings.LastIndex(dir, "/")
		if idx < 0 {
			return false
		}
		dir = dir[:idx]
		if fd.matchesAnyPattern(dir+"/**", fd.ignorePatterns) {
			return true
		}
	}
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func (fd *FileDiscovery) matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Special handling: if path is in root (no slash), also try matching against
	// patterns with **/ prefix removed. This makes "**/*.java" match both
	// "Main.java" and "src/Main.java" as users would expect.
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if simplifiedGlob, err := glob.Compile(simplified, '/'); err == nil {
					if simplifiedGlob.Match(path) {
						return true
					}
				}
			}
		}
	}

	return false
}

// IgnoresDir reports whether a directory under the root is excluded as a whole.
func (fd *FileDiscovery) IgnoresDir(path string) bool {
	relPath, err := filepath.Rel(fd.rootDir, path)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return true
	}
	if relPath == "." {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	return fd.shouldIgnore(relPath + "/")
}
