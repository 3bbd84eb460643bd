package syncer

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// SweepEmptyDirs removes directories left empty under root, deepest first, so
// a chain of empty parents collapses in one pass. Directories named ".git"
// are never removed, and neither is the root itself. Returns the number of
// directories removed.
func SweepEmptyDirs(root string, logger *slog.Logger) int {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if d.Name() == sweepExcludeDir {
			return fs.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})

	// Bottom-up: longer paths first.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })

	swept := 0
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			logger.Warn("Could not remove empty directory",
				slog.String("path", dir), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("Removed empty directory", slog.String("path", dir))
		swept++
	}
	return swept
}
