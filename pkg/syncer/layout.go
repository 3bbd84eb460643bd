package syncer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/bjpolzin/calibre2yac/pkg/syncer/catalog"
)

// SanitizeName reduces a title or series name to a filesystem-safe form:
// only letters, digits, spaces, hyphens and underscores survive, and
// surrounding whitespace is trimmed.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// TargetPath derives the canonical output location for one format of an item.
// Pure: it never touches the filesystem (see EnsureDir for the effectful half).
//
// Items with a series land in <root>/<series>/, prefixed with the series index
// formatted as NN.N ("03.5 - Title"). A series index of exactly 0 is treated
// as absent and produces no prefix, matching the store's convention for
// unset indices. Items without a series land in the "No Series" bucket.
//
// A title or series that sanitizes to the empty string falls back to a
// "book-<id>" name so no degenerate path is ever derived.
func TargetPath(outputRoot string, id int64, item catalog.Item, format string) string {
	title := SanitizeName(item.Title)
	if title == "" {
		title = fmt.Sprintf("book-%d", id)
	}

	dir := filepath.Join(outputRoot, NoSeriesDir)
	if item.Series != "" {
		series := SanitizeName(item.Series)
		if series == "" {
			series = fmt.Sprintf("book-%d", id)
		}
		dir = filepath.Join(outputRoot, series)
		if item.SeriesIndex != 0 {
			title = fmt.Sprintf("%04.1f - %s", item.SeriesIndex, title)
		}
	}

	return filepath.Join(dir, title+"."+strings.ToLower(format))
}

// EnsureDir creates the directory containing path, including intermediates.
// Idempotent and safe under concurrent callers racing on shared ancestors.
func EnsureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: '%s': %w", ErrMkdir, filepath.Dir(path), err)
	}
	return nil
}
