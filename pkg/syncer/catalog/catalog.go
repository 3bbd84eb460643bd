// Package catalog reads the source-of-truth Calibre metadata store. It exposes
// the catalog as a mapping from book id to Item, one FormatEntry per mirrored
// container format, filtered by a tag selector.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// MetadataDBName is the Calibre metadata store file name under the library root.
const MetadataDBName = "metadata.db"

// AllowedFormats is the container format allow-list applied server-side. Only
// these formats are mirrored; all other formats on a matching item are
// silently excluded.
var AllowedFormats = []string{"cbz", "cbr"}

// ErrStoreUnavailable indicates the metadata store could not be opened or
// queried. Fatal for the sync pass.
var ErrStoreUnavailable = errors.New("catalog store unavailable")

// FormatEntry identifies one physical source file of an item.
type FormatEntry struct {
	// Name is the source file name without extension.
	Name string `json:"name"`
	// LastModified is the store-native timestamp string. It is compared for
	// equality only, never parsed.
	LastModified string `json:"last_modified"`
	// Size is the uncompressed byte size recorded by the store.
	Size int64 `json:"size"`
}

// Metadata is the sub-object captured per item for change detection. Equality
// is field-wise over exactly these fields; any drift triggers reprocessing.
type Metadata struct {
	AuthorSort string `json:"author_sort"`
	Timestamp  string `json:"timestamp"`
	PubDate    string `json:"pubdate"`
}

// Item is one logical catalog record with at least one format variant.
// Immutable once constructed; owned by the reader for the duration of a pass.
type Item struct {
	Title       string                 `json:"title"`
	Path        string                 `json:"path"`
	Series      string                 `json:"series,omitempty"`
	SeriesIndex float64                `json:"series_index"`
	Formats     map[string]FormatEntry `json:"formats"`
	Metadata    Metadata               `json:"metadata"`
}

// Reader queries the catalog for all items matching a tag selector.
type Reader interface {
	Read(ctx context.Context, tag string) (map[int64]Item, error)
}

// SQLiteReader implements Reader against a Calibre metadata.db. The store is
// opened read-only once per Read call and closed before returning; the
// connection is never shared across workers.
type SQLiteReader struct {
	libraryPath string
	logger      *slog.Logger
}

// NewSQLiteReader creates a Reader for the Calibre library at libraryPath.
func NewSQLiteReader(libraryPath string, loggerHandler slog.Handler) *SQLiteReader {
	if loggerHandler == nil {
		loggerHandler = slog.NewTextHandler(io.Discard, nil)
	}
	logger := slog.New(loggerHandler).With(slog.String("component", "catalog"))
	return &SQLiteReader{libraryPath: libraryPath, logger: logger}
}

// tagQuery joins books against series (optional), tags (selector) and data
// (format variants). Placeholders for the format allow-list are appended at
// query build time.
const tagQuery = `
SELECT
    books.id,
    books.title,
    books.path,
    series.name AS series_name,
    books.series_index,
    data.format,
    data.name,
    books.last_modified,
    books.author_sort,
    books.timestamp,
    books.pubdate,
    data.uncompressed_size
FROM books
LEFT JOIN books_series_link ON books.id = books_series_link.book
LEFT JOIN series ON books_series_link.series = series.id
JOIN books_tags_link ON books.id = books_tags_link.book
JOIN tags ON books_tags_link.tag = tags.id
JOIN data ON books.id = data.book
WHERE tags.name = ?
AND LOWER(data.format) IN (%s)`

// Read scans all rows matching the tag and groups them by book id,
// accumulating one FormatEntry per distinct lowercase format token (last row
// wins on duplicates). Returns ErrStoreUnavailable if the store cannot be
// opened or queried.
func (r *SQLiteReader) Read(ctx context.Context, tag string) (map[int64]Item, error) {
	dbPath := filepath.Join(r.libraryPath, MetadataDBName)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("%w: cannot access metadata store '%s': %w", ErrStoreUnavailable, dbPath, err)
	}

	conn, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open metadata store '%s': %w", ErrStoreUnavailable, dbPath, err)
	}
	defer conn.Close()

	placeholders := make([]string, len(AllowedFormats))
	args := make([]any, 0, len(AllowedFormats)+1)
	args = append(args, tag)
	for i, f := range AllowedFormats {
		placeholders[i] = "?"
		args = append(args, f)
	}
	query := fmt.Sprintf(tagQuery, strings.Join(placeholders, ", "))

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: tag query failed for '%s': %w", ErrStoreUnavailable, tag, err)
	}
	defer rows.Close()

	items := make(map[int64]Item)
	for rows.Next() {
		var (
			id           int64
			title, path  string
			seriesName   sql.NullString
			seriesIndex  sql.NullFloat64
			format, name string
			lastModified sql.NullString
			authorSort   sql.NullString
			timestamp    sql.NullString
			pubDate      sql.NullString
			size         sql.NullInt64
		)
		if err := rows.Scan(&id, &title, &path, &seriesName, &seriesIndex, &format, &name,
			&lastModified, &authorSort, &timestamp, &pubDate, &size); err != nil {
			return nil, fmt.Errorf("%w: row scan failed: %w", ErrStoreUnavailable, err)
		}

		item, ok := items[id]
		if !ok {
			item = Item{
				Title:       title,
				Path:        path,
				Series:      seriesName.String,
				SeriesIndex: seriesIndex.Float64,
				Formats:     make(map[string]FormatEntry),
				Metadata: Metadata{
					AuthorSort: authorSort.String,
					Timestamp:  timestamp.String,
					PubDate:    pubDate.String,
				},
			}
		}
		item.Formats[strings.ToLower(format)] = FormatEntry{
			Name:         name,
			LastModified: lastModified.String,
			Size:         size.Int64,
		}
		items[id] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration failed: %w", ErrStoreUnavailable, err)
	}

	r.logger.Debug("Catalog read complete", slog.String("tag", tag), slog.Int("items", len(items)))
	return items, nil
}

// SourcePath resolves the physical source file for one format of an item,
// relative to the library root the reader was created with.
func (r *SQLiteReader) SourcePath(item Item, format string) string {
	entry := item.Formats[format]
	return filepath.Join(r.libraryPath, item.Path, entry.Name+"."+format)
}
