// Package export writes curated media selections as CSV, JSON or shot lists
// and can push the written files to S3-compatible object storage.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Corphon/VisualMediaTool/internal/models"
)

// DefaultHeader is written when there are no rows.
var DefaultHeader = []string{"query", "title", "provider", "url", "thumb"}

// ResultRow flattens a media record into a row keyed by field name.
// Optional fields are only present when set.
func ResultRow(r models.MediaResult) map[string]any {
	row := map[string]any{
		"query":    r.Query,
		"title":    r.Title,
		"provider": r.Provider,
		"url":      r.URL,
		"thumb":    r.Thumb,
	}
	if r.Author != "" {
		row["author"] = r.Author
	}
	if r.License != "" {
		row["license"] = r.License
	}
	if r.ID != "" {
		row["id"] = r.ID
	}
	if r.Duration > 0 {
		row["duration"] = r.Duration
	}
	if len(r.Files) > 0 {
		row["files"] = r.Files
	}
	if r.Error {
		row["error"] = true
	}
	return row
}

// ResultRows flattens a list of records.
func ResultRows(results []models.MediaResult) []map[string]any {
	rows := make([]map[string]any, 0, len(results))
	for _, r := range results {
		rows = append(rows, ResultRow(r))
	}
	return rows
}

// SelectionRows returns one row per selected item: session queries first in
// their order, then selections for queries no longer listed, sorted. The
// "query" column is the key the item was selected under.
func SelectionRows(s models.Session) []map[string]any {
	rows := []map[string]any{}
	done := map[string]bool{}

	add := func(q string) {
		item, ok := s.Selected[q]
		if !ok || done[q] {
			return
		}
		done[q] = true
		row := ResultRow(item)
		row["query"] = q
		rows = append(rows, row)
	}

	for _, q := range s.Queries {
		add(q)
	}

	rest := make([]string, 0, len(s.Selected))
	for q := range s.Selected {
		if !done[q] {
			rest = append(rest, q)
		}
	}
	sort.Strings(rest)
	for _, q := range rest {
		add(q)
	}
	return rows
}

// WriteCSV writes rows with a header of the sorted union of their keys.
func WriteCSV(w io.Writer, rows []map[string]any) error {
	cw := csv.NewWriter(w)

	if len(rows) == 0 {
		if err := cw.Write(DefaultHeader); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}

	keySet := map[string]bool{}
	for _, r := range rows {
		for k := range r {
			keySet[k] = true
		}
	}
	fields := make([]string, 0, len(keySet))
	for k := range keySet {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	if err := cw.Write(fields); err != nil {
		return err
	}
	record := make([]string, len(fields))
	for _, r := range rows {
		for i, f := range fields {
			v, err := cell(r[f])
			if err != nil {
				return fmt.Errorf("column %s: %w", f, err)
			}
			record[i] = v
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// WriteJSON writes rows as an indented JSON array without HTML escaping.
func WriteJSON(w io.Writer, rows []map[string]any) error {
	if rows == nil {
		rows = []map[string]any{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// CSV writes rows to path.
func CSV(rows []map[string]any, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteCSV(w, rows) })
}

// JSON writes rows to path.
func JSON(rows []map[string]any, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, rows) })
}

// Shotlist writes the session's selections as a CSV shot list.
func Shotlist(s models.Session, path string) error {
	return CSV(SelectionRows(s), path)
}

// Extension returns the file suffix for a format.
func Extension(format string) string {
	switch format {
	case models.ExportJSON:
		return ".json"
	case models.ExportShotlist:
		return ".shotlist.csv"
	default:
		return ".csv"
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
