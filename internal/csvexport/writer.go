package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"smartsplit/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Columns defines the manifest header row.
var Columns = []string{
	"Run ID",
	"Source",
	"Section",
	"Start Page",
	"End Page",
	"Page Count",
	"Document Type",
	"Confidence",
	"Method",
	"Filename",
	"Extracted Fields",
	"Created At",
}

// Writer wraps csv.Writer for exporting run manifests as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(Columns)
}

// WriteRun writes one row per section of run.
func (w *Writer) WriteRun(run *domain.SplitRun) error {
	for i := range run.Sections {
		if err := w.csv.Write(SectionRow(run, i)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteManifest writes a complete manifest, BOM included.
func WriteManifest(out io.Writer, run *domain.SplitRun) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteRun(run); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// SectionRow converts section i of run to a manifest row. Page numbers are
// 1-based.
func SectionRow(run *domain.SplitRun, i int) []string {
	s := run.Sections[i]
	row := make([]string, len(Columns))
	row[0] = run.ID.String()
	row[1] = run.SourceName
	row[2] = strconv.Itoa(i + 1)
	row[3] = strconv.Itoa(s.StartPage + 1)
	row[4] = strconv.Itoa(s.EndPage + 1)
	row[5] = strconv.Itoa(s.PageCount())
	row[6] = string(s.DocumentType)
	row[7] = strconv.FormatFloat(s.Confidence, 'f', 2, 64)
	row[8] = string(s.Method)
	row[9] = s.Filename
	row[10] = FormatFields(s.ExtractedFields)
	row[11] = run.CreatedAt.Format(time.RFC3339)
	return row
}

// FormatFields renders fields as "key=value" pairs sorted by key.
func FormatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + fields[k]
	}
	return strings.Join(parts, "; ")
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a source name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "split"
	}
	return s
}

// BuildFilename returns a sanitized manifest filename.
// Format: {sanitized_source_name}_manifest_{YYYY-MM-DD}.{ext}
func BuildFilename(sourceName, ext string) string {
	sanitized := SanitizeFilename(strings.TrimSuffix(sourceName, ".pdf"))
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_manifest_%s.%s", sanitized, date, ext)
}
