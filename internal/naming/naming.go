// Package naming extracts section metadata and builds filesystem-safe filenames.
package naming

import (
	"fmt"
	"regexp"
	"strings"

	"smartsplit/internal/patterns"
)

const (
	// fieldMaxChars caps a single extracted value inside a filename.
	fieldMaxChars = 30
	emptyName     = "document"
)

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Config holds filename generation settings.
type Config struct {
	FilenameMaxLength int
	Placeholder       string
	UseUnderscores    bool
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{FilenameMaxLength: 200, Placeholder: "Unknown", UseUnderscores: true}
}

// Namer extracts fields and renders filenames from the rule library.
type Namer struct {
	lib *patterns.Library
	cfg Config
}

// New creates a Namer.
func New(lib *patterns.Library, cfg Config) *Namer {
	if cfg.FilenameMaxLength <= 0 {
		cfg.FilenameMaxLength = DefaultConfig().FilenameMaxLength
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultConfig().Placeholder
	}
	return &Namer{lib: lib, cfg: cfg}
}

// Extract returns the metadata fields found in text for docType. Values are
// whitespace-collapsed and capped; fields without a match are omitted.
func (n *Namer) Extract(text, docType string) map[string]string {
	fields := make(map[string]string)
	if n.lib == nil {
		return fields
	}
	for k, v := range n.lib.Extract(text, docType) {
		v = strings.Join(strings.Fields(v), " ")
		v = truncateRunes(v, fieldMaxChars)
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}

// BuildFilename renders the template for docType with fields, appends the
// 1-based inclusive page range of [start, end] (0-based page indices) and
// sanitizes the result. The returned name carries no extension.
func (n *Namer) BuildFilename(docType string, fields map[string]string, start, end int) string {
	tmpl := "{type}_{date}"
	if n.lib != nil {
		tmpl = n.lib.Template(docType)
	}
	body := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		if key == "type" {
			return docType
		}
		if v, ok := fields[key]; ok && strings.TrimSpace(v) != "" {
			return v
		}
		return n.cfg.Placeholder
	})
	return Sanitize(body, PageSuffix(start, end), n.cfg.FilenameMaxLength, n.cfg.UseUnderscores)
}

// SanitizeOverride cleans a user-supplied filename with the same rules as
// generated names, without a page suffix.
func (n *Namer) SanitizeOverride(name string) string {
	name = strings.TrimSuffix(name, ".pdf")
	return Sanitize(name, "", n.cfg.FilenameMaxLength, n.cfg.UseUnderscores)
}

// PageSuffix formats a 0-based inclusive range as "p3-6", or "p3" for one page.
func PageSuffix(start, end int) string {
	if start == end {
		return fmt.Sprintf("p%d", start+1)
	}
	return fmt.Sprintf("p%d-%d", start+1, end+1)
}

func truncateRunes(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return strings.TrimSpace(string(r[:maxChars]))
}
