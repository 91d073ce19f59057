// Package boundary finds the pages at which a new logical document begins.
package boundary

import (
	"strings"

	"smartsplit/internal/domain"
	"smartsplit/internal/patterns"
)

// Config holds the detector thresholds.
type Config struct {
	// MinDocumentLength is the smallest number of pages a section may have.
	MinDocumentLength int
	// FontSizeRatio is the growth of the largest or dominant font size, relative
	// to the previous page, that counts as a material layout change.
	FontSizeRatio float64
	// HeaderFooterLoss makes the disappearance of a running header or footer
	// count as a layout change.
	HeaderFooterLoss bool
	// NumberResetCeiling is the highest page number that counts as a restart.
	NumberResetCeiling int
	// TailLines is how many trailing lines are searched for a page number.
	TailLines int
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		MinDocumentLength:  1,
		FontSizeRatio:      1.2,
		HeaderFooterLoss:   true,
		NumberResetCeiling: 1,
		TailLines:          3,
	}
}

// Signals is the per-page evidence behind a boundary decision.
type Signals struct {
	Page         int    `json:"page"`
	Pattern      bool   `json:"pattern"`
	PatternLabel string `json:"pattern_label,omitempty"`
	Layout       bool   `json:"layout"`
	Numbering    bool   `json:"numbering"`
}

// Candidate reports whether the signals make the page a candidate boundary.
// Layout change alone is weak evidence and only corroborates a numbering reset.
func (s Signals) Candidate() bool {
	return s.Pattern || (s.Layout && s.Numbering)
}

// Detector finds document boundaries in an ordered page sequence. It holds no
// per-run state and may be shared.
type Detector struct {
	lib *patterns.Library
	cfg Config
}

// NewDetector creates a Detector. Non-positive thresholds fall back to defaults.
func NewDetector(lib *patterns.Library, cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.MinDocumentLength < 1 {
		cfg.MinDocumentLength = def.MinDocumentLength
	}
	if cfg.FontSizeRatio <= 1 {
		cfg.FontSizeRatio = def.FontSizeRatio
	}
	if cfg.NumberResetCeiling < 0 {
		cfg.NumberResetCeiling = def.NumberResetCeiling
	}
	if cfg.TailLines < 1 {
		cfg.TailLines = def.TailLines
	}
	return &Detector{lib: lib, cfg: cfg}
}

// Detect returns the accepted boundaries: strictly increasing, starting at 0,
// with every section at least MinDocumentLength pages long. An empty input
// yields nil.
func (d *Detector) Detect(pages []domain.PageFeatures) []int {
	n := len(pages)
	if n == 0 {
		return nil
	}
	minLen := d.cfg.MinDocumentLength
	accepted := []int{0}
	for i := 1; i < n; i++ {
		if !d.Signals(pages, i).Candidate() {
			continue
		}
		last := accepted[len(accepted)-1]
		if i-last < minLen || n-i < minLen {
			continue
		}
		accepted = append(accepted, i)
	}
	return accepted
}

// Signals evaluates the three boundary signals for page i against page i-1.
// Page 0 reports no signals; it is always a boundary.
func (d *Detector) Signals(pages []domain.PageFeatures, i int) Signals {
	s := Signals{Page: i}
	if i <= 0 || i >= len(pages) {
		return s
	}
	cur, prev := pages[i], pages[i-1]
	s.PatternLabel, s.Pattern = d.patternSignal(cur)
	s.Layout = d.layoutSignal(prev, cur)
	s.Numbering = d.numberingSignal(prev, cur)
	return s
}

func (d *Detector) patternSignal(p domain.PageFeatures) (string, bool) {
	if d.lib == nil {
		return "", false
	}
	if label, ok := d.lib.BoundaryMatch(strings.Join(p.FirstLines, "\n")); ok {
		return label, true
	}
	return d.lib.BoundaryMatch(p.Text)
}

func (d *Detector) layoutSignal(prev, cur domain.PageFeatures) bool {
	ratio := d.cfg.FontSizeRatio

	prevMax, curMax := prev.Layout.MaxFontSize(), cur.Layout.MaxFontSize()
	if prevMax > 0 && curMax >= prevMax*ratio {
		return true
	}

	prevDom, curDom := prev.Layout.DominantFontSize(), cur.Layout.DominantFontSize()
	if prevDom > 0 && curDom > 0 {
		hi, lo := prevDom, curDom
		if lo > hi {
			hi, lo = lo, hi
		}
		if hi >= lo*ratio {
			return true
		}
	}

	if d.cfg.HeaderFooterLoss {
		if (prev.Layout.HasHeader && !cur.Layout.HasHeader) || (prev.Layout.HasFooter && !cur.Layout.HasFooter) {
			return true
		}
	}
	return false
}

func (d *Detector) numberingSignal(prev, cur domain.PageFeatures) bool {
	p, ok := PageNumber(prev, d.cfg.TailLines)
	if !ok {
		return false
	}
	c, ok := PageNumber(cur, d.cfg.TailLines)
	if !ok {
		return false
	}
	return c < p && c <= d.cfg.NumberResetCeiling
}

// Sections turns boundaries into inclusive [start, end] page ranges covering
// [0, pageCount-1].
func Sections(boundaries []int, pageCount int) [][2]int {
	if pageCount <= 0 || len(boundaries) == 0 {
		return nil
	}
	out := make([][2]int, 0, len(boundaries))
	for i, start := range boundaries {
		end := pageCount - 1
		if i+1 < len(boundaries) {
			end = boundaries[i+1] - 1
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
