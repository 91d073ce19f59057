package domain

import (
	"time"

	"github.com/google/uuid"
)

// TextBlock is a positioned run of text on a page. Coordinates are PDF user
// space: origin bottom-left, Y grows upward.
type TextBlock struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	FontSize float64 `json:"font_size"`
}

// LayoutDescriptor carries the layout signals of a single page.
type LayoutDescriptor struct {
	HasHeader  bool        `json:"has_header"`
	HasFooter  bool        `json:"has_footer"`
	FontSizes  []float64   `json:"font_sizes"` // sorted, distinct
	TextBlocks []TextBlock `json:"text_blocks"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
}

// MaxFontSize returns the largest font size on the page, or 0 if none.
func (l LayoutDescriptor) MaxFontSize() float64 {
	if len(l.FontSizes) == 0 {
		return 0
	}
	return l.FontSizes[len(l.FontSizes)-1]
}

// DominantFontSize returns the font size covering the most text, or 0 if the
// page has no text blocks. Ties go to the smaller size.
func (l LayoutDescriptor) DominantFontSize() float64 {
	weight := make(map[float64]int)
	for _, b := range l.TextBlocks {
		weight[b.FontSize] += len([]rune(b.Text))
	}
	var best float64
	bestWeight := -1
	for size, w := range weight {
		if w > bestWeight || (w == bestWeight && size < best) {
			best, bestWeight = size, w
		}
	}
	return best
}

// PageFeatures is everything the pipeline knows about one page. It is produced
// once per page per run and never mutated afterwards.
type PageFeatures struct {
	Index      int              `json:"index"`
	Text       string           `json:"text"`
	FirstLines []string         `json:"first_lines"`
	Layout     LayoutDescriptor `json:"layout"`
}

// ClassificationResult is the outcome of classifying one section.
type ClassificationResult struct {
	DocumentType DocumentType         `json:"document_type"`
	Confidence   float64              `json:"confidence"`
	Method       ClassificationMethod `json:"method"`
}

// FallbackResult is the degraded classification used whenever neither the rule
// pass nor the oracle produced a usable label.
func FallbackResult() ClassificationResult {
	return ClassificationResult{DocumentType: DocTypeOther, Confidence: 0, Method: MethodFallback}
}

// DocumentSection is one contiguous page range of the source PDF.
type DocumentSection struct {
	StartPage       int                  `json:"start_page"`
	EndPage         int                  `json:"end_page"` // inclusive
	DocumentType    DocumentType         `json:"document_type"`
	Confidence      float64              `json:"confidence"`
	Method          ClassificationMethod `json:"method"`
	ExtractedFields map[string]string    `json:"extracted_fields"`
	Filename        string               `json:"filename"`
}

// PageCount returns the number of pages in the section.
func (s DocumentSection) PageCount() int {
	return s.EndPage - s.StartPage + 1
}

// Clone returns a deep copy so callers can edit without touching run state.
func (s DocumentSection) Clone() DocumentSection {
	out := s
	if s.ExtractedFields != nil {
		out.ExtractedFields = make(map[string]string, len(s.ExtractedFields))
		for k, v := range s.ExtractedFields {
			out.ExtractedFields[k] = v
		}
	}
	return out
}

// MethodCounts tallies how sections of a run were classified.
type MethodCounts struct {
	RuleBased int `json:"rule_based"`
	API       int `json:"api"`
	Fallback  int `json:"fallback"`
}

// SplitRun is the complete output of one processing run.
type SplitRun struct {
	ID         uuid.UUID         `json:"id"`
	SourceName string            `json:"source_name"`
	PageCount  int               `json:"page_count"`
	Boundaries []int             `json:"boundaries"`
	Sections   []DocumentSection `json:"sections"`
	Methods    MethodCounts      `json:"methods"`
	CreatedAt  time.Time         `json:"created_at"`
}

// CloneSections returns deep copies of the run's sections.
func (r *SplitRun) CloneSections() []DocumentSection {
	out := make([]DocumentSection, len(r.Sections))
	for i := range r.Sections {
		out[i] = r.Sections[i].Clone()
	}
	return out
}

// SectionOverride is a user edit applied to a section after a run.
type SectionOverride struct {
	DocumentType *DocumentType `json:"document_type,omitempty"`
	Filename     *string       `json:"filename,omitempty"`
}
