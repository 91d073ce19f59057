package pdfsource

import (
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/tsawler/tabula/layout"
	"github.com/tsawler/tabula/text"

	"smartsplit/internal/domain"
)

// line is a group of fragments sharing a baseline.
type line struct {
	frags []text.TextFragment
	y     float64
}

func (l line) text() string {
	var b strings.Builder
	for i, f := range l.frags {
		if i > 0 {
			prev := l.frags[i-1]
			gap := f.X - (prev.X + prev.Width)
			if gap > prev.FontSize*0.15 && !strings.HasSuffix(prev.Text, " ") && !strings.HasPrefix(f.Text, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(f.Text)
	}
	return strings.TrimSpace(b.String())
}

func (l line) maxSize() float64 {
	var m float64
	for _, f := range l.frags {
		m = math.Max(m, f.FontSize)
	}
	return m
}

// groupLines clusters fragments into lines ordered top to bottom, each line
// ordered left to right.
func groupLines(frags []text.TextFragment) []line {
	sorted := slices.Clone(frags)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var lines []line
	for _, f := range sorted {
		tol := math.Max(f.FontSize*0.4, 1)
		if n := len(lines); n > 0 && math.Abs(lines[n-1].y-f.Y) <= tol {
			lines[n-1].frags = append(lines[n-1].frags, f)
			continue
		}
		lines = append(lines, line{y: f.Y, frags: []text.TextFragment{f}})
	}
	for i := range lines {
		fs := lines[i].frags
		sort.SliceStable(fs, func(a, b int) bool { return fs[a].X < fs[b].X })
	}
	return lines
}

func roundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}

// onPage reports whether any running region repeats on page i.
func onPage(regions []layout.HeaderFooterRegion, i int) bool {
	for _, r := range regions {
		if slices.Contains(r.PageIndices, i) {
			return true
		}
	}
	return false
}

// buildFeatures turns the fragments of one page into its features. running
// holds the headers and footers detected across the whole document and may be
// nil.
func buildFeatures(page layout.PageFragments, firstLines int, running *layout.HeaderFooterResult) domain.PageFeatures {
	lines := groupLines(page.Fragments)

	features := domain.PageFeatures{
		Index:  page.PageIndex,
		Layout: domain.LayoutDescriptor{Width: page.PageWidth, Height: page.PageHeight},
	}
	if running != nil {
		features.Layout.HasHeader = onPage(running.Headers, page.PageIndex)
		features.Layout.HasFooter = onPage(running.Footers, page.PageIndex)
	}

	seen := make(map[float64]bool)
	texts := make([]string, 0, len(lines))
	for _, ln := range lines {
		t := ln.text()
		if t == "" {
			continue
		}
		texts = append(texts, t)

		size := roundHalf(ln.maxSize())
		first, last := ln.frags[0], ln.frags[len(ln.frags)-1]
		features.Layout.TextBlocks = append(features.Layout.TextBlocks, domain.TextBlock{
			Text:     t,
			X:        first.X,
			Y:        ln.y,
			Width:    last.X + last.Width - first.X,
			Height:   size,
			FontSize: size,
		})
		if !seen[size] {
			seen[size] = true
			features.Layout.FontSizes = append(features.Layout.FontSizes, size)
		}
	}
	sort.Float64s(features.Layout.FontSizes)

	features.Text = strings.Join(texts, "\n")
	if firstLines > len(texts) {
		firstLines = len(texts)
	}
	features.FirstLines = append([]string(nil), texts[:firstLines]...)
	return features
}
