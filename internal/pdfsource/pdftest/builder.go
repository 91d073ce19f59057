// Package pdftest builds small text PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	PageWidth  = 612.0
	PageHeight = 792.0

	topMargin   = 72.0
	leftMargin  = 72.0
	DefaultSize = 11.0
)

// Line is one line of text. A zero Y places the line below the previous one;
// a zero Size uses DefaultSize.
type Line struct {
	Text string
	Size float64
	Y    float64
}

// Page is the text content of a single page.
type Page struct {
	Lines []Line
	// CID shows the text with a two-byte Identity-H font that only a ToUnicode
	// CMap can decode.
	CID bool
}

// TextPage builds a page of body-sized lines.
func TextPage(lines ...string) Page {
	p := Page{}
	for _, l := range lines {
		p.Lines = append(p.Lines, Line{Text: l})
	}
	return p
}

// WithFooter appends a line at the bottom of the page.
func (p Page) WithFooter(text string) Page {
	p.Lines = append(p.Lines, Line{Text: text, Size: 9, Y: 36})
	return p
}

// Identity switches the page to the composite font.
func (p Page) Identity() Page {
	p.CID = true
	return p
}

// Heading prepends a large line.
func (p Page) Heading(text string, size float64) Page {
	p.Lines = append([]Line{{Text: text, Size: size}}, p.Lines...)
	return p
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// cidHex encodes s as glyph ids of the composite font. Glyph ids follow the
// usual TrueType layout, so 'A' is 0x0024.
func cidHex(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			r = '?'
		}
		fmt.Fprintf(&b, "%04X", r-cidOffset)
	}
	return b.String()
}

const cidOffset = 29

func (p Page) content() []byte {
	var b bytes.Buffer
	y := PageHeight - topMargin
	for _, l := range p.Lines {
		size := l.Size
		if size == 0 {
			size = DefaultSize
		}
		ly := l.Y
		if ly == 0 {
			ly = y
			y -= size * 1.4
		}
		if p.CID {
			fmt.Fprintf(&b, "BT /F2 %g Tf %g %g Td <%s> Tj ET\n", size, leftMargin, ly, cidHex(l.Text))
			continue
		}
		fmt.Fprintf(&b, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", size, leftMargin, ly, escape(l.Text))
	}
	return b.Bytes()
}

// toUnicode maps glyph ids 0x0003..0x0061 back to ASCII space..'~'.
var toUnicode = fmt.Sprintf(`/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 beginbfrange
<%04X> <%04X> <0020>
endbfrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end`, 0x20-cidOffset, 0x7e-cidOffset)

// BuildPDF renders pages into a valid PDF file. Pages use the Helvetica base
// font unless marked Identity.
func BuildPDF(pages ...Page) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	// 1 catalog, 2 page tree, 3 simple font, 4-7 composite font, then page
	// and content pairs
	const firstPage = 8
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", firstPage+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	obj("<< /Type /Font /Subtype /Type0 /BaseFont /ArialMT /Encoding /Identity-H /DescendantFonts [5 0 R] /ToUnicode 7 0 R >>")
	obj("<< /Type /Font /Subtype /CIDFontType2 /BaseFont /ArialMT /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /FontDescriptor 6 0 R /DW 556 >>")
	obj("<< /Type /FontDescriptor /FontName /ArialMT /Flags 32 /FontBBox [-665 -325 2000 1040] /ItalicAngle 0 /Ascent 905 /Descent -212 /CapHeight 716 /StemV 80 >>")
	obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(toUnicode), toUnicode))

	for i, p := range pages {
		contentRef := firstPage + 1 + 2*i
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> /Contents %d 0 R >>",
			PageWidth, PageHeight, contentRef))
		data := p.content()
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(data), data))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}
