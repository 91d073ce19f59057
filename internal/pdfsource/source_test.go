package pdfsource

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsplit/internal/domain"
	"smartsplit/internal/pdfsource/pdftest"
)

func openTestPDF(t *testing.T, pages ...pdftest.Page) *Source {
	t.Helper()
	src, err := Open(bytes.NewReader(pdftest.BuildPDF(pages...)), DefaultConfig())
	require.NoError(t, err)
	return src
}

func TestSource_Features(t *testing.T) {
	src := openTestPDF(t,
		pdftest.TextPage("From: alice@example.com", "Subject: Site visit").Heading("MEMO", 20),
		pdftest.TextPage("continued text"),
	)
	require.Equal(t, 2, src.PageCount())

	f, err := src.Features(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, f.Index)
	assert.Equal(t, []string{"MEMO", "From: alice@example.com", "Subject: Site visit"}, f.FirstLines)
	assert.Contains(t, f.Text, "Subject: Site visit")
	assert.Equal(t, 20.0, f.Layout.MaxFontSize())
	assert.Equal(t, []float64{11, 20}, f.Layout.FontSizes)
	assert.InDelta(t, pdftest.PageHeight, f.Layout.Height, 0.5)
	assert.InDelta(t, pdftest.PageWidth, f.Layout.Width, 0.5)
	require.Len(t, f.Layout.TextBlocks, 3)
	assert.InDelta(t, 72, f.Layout.TextBlocks[0].X, 0.5)

	f, err = src.Features(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "continued text", f.Text)
}

func TestSource_IdentityHText(t *testing.T) {
	src := openTestPDF(t,
		pdftest.TextPage("Allowance Schedule", "CHANGE ORDER NO. 4").Identity(),
	)

	f, err := src.Features(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Allowance Schedule", "CHANGE ORDER NO. 4"}, f.FirstLines)
	assert.Equal(t, []float64{11}, f.Layout.FontSizes)
}

func TestSource_RunningFooterEndsWithDocument(t *testing.T) {
	src := openTestPDF(t,
		pdftest.TextPage("SUBMITTAL 03 30 00").WithFooter("Acme Concrete Page 1"),
		pdftest.TextPage("mix design data").WithFooter("Acme Concrete Page 2"),
		pdftest.TextPage("RFI 17", "Question: slab edge"),
	)

	want := []bool{true, true, false}
	for i, footer := range want {
		f, err := src.Features(context.Background(), i)
		require.NoError(t, err)
		assert.Equal(t, footer, f.Layout.HasFooter, "page %d", i)
		assert.False(t, f.Layout.HasHeader, "page %d", i)
	}
}

func TestSource_RunningHeader(t *testing.T) {
	src := openTestPDF(t,
		pdftest.TextPage("DAILY REPORT - HARBOR VIEW", "crew of six"),
		pdftest.TextPage("DAILY REPORT - HARBOR VIEW", "pour delayed"),
	)

	for i := 0; i < 2; i++ {
		f, err := src.Features(context.Background(), i)
		require.NoError(t, err)
		assert.True(t, f.Layout.HasHeader, "page %d", i)
		assert.False(t, f.Layout.HasFooter, "page %d", i)
	}
}

func TestSource_SingleFooterIsNotRunning(t *testing.T) {
	src := openTestPDF(t,
		pdftest.TextPage("one").WithFooter("Confidential draft"),
		pdftest.TextPage("two"),
	)

	f, err := src.Features(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, f.Layout.HasFooter)
	assert.Contains(t, f.Text, "Confidential draft")
}

func TestSource_InvalidIndex(t *testing.T) {
	src := openTestPDF(t, pdftest.TextPage("only"))

	_, err := src.Features(context.Background(), 1)
	assert.True(t, errors.Is(err, domain.ErrInvalidPage))
	_, err = src.Features(context.Background(), -1)
	assert.True(t, errors.Is(err, domain.ErrInvalidPage))
	_, err = src.Preview(context.Background(), 5)
	assert.True(t, errors.Is(err, domain.ErrInvalidPage))
}

func TestSource_CancelledContext(t *testing.T) {
	src := openTestPDF(t, pdftest.TextPage("only"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Features(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_Preview(t *testing.T) {
	src := openTestPDF(t, pdftest.TextPage("one"), pdftest.TextPage("two"))

	data, err := src.Preview(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	single, err := Open(bytes.NewReader(data), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, single.PageCount())
}

func TestOpen_Garbage(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("not a pdf")), DefaultConfig())
	assert.Error(t, err)
}
