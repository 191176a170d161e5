package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BikS2013/ppt2desc/internal/config"
	"github.com/BikS2013/ppt2desc/internal/domain"
)

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}

func TestDownscale(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		maxEdge      int
		wantW, wantH int
	}{
		{"landscape", 4000, 1000, 2048, 2048, 512},
		{"portrait", 600, 1200, 300, 150, 300},
		{"within bounds", 800, 600, 2048, 800, 600},
		{"disabled", 3000, 3000, 0, 3000, 3000},
		{"extreme ratio keeps one pixel", 5000, 2, 100, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Downscale(solid(tt.w, tt.h), tt.maxEdge)
			assert.Equal(t, tt.wantW, out.Bounds().Dx())
			assert.Equal(t, tt.wantH, out.Bounds().Dy())
		})
	}
}

func TestEncode(t *testing.T) {
	img := solid(32, 16)

	data, mime, err := Encode(img, FormatJPEG, 85)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 32, decoded.Bounds().Dx())

	data, mime, err = Encode(img, FormatPNG, 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	decoded, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dy())

	_, _, err = Encode(img, "gif", 0)
	assert.Error(t, err)
}

// writeBlankPDF writes a PDF with the given number of empty US-letter pages.
func writeBlankPDF(t *testing.T, path string, pages int) {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestRasterizer_Rasterize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.pdf")
	writeBlankPDF(t, path, 2)

	r, err := NewRasterizer(RasterOptions{DPI: 72, MaxEdge: 400})
	require.NoError(t, err)
	slides, err := r.Rasterize(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, slides, 2)

	for i, s := range slides {
		assert.Equal(t, i+1, s.Number)
		assert.Equal(t, "image/jpeg", s.MIMEType)
		assert.LessOrEqual(t, s.Height, 400)
		assert.Less(t, s.Width, s.Height)
		assert.NotEmpty(t, s.Data)
	}
}

func TestRasterizer_InvalidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	r, err := NewRasterizer(RasterOptions{})
	require.NoError(t, err)
	_, err = r.Rasterize(context.Background(), path)
	require.Error(t, err)
}

func TestNewRasterizer_RejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts RasterOptions
	}{
		{"quality too high", RasterOptions{Quality: 101}},
		{"negative quality", RasterOptions{Quality: -5}},
		{"unknown format", RasterOptions{Format: "gif"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRasterizer(tt.opts)
			require.Error(t, err)
		})
	}

	r, err := NewRasterizer(RasterOptions{Format: FormatPNG, Quality: 1})
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, r.opts.Format)
	assert.Equal(t, 150.0, r.opts.DPI)
}

func TestNew_RejectsBadQuality(t *testing.T) {
	_, err := New(config.RenderConfig{Format: FormatJPEG, Quality: 200}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}
