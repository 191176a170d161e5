package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

// Image formats accepted by the rasterizer
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// RasterOptions controls page rendering and encoding
type RasterOptions struct {
	DPI     float64
	MaxEdge int // 0 keeps the native size
	Format  string
	Quality int
}

// DefaultRasterOptions returns the options used when none are configured.
func DefaultRasterOptions() RasterOptions {
	return RasterOptions{
		DPI:     150,
		MaxEdge: 2048,
		Format:  FormatJPEG,
		Quality: 85,
	}
}

// Rasterizer renders PDF pages into encoded images
type Rasterizer struct {
	opts RasterOptions
}

// NewRasterizer creates a rasterizer, filling zero options with defaults.
// An unknown format or a quality outside 1..100 is rejected.
func NewRasterizer(opts RasterOptions) (*Rasterizer, error) {
	def := DefaultRasterOptions()
	if opts.DPI <= 0 {
		opts.DPI = def.DPI
	}
	if opts.Format == "" {
		opts.Format = def.Format
	}
	if opts.Quality == 0 {
		opts.Quality = def.Quality
	}
	switch opts.Format {
	case FormatJPEG, FormatPNG:
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unsupported image format %q", opts.Format), nil)
	}
	if err := NewValidator().ValidateQuality(opts.Quality); err != nil {
		return nil, err
	}
	return &Rasterizer{opts: opts}, nil
}

// Rasterize renders every page of the PDF in order. Numbers are 1-based.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath string) ([]domain.SlideImage, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, domain.RenderError("failed to open PDF", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	slides := make([]domain.SlideImage, 0, numPages)

	for n := 0; n < numPages; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(n, r.opts.DPI)
		if err != nil {
			return nil, domain.RenderError(fmt.Sprintf("failed to render page %d", n+1), err)
		}

		scaled := Downscale(img, r.opts.MaxEdge)
		data, mimeType, err := Encode(scaled, r.opts.Format, r.opts.Quality)
		if err != nil {
			return nil, domain.RenderError(fmt.Sprintf("failed to encode page %d", n+1), err)
		}

		b := scaled.Bounds()
		slides = append(slides, domain.SlideImage{
			Number:   n + 1,
			Data:     data,
			MIMEType: mimeType,
			Width:    b.Dx(),
			Height:   b.Dy(),
		})
	}

	return slides, nil
}

// Downscale shrinks img so its longest edge is at most maxEdge, keeping the
// aspect ratio. Images already within bounds are returned unchanged.
func Downscale(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if maxEdge <= 0 || longest <= maxEdge {
		return img
	}

	nw := w * maxEdge / longest
	nh := h * maxEdge / longest
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Encode serializes img as JPEG or PNG and returns the bytes with their MIME type.
func Encode(img image.Image, format string, quality int) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJPEG, "jpg", "":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	default:
		return nil, "", fmt.Errorf("unsupported image format %q", format)
	}
}
