package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

type fakeConverter struct {
	calls  int
	outDir string
	err    error
}

func (f *fakeConverter) Convert(_ context.Context, input, outDir string) (string, error) {
	f.calls++
	f.outDir = outDir
	if f.err != nil {
		return "", f.err
	}
	return filepath.Join(outDir, "converted.pdf"), nil
}

type fakeRasterizer struct {
	pages  int
	gotPDF string
	err    error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, pdfPath string) ([]domain.SlideImage, error) {
	f.gotPDF = pdfPath
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.SlideImage, f.pages)
	for i := range out {
		out[i] = domain.SlideImage{Data: []byte{byte(i)}, MIMEType: "image/jpeg"}
	}
	return out, nil
}

func deckFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestRenderer_PPTXIsConverted(t *testing.T) {
	conv := &fakeConverter{}
	rast := &fakeRasterizer{pages: 3}
	r := newRenderer(conv, rast, nil)

	slides, err := r.Render(context.Background(), deckFile(t, "board.pptx"))
	require.NoError(t, err)
	require.Len(t, slides, 3)

	assert.Equal(t, 1, conv.calls)
	assert.Equal(t, filepath.Join(conv.outDir, "converted.pdf"), rast.gotPDF)
	for i, s := range slides {
		assert.Equal(t, "board.pptx", s.Deck)
		assert.Equal(t, i+1, s.Number)
	}

	_, err = os.Stat(conv.outDir)
	assert.True(t, os.IsNotExist(err), "temp dir should be removed")
}

func TestRenderer_PDFSkipsConversion(t *testing.T) {
	conv := &fakeConverter{}
	rast := &fakeRasterizer{pages: 1}
	r := newRenderer(conv, rast, nil)

	path := deckFile(t, "handout.PDF")
	slides, err := r.Render(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Zero(t, conv.calls)
	assert.Equal(t, path, rast.gotPDF)
}

func TestRenderer_Errors(t *testing.T) {
	t.Run("invalid path", func(t *testing.T) {
		r := newRenderer(&fakeConverter{}, &fakeRasterizer{pages: 1}, nil)
		_, err := r.Render(context.Background(), filepath.Join(t.TempDir(), "gone.pptx"))
		require.Error(t, err)
		assert.True(t, domain.IsRenderError(err))
	})

	t.Run("conversion failure", func(t *testing.T) {
		convErr := domain.RenderError("libreoffice exited 1", nil)
		r := newRenderer(&fakeConverter{err: convErr}, &fakeRasterizer{pages: 1}, nil)
		_, err := r.Render(context.Background(), deckFile(t, "deck.ppt"))
		assert.ErrorIs(t, err, convErr)
	})

	t.Run("rasterizer failure", func(t *testing.T) {
		rastErr := errors.New("corrupt xref")
		r := newRenderer(&fakeConverter{}, &fakeRasterizer{err: rastErr}, nil)
		_, err := r.Render(context.Background(), deckFile(t, "deck.pdf"))
		assert.ErrorIs(t, err, rastErr)
	})

	t.Run("zero pages", func(t *testing.T) {
		r := newRenderer(&fakeConverter{}, &fakeRasterizer{pages: 0}, nil)
		_, err := r.Render(context.Background(), deckFile(t, "empty.pdf"))
		require.Error(t, err)
		assert.True(t, domain.IsRenderError(err))
	})
}

type blockingConverter struct{}

func (blockingConverter) Convert(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", domain.RenderError("conversion cancelled", ctx.Err())
}

func TestRenderer_Timeout(t *testing.T) {
	r := newRenderer(blockingConverter{}, &fakeRasterizer{pages: 1}, nil)
	r.timeout = 20 * time.Millisecond

	_, err := r.Render(context.Background(), deckFile(t, "slow.pptx"))
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeRender, domain.NewDeckError(err).Type)
	assert.Contains(t, err.Error(), "timed out")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, deckFile(t, "slow.pptx"))
	assert.Equal(t, domain.ErrorTypeCancelled, domain.NewDeckError(err).Type)
}
