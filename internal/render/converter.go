package render

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

// libreOfficeBinaries are looked up on PATH when no binary is configured.
var libreOfficeBinaries = []string{"soffice", "libreoffice"}

// FindLibreOffice resolves the LibreOffice binary. A configured path must
// exist; otherwise PATH is searched.
func FindLibreOffice(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", domain.ConfigError(fmt.Sprintf("LibreOffice not found at %s", configured), err)
		}
		return configured, nil
	}
	for _, name := range libreOfficeBinaries {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", domain.ConfigError("LibreOffice not found on PATH; set --libreoffice_path or LIBREOFFICE_PATH", nil)
}

// Converter turns presentation files into PDF with a headless LibreOffice
type Converter struct {
	binary string
}

// NewConverter creates a converter. An empty binary is resolved on first use.
func NewConverter(binary string) *Converter {
	return &Converter{binary: binary}
}

// Convert writes <outDir>/<stem>.pdf and returns its path.
func (c *Converter) Convert(ctx context.Context, input, outDir string) (string, error) {
	binary, err := FindLibreOffice(c.binary)
	if err != nil {
		return "", err
	}

	// A private profile lets several conversions run at once.
	profile := filepath.Join(outDir, "lo-profile")
	cmd := exec.CommandContext(ctx, binary,
		"-env:UserInstallation="+(&url.URL{Scheme: "file", Path: profile}).String(),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		input,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", domain.RenderError("conversion cancelled", ctx.Err())
		}
		return "", domain.RenderError(fmt.Sprintf("converting %s: %s", filepath.Base(input), strings.TrimSpace(stderr.String())), err)
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	pdfPath := filepath.Join(outDir, stem+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", domain.RenderError(fmt.Sprintf("LibreOffice produced no PDF for %s", filepath.Base(input)), err)
	}
	return pdfPath, nil
}
