package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

const largeDeckSize = 100 * 1024 * 1024 // 100MB

// Validator provides input validation for deck files
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDeckPath checks that path is a readable file with a supported
// extension. It reports whether the file is unusually large.
func (v *Validator) ValidateDeckPath(path string) (large bool, err error) {
	if strings.TrimSpace(path) == "" {
		return false, domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return false, domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return false, domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	if !domain.IsSupportedDeck(path) {
		return false, domain.ValidationError(fmt.Sprintf("unsupported deck format %q", filepath.Ext(path)), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return false, domain.ValidationError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	file.Close()

	return info.Size() > largeDeckSize, nil
}

// ValidateQuality validates the JPEG quality parameter
func (v *Validator) ValidateQuality(quality int) error {
	if quality < 1 || quality > 100 {
		return domain.ValidationError(fmt.Sprintf("quality must be between 1 and 100, got %d", quality), nil)
	}
	return nil
}
