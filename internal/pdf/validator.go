package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Validator checks that a template is a readable PDF
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateTemplate reports whether req.Path is a readable PDF. Validation failures are
// part of the result, not errors.
func (v *Validator) ValidateTemplate(req PDFValidateTemplateRequest) (*PDFValidateTemplateResult, error) {
	result := &PDFValidateTemplateResult{Path: req.Path}

	size, pages, err := v.inspect(req.Path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // validation failure is reported in the result
	}

	result.Valid = true
	result.Size = size
	result.Pages = pages
	return result, nil
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	_, _, err := v.inspect(filePath)
	return err == nil
}

func (v *Validator) inspect(filePath string) (int64, int, error) {
	if filePath == "" {
		return 0, 0, fmt.Errorf("path cannot be empty")
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return 0, 0, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return 0, 0, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return 0, 0, fmt.Errorf("file is not a PDF: %s", filePath)
	}
	if info.Size() == 0 {
		return 0, 0, fmt.Errorf("file is empty: %s", filePath)
	}
	if v.maxFileSize > 0 && info.Size() > v.maxFileSize {
		return 0, 0, fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), v.maxFileSize)
	}

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	return info.Size(), r.NumPage(), nil
}
