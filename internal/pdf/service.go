package pdf

import (
	"fmt"
	"log/slog"

	"github.com/a3tai/mcp-pdf-filler/internal/filler"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/form"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/security"
	"github.com/a3tai/mcp-pdf-filler/internal/report"
)

// Service handles PDF form operations by orchestrating the filler components
type Service struct {
	maxFileSize   int64
	validator     *Validator
	backend       *form.PDFCPUBackend
	generator     *filler.Generator
	pathValidator *security.PathValidator
	logger        *slog.Logger
}

// NewService creates a new PDF service. When baseDirectory is not empty, every path
// handed to the service must resolve inside it; relative paths are taken relative to it.
func NewService(maxFileSize int64, baseDirectory string, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		maxFileSize: maxFileSize,
		validator:   NewValidator(maxFileSize),
		logger:      logger,
	}
	s.backend = form.NewPDFCPUBackend(maxFileSize, logger)
	s.generator = filler.NewGenerator(filler.NewFormFiller(s.backend, logger), logger)

	if baseDirectory != "" {
		pathValidator, err := security.NewPathValidator(baseDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to create path validator: %w", err)
		}
		s.pathValidator = pathValidator
	}
	return s, nil
}

// resolve applies the base directory restriction, if any
func (s *Service) resolve(path string) (string, error) {
	if s.pathValidator == nil {
		return path, nil
	}
	resolved, err := s.pathValidator.Resolve(path)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	return resolved, nil
}

// PDFValidateTemplate checks that a template is a readable PDF
func (s *Service) PDFValidateTemplate(req PDFValidateTemplateRequest) (*PDFValidateTemplateResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	req.Path = path
	return s.validator.ValidateTemplate(req)
}

// PDFTemplateFields lists the form fields of a template
func (s *Service) PDFTemplateFields(req PDFTemplateFieldsRequest) (*PDFTemplateFieldsResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}

	doc, err := s.backend.OpenDocument(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer doc.Close()

	fields := doc.Fields()
	return &PDFTemplateFieldsResult{
		Path:       path,
		Fields:     fields,
		TotalCount: len(fields),
	}, nil
}

// PDFFillForms loads the records and lookup table, fills every output and writes the
// optional report. Load and fatal run errors are returned; per-record failures are part
// of the summary.
func (s *Service) PDFFillForms(req PDFFillFormsRequest, progress filler.Progress) (*PDFFillFormsResult, error) {
	rc := req.RunConfig()
	if err := rc.Validate(); err != nil {
		return nil, err
	}

	var err error
	for _, p := range []*string{&rc.TemplatePath, &rc.RecordSetPath, &rc.LookupTablePath, &rc.OutputDir} {
		if *p, err = s.resolve(*p); err != nil {
			return nil, err
		}
	}
	if rc.ReportPath != "" {
		if rc.ReportPath, err = s.resolve(rc.ReportPath); err != nil {
			return nil, err
		}
	}

	summary, err := s.generator.Run(rc, s.maxFileSize, progress)
	if err != nil {
		return &PDFFillFormsResult{Summary: summary}, err
	}

	result := &PDFFillFormsResult{Summary: summary}
	if rc.ReportPath != "" {
		if err := report.WriteXLSX(rc.ReportPath, summary); err != nil {
			s.logger.Error("failed to write report", "path", rc.ReportPath, "error", err)
			result.ReportError = err.Error()
		} else {
			result.ReportPath = rc.ReportPath
		}
	}
	return result, nil
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// BaseDirectory returns the directory paths are restricted to, or "" when unrestricted
func (s *Service) BaseDirectory() string {
	if s.pathValidator == nil {
		return ""
	}
	return s.pathValidator.BaseDirectory()
}
