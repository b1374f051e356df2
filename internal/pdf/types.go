package pdf

import (
	"github.com/a3tai/mcp-pdf-filler/internal/filler"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/form"
)

// Request Types

// PDFValidateTemplateRequest represents a request to validate a PDF template
type PDFValidateTemplateRequest struct {
	Path string `json:"path"`
}

// PDFTemplateFieldsRequest represents a request to list the form fields of a template
type PDFTemplateFieldsRequest struct {
	Path string `json:"path"`
}

// PDFFillFormsRequest represents a request to fill a template from a records file
type PDFFillFormsRequest struct {
	TemplatePath string `json:"template"`
	RecordsPath  string `json:"records"`
	LookupPath   string `json:"lookup"`
	OutputDir    string `json:"output_dir"`
	Password     string `json:"password,omitempty"`
	ReportPath   string `json:"report,omitempty"`
}

// RunConfig converts the request into the filler's run configuration
func (r PDFFillFormsRequest) RunConfig() filler.RunConfig {
	return filler.RunConfig{
		TemplatePath:    r.TemplatePath,
		RecordSetPath:   r.RecordsPath,
		LookupTablePath: r.LookupPath,
		OutputDir:       r.OutputDir,
		Password:        r.Password,
		ReportPath:      r.ReportPath,
	}
}

// PDFServerInfoRequest represents a request to get server information
type PDFServerInfoRequest struct{}

// Response Types

// PDFValidateTemplateResult represents the result of a template validation
type PDFValidateTemplateResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Size    int64  `json:"size,omitempty"`
	Message string `json:"message,omitempty"`
}

// PDFTemplateFieldsResult represents the form fields of a template
type PDFTemplateFieldsResult struct {
	Path       string           `json:"path"`
	Fields     []form.FieldInfo `json:"fields"`
	TotalCount int              `json:"total_count"`
}

// PDFFillFormsResult represents the result of a fill run
type PDFFillFormsResult struct {
	Summary     *filler.Summary `json:"summary"`
	ReportPath  string          `json:"report_path,omitempty"`
	ReportError string          `json:"report_error,omitempty"`
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName    string     `json:"server_name"`
	Version       string     `json:"version"`
	BaseDirectory string     `json:"base_directory"`
	MaxFileSize   int64      `json:"max_file_size"`
	Tools         []ToolInfo `json:"tools"`
	Templates     []FileInfo `json:"templates"`
	DataFiles     []FileInfo `json:"data_files"`
	Truncated     bool       `json:"truncated,omitempty"`
	UsageGuidance string     `json:"usage_guidance"`
}

// FileInfo represents a file found in the base directory
type FileInfo struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  string `json:"parameters"`
}
