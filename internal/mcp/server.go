package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-filler/internal/config"
	"github.com/a3tai/mcp-pdf-filler/internal/descriptions"
	"github.com/a3tai/mcp-pdf-filler/internal/filler"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf"
)

const (
	// ShutdownTimeout bounds the graceful shutdown of the SSE server
	ShutdownTimeout = 5 * time.Second

	readHeaderTimeout = 10 * time.Second
	maxListedFields   = 200
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	serverInfo *pdf.ServerInfo
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		serverInfo: pdf.NewServerInfo(pdfService),
		mcpServer:  mcpServer,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pdfFillFormsTool := mcp.NewTool(
		"pdf_fill_forms",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_fill_forms")),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Path to the PDF template with form fields"),
		),
		mcp.WithString("records",
			mcp.Required(),
			mcp.Description("Path to a JSON file holding one record or an array of records"),
		),
		mcp.WithString("lookup",
			mcp.Required(),
			mcp.Description("Path to the lookup table (.json, .yaml or .yml)"),
		),
		mcp.WithString("output_dir",
			mcp.Required(),
			mcp.Description("Directory the filled PDFs are written to"),
		),
		mcp.WithString("password",
			mcp.Description("Owner password; encrypts every output with AES-256"),
		),
		mcp.WithString("report",
			mcp.Description("Path of an .xlsx report of the run"),
		),
	)
	s.mcpServer.AddTool(pdfFillFormsTool, s.handlePDFFillForms)

	pdfTemplateFieldsTool := mcp.NewTool(
		"pdf_template_fields",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_template_fields")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF template"),
		),
	)
	s.mcpServer.AddTool(pdfTemplateFieldsTool, s.handlePDFTemplateFields)

	pdfValidateTemplateTool := mcp.NewTool(
		"pdf_validate_template",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_template")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF template"),
		),
	)
	s.mcpServer.AddTool(pdfValidateTemplateTool, s.handlePDFValidateTemplate)

	pdfServerInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	)
	s.mcpServer.AddTool(pdfServerInfoTool, s.handlePDFServerInfo)
}

// Handler functions
func (s *Server) handlePDFFillForms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req pdf.PDFFillFormsRequest
	var err error
	for name, dst := range map[string]*string{
		"template":   &req.TemplatePath,
		"records":    &req.RecordsPath,
		"lookup":     &req.LookupPath,
		"output_dir": &req.OutputDir,
	} {
		if *dst, err = request.RequireString(name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	req.Password = request.GetString("password", "")
	req.ReportPath = request.GetString("report", "")

	result, err := s.pdfService.PDFFillForms(req, s.progressFor(ctx, request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFFillFormsResult(result)), nil
}

func (s *Server) handlePDFTemplateFields(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFTemplateFields(pdf.PDFTemplateFieldsRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFTemplateFieldsResult(result)), nil
}

func (s *Server) handlePDFValidateTemplate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFValidateTemplate(pdf.PDFValidateTemplateRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF template %s is valid: %d page(s), %d bytes", result.Path, result.Pages, result.Size)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.serverInfo.GetServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFServerInfoResult(result)), nil
}

// progressFor returns a progress sink that reports to the client when the request
// carries a progress token, and to the log otherwise.
func (s *Server) progressFor(ctx context.Context, request mcp.CallToolRequest) filler.Progress {
	logProgress := &filler.LogProgress{Logger: s.logger}
	if request.Params.Meta == nil || request.Params.Meta.ProgressToken == nil {
		return logProgress
	}
	return &clientProgress{
		LogProgress: logProgress,
		ctx:         ctx,
		mcpServer:   s.mcpServer,
		token:       request.Params.Meta.ProgressToken,
	}
}

// clientProgress sends notifications/progress for every pumped step
type clientProgress struct {
	*filler.LogProgress
	ctx       context.Context
	mcpServer *server.MCPServer
	token     mcp.ProgressToken
}

func (p *clientProgress) Pump() {
	p.LogProgress.Pump()
	err := p.mcpServer.SendNotificationToClient(p.ctx, "notifications/progress", map[string]any{
		"progressToken": p.token,
		"progress":      p.Value(),
		"total":         p.Maximum(),
	})
	if err != nil {
		p.Logger.Debug("progress notification not sent", "error", err)
	}
}

func (s *Server) formatPDFFillFormsResult(result *pdf.PDFFillFormsResult) string {
	summary := result.Summary
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", summary.Message)
	fmt.Fprintf(&b, "Run: %s\n", summary.RunID)
	fmt.Fprintf(&b, "Template: %s\n", summary.Template)
	if summary.Batch {
		fmt.Fprintf(&b, "Mode: batch (%d record(s))\n", len(summary.Outcomes))
	} else {
		b.WriteString("Mode: single record\n")
	}
	fmt.Fprintf(&b, "Filled: %d, skipped (exists): %d, skipped (duplicate): %d, failed: %d\n",
		summary.Count(filler.StatusFilled),
		summary.Count(filler.StatusSkippedExists),
		summary.Count(filler.StatusSkippedDuplicate),
		summary.Count(filler.StatusFailed))

	if len(summary.Outcomes) > 0 {
		b.WriteString("\nOutcomes:\n")
		for _, o := range summary.Outcomes {
			fmt.Fprintf(&b, "%d. [%s] %s", o.Index+1, o.Status, o.OutputPath)
			if o.Message != "" {
				fmt.Fprintf(&b, ": %s", o.Message)
			}
			b.WriteString("\n")
		}
	}

	if result.ReportPath != "" {
		fmt.Fprintf(&b, "\nReport: %s\n", result.ReportPath)
	}
	if result.ReportError != "" {
		fmt.Fprintf(&b, "\nReport could not be written: %s\n", result.ReportError)
	}

	return b.String()
}

func (s *Server) formatPDFTemplateFieldsResult(result *pdf.PDFTemplateFieldsResult) string {
	text := fmt.Sprintf("Form fields of %s\n", result.Path)
	text += fmt.Sprintf("Total fields: %d\n", result.TotalCount)

	if result.TotalCount == 0 {
		return text + "\nThe template has no interactive form fields.\n"
	}

	text += "\n"
	for i, field := range result.Fields {
		if i >= maxListedFields {
			text += fmt.Sprintf("... and %d more fields\n", result.TotalCount-maxListedFields)
			break
		}
		text += fmt.Sprintf("%d. %s (%s, pages %v)", i+1, field.Name, field.Type, field.Pages)
		if len(field.Options) > 0 {
			text += fmt.Sprintf(" options: %s", strings.Join(field.Options, ", "))
		}
		if field.Value != nil && field.Value != "" {
			text += fmt.Sprintf(" value: %v", field.Value)
		}
		if field.Locked {
			text += " [locked]"
		}
		text += "\n"
	}

	return text
}

func (s *Server) formatPDFServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("%s v%s - Server Information\n", result.ServerName, result.Version)
	if result.BaseDirectory != "" {
		text += fmt.Sprintf("Base Directory: %s\n", result.BaseDirectory)
	}
	text += fmt.Sprintf("Max File Size: %d MB\n\n", result.MaxFileSize/(1024*1024))

	text += formatFileList("Templates", result.Templates)
	text += formatFileList("Data files", result.DataFiles)
	if result.Truncated {
		text += "(directory listing truncated)\n\n"
	}

	text += "Available Tools:\n"
	for _, tool := range result.Tools {
		text += fmt.Sprintf("\n- %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance

	return text
}

func formatFileList(title string, files []pdf.FileInfo) string {
	if len(files) == 0 {
		return fmt.Sprintf("%s: none found\n\n", title)
	}
	text := fmt.Sprintf("%s (%d found):\n", title, len(files))
	for i, file := range files {
		if i >= 10 {
			text += fmt.Sprintf("   ... and %d more\n", len(files)-10)
			break
		}
		text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Path, file.Size)
	}
	return text + "\n"
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	switch {
	case s.config.IsServerMode():
		return s.runServerMode(ctx)
	case s.config.IsStdioMode():
		return s.runStdioMode(ctx)
	default:
		return fmt.Errorf("unsupported MCP mode: %s", s.config.Mode)
	}
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode", "base_directory", s.pdfService.BaseDirectory())

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is done
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	httpServer := &http.Server{Addr: addr, ReadHeaderTimeout: readHeaderTimeout}
	sseServer := server.NewSSEServer(s.mcpServer,
		server.WithHTTPServer(httpServer),
		server.WithBaseURL("http://"+addr),
	)
	httpServer.Handler = sseServer

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server in SSE mode", "address", addr, "base_directory", s.pdfService.BaseDirectory())
		errCh <- sseServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve SSE: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down MCP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down SSE server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	}
}
