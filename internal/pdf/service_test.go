package pdf

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-filler/internal/filler"
)

const (
	testRecords = `[
		{"PERSONAL INFORMATION": {"Name": {"First Name :": "Jane", "Last Name :": "Doe"}}},
		{"PERSONAL INFORMATION": {"Name": {"First Name :": "John", "Last Name :": "Roe"}}}
	]`
	testLookup = `{"first_name": {"json_path": "PERSONAL INFORMATION -> Name -> First Name :", "type": "FILL_FIELD"}}`
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestNewService(t *testing.T) {
	tests := []struct {
		name    string
		baseDir string
		wantDir bool
	}{
		{name: "unrestricted", baseDir: ""},
		{name: "restricted", baseDir: t.TempDir(), wantDir: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewService(1024, tt.baseDir, testLogger())
			require.NoError(t, err)
			assert.Equal(t, int64(1024), s.GetMaxFileSize())
			assert.Equal(t, tt.wantDir, s.BaseDirectory() != "")
			assert.NotNil(t, s.validator)
			assert.NotNil(t, s.backend)
			assert.NotNil(t, s.generator)
		})
	}
}

func TestService_RejectsPathsOutsideBase(t *testing.T) {
	base := t.TempDir()
	s, err := NewService(1024*1024, base, testLogger())
	require.NoError(t, err)

	_, err = s.PDFValidateTemplate(PDFValidateTemplateRequest{Path: "../escape.pdf"})
	assert.ErrorContains(t, err, "security validation failed")

	_, err = s.PDFTemplateFields(PDFTemplateFieldsRequest{Path: "/etc/passwd"})
	assert.ErrorContains(t, err, "security validation failed")

	_, err = s.PDFFillForms(PDFFillFormsRequest{
		TemplatePath: "form.pdf",
		RecordsPath:  "records.json",
		LookupPath:   "lookup.json",
		OutputDir:    "../out",
	}, nil)
	assert.ErrorContains(t, err, "security validation failed")
}

func TestService_PDFValidateTemplate(t *testing.T) {
	base := t.TempDir()
	writeTestFile(t, base, "notes.txt", "hello")
	writeTestFile(t, base, "broken.pdf", "not a pdf at all")

	s, err := NewService(1024*1024, base, testLogger())
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
	}{
		{name: "missing", path: "missing.pdf"},
		{name: "wrong extension", path: "notes.txt"},
		{name: "unparseable", path: "broken.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.PDFValidateTemplate(PDFValidateTemplateRequest{Path: tt.path})
			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.NotEmpty(t, result.Message)
			assert.True(t, filepath.IsAbs(result.Path), "relative paths are resolved against the base directory")
		})
	}
}

func TestService_PDFTemplateFields_OpenError(t *testing.T) {
	base := t.TempDir()
	s, err := NewService(1024*1024, base, testLogger())
	require.NoError(t, err)

	_, err = s.PDFTemplateFields(PDFTemplateFieldsRequest{Path: "missing.pdf"})
	assert.ErrorContains(t, err, "failed to open template")
}

func TestService_PDFFillForms_LoadErrors(t *testing.T) {
	base := t.TempDir()
	writeTestFile(t, base, "records.json", testRecords)
	writeTestFile(t, base, "lookup.json", testLookup)
	writeTestFile(t, base, "bad.json", `{"x":`)

	s, err := NewService(1024*1024, base, testLogger())
	require.NoError(t, err)

	tests := []struct {
		name string
		req  PDFFillFormsRequest
	}{
		{
			name: "missing records",
			req:  PDFFillFormsRequest{TemplatePath: "form.pdf", RecordsPath: "nope.json", LookupPath: "lookup.json", OutputDir: "out"},
		},
		{
			name: "malformed lookup",
			req:  PDFFillFormsRequest{TemplatePath: "form.pdf", RecordsPath: "records.json", LookupPath: "bad.json", OutputDir: "out"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.PDFFillForms(tt.req, nil)
			require.Error(t, err)
			assert.True(t, filler.IsKind(err, filler.KindLoad))
			assert.NoDirExists(t, filepath.Join(base, "out"), "nothing is created before inputs load")
		})
	}

	_, err = s.PDFFillForms(PDFFillFormsRequest{}, nil)
	assert.ErrorContains(t, err, "template path is required")
}

func TestService_PDFFillForms_RecordFailuresAndReport(t *testing.T) {
	base := t.TempDir()
	writeTestFile(t, base, "records.json", testRecords)
	writeTestFile(t, base, "lookup.json", testLookup)
	writeTestFile(t, base, "form.pdf", "not a pdf at all")

	s, err := NewService(1024*1024, base, testLogger())
	require.NoError(t, err)

	result, err := s.PDFFillForms(PDFFillFormsRequest{
		TemplatePath: "form.pdf",
		RecordsPath:  "records.json",
		LookupPath:   "lookup.json",
		OutputDir:    "out",
		ReportPath:   "report.xlsx",
	}, nil)
	require.NoError(t, err, "an unreadable template fails records, not the run")
	require.NotNil(t, result.Summary)

	assert.True(t, result.Summary.Batch)
	assert.Equal(t, 2, result.Summary.Count(filler.StatusFailed))
	assert.Equal(t, "PDFs processed successfully!", result.Summary.Message)
	assert.DirExists(t, filepath.Join(base, "out"))
	assert.NoFileExists(t, filepath.Join(base, "out", "output_Jane_Doe_1.pdf"))

	assert.Empty(t, result.ReportError)
	assert.Equal(t, filepath.Join(base, "report.xlsx"), result.ReportPath)
	assert.FileExists(t, result.ReportPath)
}

func TestService_PDFFillForms_ReportErrorDoesNotFailRun(t *testing.T) {
	base := t.TempDir()
	writeTestFile(t, base, "records.json", testRecords)
	writeTestFile(t, base, "lookup.json", testLookup)
	writeTestFile(t, base, "form.pdf", "not a pdf at all")

	s, err := NewService(1024*1024, base, testLogger())
	require.NoError(t, err)

	result, err := s.PDFFillForms(PDFFillFormsRequest{
		TemplatePath: "form.pdf",
		RecordsPath:  "records.json",
		LookupPath:   "lookup.json",
		OutputDir:    "out",
		ReportPath:   "missing-dir/report.xlsx",
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ReportError)
	assert.Empty(t, result.ReportPath)
}

func TestServerInfo_GetServerInfo(t *testing.T) {
	base := t.TempDir()
	writeTestFile(t, base, "templates/form.pdf", "%PDF")
	writeTestFile(t, base, "data/records.json", testRecords)
	writeTestFile(t, base, "data/lookup.yaml", "a: {}")
	writeTestFile(t, base, "notes.txt", "ignored")
	writeTestFile(t, base, ".hidden/secret.pdf", "%PDF")

	s, err := NewService(100*1024*1024, base, testLogger())
	require.NoError(t, err)
	info := NewServerInfo(s)

	result, err := info.GetServerInfo(context.Background(), "test-server", "1.0.0-test")
	require.NoError(t, err)

	assert.Equal(t, "test-server", result.ServerName)
	assert.Equal(t, "1.0.0-test", result.Version)
	assert.Equal(t, s.BaseDirectory(), result.BaseDirectory)
	assert.Equal(t, int64(100*1024*1024), result.MaxFileSize)
	assert.Contains(t, result.UsageGuidance, "100MB")

	var tools []string
	for _, tool := range result.Tools {
		tools = append(tools, tool.Name)
		assert.NotEqual(t, "Tool description not available", tool.Description)
	}
	assert.ElementsMatch(t, []string{"pdf_fill_forms", "pdf_template_fields", "pdf_validate_template", "pdf_server_info"}, tools)

	require.Len(t, result.Templates, 1)
	assert.Equal(t, "form.pdf", result.Templates[0].Name)
	assert.Len(t, result.DataFiles, 2)
	assert.False(t, result.Truncated)

	// served from cache until the TTL expires
	writeTestFile(t, base, "templates/other.pdf", "%PDF")
	again, err := info.GetServerInfo(context.Background(), "test-server", "1.0.0-test")
	require.NoError(t, err)
	assert.Len(t, again.Templates, 1)
}

func TestServerInfo_ExpiredScanIsDropped(t *testing.T) {
	base := t.TempDir()
	writeTestFile(t, base, "form.pdf", "%PDF")

	s, err := NewService(1024, base, testLogger())
	require.NoError(t, err)
	info := NewServerInfo(s)
	info.cache = NewDirectoryCache(-time.Second)

	result, err := info.GetServerInfo(context.Background(), "srv", "dev")
	require.NoError(t, err)
	assert.Len(t, result.Templates, 1)

	writeTestFile(t, base, "other.pdf", "%PDF")
	result, err = info.GetServerInfo(context.Background(), "srv", "dev")
	require.NoError(t, err)
	assert.Len(t, result.Templates, 2, "an expired listing is rescanned")
	assert.Len(t, info.cache.entries, 1)
}

func TestDirectoryCache_Clear(t *testing.T) {
	cache := NewDirectoryCache(time.Minute)
	cache.Set("fresh", &ScanResult{})
	cache.Set("stale", &ScanResult{})
	cache.entries["stale"].lastUpdate = time.Now().Add(-time.Hour)

	_, ok := cache.Get("stale")
	assert.False(t, ok)

	cache.Clear()
	assert.Len(t, cache.entries, 1)
	_, ok = cache.Get("fresh")
	assert.True(t, ok)
}

func TestServerInfo_Unrestricted(t *testing.T) {
	s, err := NewService(1024, "", testLogger())
	require.NoError(t, err)

	result, err := NewServerInfo(s).GetServerInfo(context.Background(), "srv", "dev")
	require.NoError(t, err)
	assert.Empty(t, result.BaseDirectory)
	assert.Empty(t, result.Templates)
	assert.Len(t, result.Tools, 4)
}

func TestDirectoryScanner_Limits(t *testing.T) {
	base := t.TempDir()
	writeTestFile(t, base, "a.pdf", "%PDF")
	writeTestFile(t, base, "b.pdf", "%PDF")
	writeTestFile(t, base, "c.pdf", "%PDF")
	writeTestFile(t, base, "deep/er/d.pdf", "%PDF")

	result, err := NewDirectoryScanner(0, 2, 0).Scan(context.Background(), base)
	require.NoError(t, err)
	assert.Len(t, result.Templates, 2)
	assert.True(t, result.Truncated)

	result, err = NewDirectoryScanner(1, 0, 0).Scan(context.Background(), base)
	require.NoError(t, err)
	assert.Len(t, result.Templates, 3, "files below the depth limit are not visited")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDirectoryScanner(0, 0, 0).Scan(ctx, base)
	assert.ErrorIs(t, err, context.Canceled)
}
