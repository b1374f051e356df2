package filler

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/a3tai/mcp-pdf-filler/internal/record"
)

// RunConfig holds everything a front-end collects before starting a run
type RunConfig struct {
	TemplatePath    string
	RecordSetPath   string
	LookupTablePath string
	OutputDir       string
	Password        string // owner password; empty writes unencrypted output
	ReportPath      string // optional XLSX report, written by the caller
}

// Validate checks that all required paths are present
func (rc RunConfig) Validate() error {
	var errs []error
	if rc.TemplatePath == "" {
		errs = append(errs, errors.New("template path is required"))
	}
	if rc.RecordSetPath == "" {
		errs = append(errs, errors.New("records path is required"))
	}
	if rc.LookupTablePath == "" {
		errs = append(errs, errors.New("lookup table path is required"))
	}
	if rc.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	return errors.Join(errs...)
}

// Inputs are the loaded, read-only inputs of a run
type Inputs struct {
	Records record.Set
	Table   LookupTable
}

// LoadRun loads the records and lookup table named by rc. Any problem is a KindLoad
// error and must abort the run before a PDF is touched.
func LoadRun(rc RunConfig, maxFileSize int64, logger *slog.Logger) (*Inputs, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := rc.Validate(); err != nil {
		return nil, newError(KindLoad, "validate run", "", err)
	}

	set, err := record.LoadFile(rc.RecordSetPath, maxFileSize)
	if err != nil {
		return nil, newError(KindLoad, "load records", rc.RecordSetPath, err)
	}

	table, err := LoadLookupTable(rc.LookupTablePath, maxFileSize)
	if err != nil {
		return nil, newError(KindLoad, "load lookup table", rc.LookupTablePath, err)
	}

	if unsupported := table.UnsupportedRules(); len(unsupported) > 0 {
		sort.Strings(unsupported)
		logger.Warn("lookup table entries with unsupported type are ignored", "fields", unsupported)
	}

	logger.Debug("run inputs loaded", "records", set.Len(), "batch", set.IsBatch(), "rules", len(table))
	return &Inputs{Records: set, Table: table}, nil
}

// Run loads the inputs of rc and generates every output
func (g *Generator) Run(rc RunConfig, maxFileSize int64, progress Progress) (*Summary, error) {
	in, err := LoadRun(rc, maxFileSize, g.logger)
	if err != nil {
		return nil, err
	}
	return g.Generate(rc.TemplatePath, in.Records, in.Table, rc.OutputDir, rc.Password, progress)
}
