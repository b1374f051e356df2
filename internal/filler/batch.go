package filler

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-pdf-filler/internal/record"
)

const (
	FirstNamePath    = "PERSONAL INFORMATION -> Name -> First Name :"
	LastNamePath     = "PERSONAL INFORMATION -> Name -> Last Name :"
	DefaultFirstName = "Unknown"
	DefaultLastName  = "User"

	// SingleOutputName is the file written when the records file holds one record
	SingleOutputName = "output_single_user.pdf"

	// DefaultDirPerm is used when the output directory has to be created
	DefaultDirPerm = 0o750
)

// Status is the final state of one record within a run
type Status string

const (
	StatusFilled           Status = "filled"
	StatusSkippedExists    Status = "skipped_exists"
	StatusSkippedDuplicate Status = "skipped_duplicate"
	StatusFailed           Status = "failed"
)

// Outcome describes what happened to one record
type Outcome struct {
	Index      int    `json:"index"`                // 0-based position in the records file
	Identifier string `json:"identifier,omitempty"` // "first_last", empty in single-record mode
	OutputPath string `json:"output_path"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	Written    int    `json:"written"` // widgets written, for filled records
}

// Summary is the result of one Generate call
type Summary struct {
	RunID    string    `json:"run_id"`
	Batch    bool      `json:"batch"`
	Template string    `json:"template"`
	Outcomes []Outcome `json:"outcomes"`
	Message  string    `json:"message"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// Count returns the number of outcomes with the given status
func (s *Summary) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Generator runs a FormFiller over every record of a records file
type Generator struct {
	filler *FormFiller
	logger *slog.Logger
}

// NewGenerator creates a Generator
func NewGenerator(filler *FormFiller, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{filler: filler, logger: logger}
}

// Generate fills one PDF per record into outputDir. Records whose output already exists
// or whose identifier was already produced in this run are skipped. A failing record is
// reported in the summary and does not stop the batch; only a run-level failure is
// returned as a KindFatal error.
func (g *Generator) Generate(templatePath string, set record.Set, table LookupTable, outputDir,
	password string, progress Progress,
) (*Summary, error) {
	if progress == nil {
		progress = NopProgress{}
	}

	summary := &Summary{
		RunID:    uuid.NewString(),
		Batch:    set.IsBatch(),
		Template: templatePath,
		Started:  time.Now(),
	}
	logger := g.logger.With("run_id", summary.RunID)

	if err := os.MkdirAll(outputDir, DefaultDirPerm); err != nil {
		summary.Finished = time.Now()
		return summary, newError(KindFatal, "create output directory", outputDir, err)
	}

	var err error
	if set.IsBatch() {
		err = g.generateBatch(logger, summary, templatePath, set, table, outputDir, password, progress)
	} else {
		err = g.generateSingle(logger, summary, templatePath, set, table, outputDir, password, progress)
	}
	summary.Finished = time.Now()
	if err != nil {
		return summary, err
	}

	logger.Info(summary.Message,
		"filled", summary.Count(StatusFilled),
		"skipped_exists", summary.Count(StatusSkippedExists),
		"skipped_duplicate", summary.Count(StatusSkippedDuplicate),
		"failed", summary.Count(StatusFailed),
		"elapsed", summary.Finished.Sub(summary.Started))
	return summary, nil
}

func (g *Generator) generateBatch(logger *slog.Logger, summary *Summary, templatePath string,
	set record.Set, table LookupTable, outputDir, password string, progress Progress,
) error {
	records := set.Records()
	progress.SetMaximum(len(records))
	processed := make(map[string]struct{})

	for idx, rec := range records {
		firstName := nameComponent(rec, FirstNamePath, DefaultFirstName)
		lastName := nameComponent(rec, LastNamePath, DefaultLastName)
		identifier := firstName + "_" + lastName
		outputPath := filepath.Join(outputDir, fmt.Sprintf("output_%s_%s_%d.pdf", firstName, lastName, idx+1))

		outcome := Outcome{Index: idx, Identifier: identifier, OutputPath: outputPath}

		exists, err := fileExists(outputPath)
		if err != nil {
			summary.Outcomes = append(summary.Outcomes, failedOutcome(outcome, err))
			return newError(KindFatal, "check output", outputPath, err)
		}
		if exists {
			outcome.Status = StatusSkippedExists
			outcome.Message = fmt.Sprintf("PDF for %s %s already exists.", firstName, lastName)
			logger.Warn(outcome.Message, "index", idx, "output", outputPath)
			summary.Outcomes = append(summary.Outcomes, outcome)
			continue
		}

		if _, seen := processed[identifier]; seen {
			outcome.Status = StatusSkippedDuplicate
			outcome.Message = fmt.Sprintf("Data for %s %s already processed.", firstName, lastName)
			logger.Warn(outcome.Message, "index", idx, "identifier", identifier)
			summary.Outcomes = append(summary.Outcomes, outcome)
			continue
		}

		stats, err := g.filler.Fill(templatePath, outputPath, rec, table, password)
		if err != nil {
			logger.Error("failed to fill PDF", "index", idx, "output", outputPath, "error", err)
			summary.Outcomes = append(summary.Outcomes, failedOutcome(outcome, err))
		} else {
			processed[identifier] = struct{}{}
			outcome.Status = StatusFilled
			outcome.Written = stats.Written
			outcome.Message = "PDF generated."
			summary.Outcomes = append(summary.Outcomes, outcome)
		}

		progress.Increment()
		progress.Pump()
	}

	summary.Message = "PDFs processed successfully!"
	return nil
}

func (g *Generator) generateSingle(logger *slog.Logger, summary *Summary, templatePath string,
	set record.Set, table LookupTable, outputDir, password string, progress Progress,
) error {
	rec, _ := set.Single()
	outputPath := filepath.Join(outputDir, SingleOutputName)
	outcome := Outcome{OutputPath: outputPath}
	progress.SetMaximum(1)

	exists, err := fileExists(outputPath)
	if err != nil {
		summary.Outcomes = append(summary.Outcomes, failedOutcome(outcome, err))
		return newError(KindFatal, "check output", outputPath, err)
	}
	if exists {
		outcome.Status = StatusSkippedExists
		outcome.Message = "PDF already exists."
		logger.Warn(outcome.Message, "output", outputPath)
		summary.Outcomes = append(summary.Outcomes, outcome)
		summary.Message = outcome.Message
		return nil
	}

	stats, err := g.filler.Fill(templatePath, outputPath, rec, table, password)
	if err != nil {
		logger.Error("failed to fill PDF", "output", outputPath, "error", err)
		summary.Outcomes = append(summary.Outcomes, failedOutcome(outcome, err))
		summary.Message = "PDF generation failed."
	} else {
		outcome.Status = StatusFilled
		outcome.Written = stats.Written
		outcome.Message = "PDF generated."
		summary.Outcomes = append(summary.Outcomes, outcome)
		summary.Message = "PDF generated successfully!"
	}

	progress.Increment()
	progress.Pump()
	return nil
}

func failedOutcome(o Outcome, err error) Outcome {
	o.Status = StatusFailed
	o.Message = err.Error()
	return o
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// nameComponent extracts a name part and makes it usable inside a file name. A part that
// resolves to null, "" or another falsy value takes the default.
func nameComponent(rec record.Value, path, def string) string {
	v := record.Extract(rec, path, record.String(def))
	if !v.Truthy() {
		v = record.String(def)
	}
	s := v.String()
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, s)
}
