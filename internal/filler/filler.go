package filler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/a3tai/mcp-pdf-filler/internal/record"
)

// FormFiller fills one template with one record
type FormFiller struct {
	opener Opener
	logger *slog.Logger
}

// NewFormFiller creates a FormFiller on top of a form document backend
func NewFormFiller(opener Opener, logger *slog.Logger) *FormFiller {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormFiller{opener: opener, logger: logger}
}

// FillStats counts what happened to the widgets of one document
type FillStats struct {
	Widgets  int // widgets in the template
	Matched  int // widgets with a lookup table entry
	Written  int // widgets whose value was set
	Rejected int // widgets that refused the resolved value and kept their template value
}

// Fill writes rec into the widgets of templatePath and saves the result to outputPath.
// Every failure, including a panic inside the backend, comes back as a KindRecord error.
func (f *FormFiller) Fill(templatePath, outputPath string, rec record.Value, table LookupTable,
	password string,
) (stats FillStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newError(KindRecord, "fill", outputPath, fmt.Errorf("panic: %v", r))
		}
	}()

	doc, err := f.opener.Open(templatePath)
	if err != nil {
		return stats, newError(KindRecord, "open template", templatePath, err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil && err == nil {
			err = newError(KindRecord, "close template", templatePath, cerr)
		}
	}()

	for _, w := range doc.Widgets() {
		stats.Widgets++
		rule, ok := table.Rule(w.Name())
		if !ok {
			continue
		}
		stats.Matched++

		value, write := Resolve(w.Name(), rule, rec)
		if !write {
			f.logger.Debug("widget left untouched", "field", w.Name(), "type", rule.Type, "page", w.Page())
			continue
		}
		werr := w.SetValue(value)
		op := "set"
		if werr == nil {
			werr = w.Update()
			op = "update"
		}
		if errors.Is(werr, ErrValueRejected) {
			stats.Rejected++
			f.logger.Debug("widget rejected value", "field", w.Name(), "type", rule.Type,
				"value", value.String(), "error", werr)
			continue
		}
		if werr != nil {
			return stats, newError(KindRecord, fmt.Sprintf("%s field %q", op, w.Name()), templatePath, werr)
		}
		stats.Written++
	}

	if err := doc.Save(outputPath, password); err != nil {
		return stats, newError(KindRecord, "save", outputPath, err)
	}

	f.logger.Debug("form filled", "output", outputPath, "widgets", stats.Widgets,
		"matched", stats.Matched, "written", stats.Written, "rejected", stats.Rejected, "encrypted", password != "")
	return stats, nil
}
