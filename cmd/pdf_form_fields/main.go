package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-pdf-filler/internal/config"
	"github.com/a3tai/mcp-pdf-filler/internal/filler"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/form"
)

type options struct {
	format      string
	validate    bool
	lookup      string
	maxFileSize int64
	verbose     bool
}

// lookupCheck compares a lookup table with the fields of a template
type lookupCheck struct {
	Unknown     []string `json:"unknown_fields"`     // rules naming fields the template lacks
	Unmapped    []string `json:"unmapped_fields"`    // template fields without a rule
	Unsupported []string `json:"unsupported_fields"` // rules with a type the filler ignores
}

type report struct {
	Validation *pdf.PDFValidateTemplateResult `json:"validation,omitempty"`
	Fields     *pdf.PDFTemplateFieldsResult   `json:"fields"`
	Lookup     *lookupCheck                   `json:"lookup,omitempty"`
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "pdf_form_fields <template.pdf>",
		Short: "List the form fields of a PDF template",
		Long: `List the interactive form fields of a PDF template with their type, pages and options.

The field names are the keys a lookup table must use. With --lookup the table is
checked against the template: rules for fields the template lacks and template
fields without a rule are reported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	flags.BoolVar(&opts.validate, "validate", false, "Validate the template before listing its fields")
	flags.StringVarP(&opts.lookup, "lookup", "l", "", "Check this lookup table (.json, .yaml) against the template")
	flags.Int64Var(&opts.maxFileSize, "maxfilesize", config.DefaultMaxFileSize, "Maximum input file size in bytes")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging on stderr")

	return cmd
}

func run(out, errOut io.Writer, path string, opts *options) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", opts.format)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	service, err := pdf.NewService(opts.maxFileSize, "", logger)
	if err != nil {
		return err
	}

	var r report
	if opts.validate {
		r.Validation, err = service.PDFValidateTemplate(pdf.PDFValidateTemplateRequest{Path: path})
		if err != nil {
			return err
		}
		if !r.Validation.Valid {
			return fmt.Errorf("template is not valid: %s", r.Validation.Message)
		}
	}

	r.Fields, err = service.PDFTemplateFields(pdf.PDFTemplateFieldsRequest{Path: path})
	if err != nil {
		return err
	}

	if opts.lookup != "" {
		table, err := filler.LoadLookupTable(opts.lookup, opts.maxFileSize)
		if err != nil {
			return err
		}
		r.Lookup = checkLookup(table, r.Fields.Fields)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	writeText(out, &r)
	return nil
}

func checkLookup(table filler.LookupTable, fields []form.FieldInfo) *lookupCheck {
	check := &lookupCheck{
		Unknown:     []string{},
		Unmapped:    []string{},
		Unsupported: append([]string{}, table.UnsupportedRules()...),
	}
	sort.Strings(check.Unsupported)

	present := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		present[f.Name] = struct{}{}
		if _, ok := table[f.Name]; !ok {
			check.Unmapped = append(check.Unmapped, f.Name)
		}
	}
	for name := range table {
		if _, ok := present[name]; !ok {
			check.Unknown = append(check.Unknown, name)
		}
	}
	sort.Strings(check.Unknown)
	sort.Strings(check.Unmapped)
	return check
}

func writeText(out io.Writer, r *report) {
	if r.Validation != nil {
		fmt.Fprintf(out, "Template: %s (%d page(s), %d bytes)\n", r.Validation.Path, r.Validation.Pages, r.Validation.Size)
	} else {
		fmt.Fprintf(out, "Template: %s\n", r.Fields.Path)
	}
	fmt.Fprintf(out, "Fields: %d\n\n", r.Fields.TotalCount)

	for _, f := range r.Fields.Fields {
		pages := make([]string, len(f.Pages))
		for i, p := range f.Pages {
			pages[i] = fmt.Sprint(p)
		}
		fmt.Fprintf(out, "%-10s p.%-5s %s", f.Type, strings.Join(pages, ","), f.Name)
		if len(f.Options) > 0 {
			fmt.Fprintf(out, " [%s]", strings.Join(f.Options, " | "))
		}
		if f.Locked {
			fmt.Fprint(out, " (locked)")
		}
		fmt.Fprintln(out)
	}

	if r.Lookup == nil {
		return
	}
	fmt.Fprintln(out)
	writeList(out, "Lookup rules without a template field", r.Lookup.Unknown)
	writeList(out, "Template fields without a lookup rule", r.Lookup.Unmapped)
	writeList(out, "Lookup rules with an unsupported type", r.Lookup.Unsupported)
}

func writeList(out io.Writer, title string, names []string) {
	fmt.Fprintf(out, "%s: %d\n", title, len(names))
	for _, n := range names {
		fmt.Fprintf(out, "  %s\n", n)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
