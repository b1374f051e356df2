package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/mcp-pdf-filler/internal/filler"
)

// AESKeyLength is the key length used for encrypted output
const AESKeyLength = 256

// OutputPerm is the mode of written PDF files
const OutputPerm = 0o640

// PDFCPUBackend opens templates through pdfcpu's form export and writes them back
// through pdfcpu's form filling.
type PDFCPUBackend struct {
	maxFileSize int64
	logger      *slog.Logger
}

// NewPDFCPUBackend creates a backend. maxFileSize <= 0 disables the template size limit.
func NewPDFCPUBackend(maxFileSize int64, logger *slog.Logger) *PDFCPUBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFCPUBackend{maxFileSize: maxFileSize, logger: logger}
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open implements filler.Opener
func (b *PDFCPUBackend) Open(path string) (filler.Document, error) {
	return b.OpenDocument(path)
}

// OpenDocument reads a template and enumerates its form fields
func (b *PDFCPUBackend) OpenDocument(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access template: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("template path is a directory: %s", path)
	}
	if b.maxFileSize > 0 && info.Size() > b.maxFileSize {
		return nil, fmt.Errorf("template too large: %d bytes (max: %d bytes)", info.Size(), b.maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	var export bytes.Buffer
	if err := api.ExportFormJSON(bytes.NewReader(data), &export, path, newConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to read form fields: %w", err)
	}

	doc, err := parseExport(data, export.Bytes())
	if err != nil {
		return nil, err
	}
	b.logger.Debug("template opened", "path", path, "widgets", len(doc.widgets))
	return doc, nil
}

// Document is a template opened for filling
type Document struct {
	template []byte
	form     exportedForm
	widgets  []*Widget
	dirty    bool
	closed   bool
}

func parseExport(template, export []byte) (*Document, error) {
	doc := &Document{template: template}
	if err := json.Unmarshal(export, &doc.form); err != nil {
		return nil, fmt.Errorf("failed to decode form export: %w", err)
	}

	for _, f := range doc.form.Forms {
		for _, group := range groupTypes {
			for _, entry := range f[group.key] {
				w := &Widget{doc: doc, typ: group.typ, entry: entry}
				w.name = entry.str("name")
				if w.name == "" {
					w.name = entry.str("id")
				}
				if pages := entry.pages(); len(pages) > 0 {
					w.page = pages[0]
				}
				doc.widgets = append(doc.widgets, w)
			}
		}
	}

	sort.SliceStable(doc.widgets, func(i, j int) bool {
		return doc.widgets[i].page < doc.widgets[j].page
	})
	return doc, nil
}

// Widgets implements filler.Document
func (d *Document) Widgets() []filler.Widget {
	out := make([]filler.Widget, len(d.widgets))
	for i, w := range d.widgets {
		out[i] = w
	}
	return out
}

// Fields describes every widget of the document in page order
func (d *Document) Fields() []FieldInfo {
	out := make([]FieldInfo, 0, len(d.widgets))
	for _, w := range d.widgets {
		out = append(out, w.Info())
	}
	return out
}

// Save implements filler.Document. The output is written with O_EXCL, so Save fails
// instead of replacing a file that appeared after the caller's existence check.
func (d *Document) Save(path, ownerPassword string) error {
	if d.closed {
		return errors.New("document is closed")
	}

	out := d.template
	if d.dirty {
		formJSON, err := json.Marshal(d.form)
		if err != nil {
			return fmt.Errorf("failed to encode form values: %w", err)
		}

		var filled bytes.Buffer
		if err := api.FillForm(bytes.NewReader(d.template), bytes.NewReader(formJSON), &filled,
			newConfiguration()); err != nil {
			return fmt.Errorf("failed to fill form: %w", err)
		}
		out = filled.Bytes()
	}

	if ownerPassword != "" {
		conf := model.NewAESConfiguration("", ownerPassword, AESKeyLength)
		conf.ValidationMode = model.ValidationRelaxed
		// the owner password only guards the security settings; readers keep full access
		conf.Permissions = model.PermissionsAll

		var encrypted bytes.Buffer
		if err := api.Encrypt(bytes.NewReader(out), &encrypted, conf); err != nil {
			return fmt.Errorf("failed to encrypt output: %w", err)
		}
		out = encrypted.Bytes()
	}

	return writeExclusive(path, out)
}

// Close implements filler.Document
func (d *Document) Close() error {
	if d.closed {
		return errors.New("document already closed")
	}
	d.closed = true
	d.template = nil
	return nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, OutputPerm)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

// Widget is one field entry of a pdfcpu form export
type Widget struct {
	doc     *Document
	typ     FieldType
	entry   fieldEntry
	name    string
	page    int
	pending *filler.FieldValue
}

// Name implements filler.Widget
func (w *Widget) Name() string { return w.name }

// Page implements filler.Widget
func (w *Widget) Page() int { return w.page }

// Type returns the widget kind
func (w *Widget) Type() FieldType { return w.typ }

// SetValue implements filler.Widget. The value only takes effect after Update.
// A checked state is only accepted by checkboxes.
func (w *Widget) SetValue(v filler.FieldValue) error {
	if v.IsCheck && w.typ != FieldTypeCheckbox {
		return fmt.Errorf("%w: cannot set a checked state on %s field %q", filler.ErrValueRejected, w.typ, w.name)
	}
	w.pending = &v
	return nil
}

// Update implements filler.Widget. Radio groups reject values that are not one of their
// options; the group keeps its template value.
func (w *Widget) Update() error {
	if w.pending == nil {
		return nil
	}
	v := *w.pending
	w.pending = nil

	switch w.typ {
	case FieldTypeCheckbox:
		if v.IsCheck {
			w.entry["value"] = v.Checked
		} else {
			w.entry["value"] = textChecks(v.Text)
		}
	case FieldTypeRadio:
		if opts := w.entry.strings("options"); len(opts) > 0 && !containsFold(opts, v.Text) {
			return fmt.Errorf("%w: %q is not an option of radio group %q", filler.ErrValueRejected, v.Text, w.name)
		}
		w.entry["value"] = matchOption(w.entry.strings("options"), v.Text)
	case FieldTypeList:
		w.entry["values"] = []any{v.Text}
	default:
		w.entry["value"] = v.Text
	}
	w.doc.dirty = true
	return nil
}

// Info describes the widget
func (w *Widget) Info() FieldInfo {
	info := FieldInfo{
		Name:    w.name,
		ID:      w.entry.str("id"),
		Type:    w.typ,
		Pages:   w.entry.pages(),
		Options: w.entry.strings("options"),
		Locked:  w.entry.boolean("locked"),
		Value:   w.entry["value"],
		Default: w.entry["default"],
	}
	if w.typ == FieldTypeList {
		info.Value = w.entry.strings("values")
	}
	return info
}

// textChecks interprets text written into a checkbox
func textChecks(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "no", "false", "0":
		return false
	default:
		return true
	}
}

func containsFold(options []string, s string) bool {
	for _, o := range options {
		if strings.EqualFold(o, s) {
			return true
		}
	}
	return false
}

// matchOption returns the option spelled as in the template
func matchOption(options []string, s string) string {
	for _, o := range options {
		if strings.EqualFold(o, s) {
			return o
		}
	}
	return s
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
