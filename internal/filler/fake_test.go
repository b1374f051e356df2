package filler

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// fakeOpener hands out in-memory documents whose widgets are named by fields.
type fakeOpener struct {
	fields  []string
	openErr error
	saveErr error
	panicOn string
	rejects map[string]bool // widgets whose SetValue refuses every value

	opened []string
	saved  []fakeSave
}

type fakeSave struct {
	path     string
	password string
	values   map[string]FieldValue
}

func (o *fakeOpener) Open(path string) (Document, error) {
	o.opened = append(o.opened, path)
	if o.openErr != nil {
		return nil, o.openErr
	}
	doc := &fakeDocument{opener: o, values: map[string]FieldValue{}}
	for i, name := range o.fields {
		doc.widgets = append(doc.widgets, &fakeWidget{doc: doc, name: name, page: i/2 + 1})
	}
	return doc, nil
}

func (o *fakeOpener) lastSave() fakeSave {
	if len(o.saved) == 0 {
		return fakeSave{}
	}
	return o.saved[len(o.saved)-1]
}

type fakeDocument struct {
	opener  *fakeOpener
	widgets []*fakeWidget
	values  map[string]FieldValue
	closed  bool
}

func (d *fakeDocument) Widgets() []Widget {
	out := make([]Widget, len(d.widgets))
	for i, w := range d.widgets {
		out[i] = w
	}
	return out
}

func (d *fakeDocument) Save(path, password string) error {
	if d.opener.saveErr != nil {
		return d.opener.saveErr
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, d.values[k])
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return err
	}

	d.opener.saved = append(d.opener.saved, fakeSave{path: path, password: password, values: d.values})
	return nil
}

func (d *fakeDocument) Close() error {
	if d.closed {
		return errors.New("closed twice")
	}
	d.closed = true
	return nil
}

type fakeWidget struct {
	doc     *fakeDocument
	name    string
	page    int
	pending *FieldValue
}

func (w *fakeWidget) Name() string { return w.name }
func (w *fakeWidget) Page() int    { return w.page }

func (w *fakeWidget) SetValue(v FieldValue) error {
	if w.doc.opener.panicOn == w.name {
		panic("backend exploded")
	}
	if w.doc.opener.rejects[w.name] {
		return fmt.Errorf("%w: %s", ErrValueRejected, w.name)
	}
	w.pending = &v
	return nil
}

func (w *fakeWidget) Update() error {
	if w.pending == nil {
		return errors.New("update without value")
	}
	w.doc.values[w.name] = *w.pending
	return nil
}

// recordingProgress remembers every call
type recordingProgress struct {
	maximum int
	value   int
	pumps   int
}

func (p *recordingProgress) SetMaximum(n int) { p.maximum = n }
func (p *recordingProgress) Increment()       { p.value++ }
func (p *recordingProgress) Pump()            { p.pumps++ }
