package filler

// Opener opens PDF templates as fillable documents
type Opener interface {
	Open(path string) (Document, error)
}

// Document is an opened form. Widgets are listed page by page; a widget that spans
// several pages is listed once, on its first page.
type Document interface {
	Widgets() []Widget
	// Save writes the document to path. A non-empty ownerPassword encrypts the
	// output with AES-256. Save must fail rather than overwrite an existing file.
	Save(path string, ownerPassword string) error
	Close() error
}

// Widget is one named form field of a Document
type Widget interface {
	Name() string
	Page() int
	// SetValue and Update return an error wrapping ErrValueRejected when the value does
	// not fit the widget; any other error fails the record.
	SetValue(v FieldValue) error
	// Update commits the value set through SetValue so that it is rendered on save.
	Update() error
}
