package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Set is the decoded content of a records file: either a batch (JSON array root)
// or one single record (any other root).
type Set struct {
	batch   bool
	records []Value
}

// NewBatch builds a batch Set from records in order
func NewBatch(records ...Value) Set {
	if records == nil {
		records = []Value{}
	}
	return Set{batch: true, records: records}
}

// NewSingle builds a Set holding one record
func NewSingle(r Value) Set {
	return Set{records: []Value{r}}
}

// IsBatch reports whether the root of the file was a sequence
func (s Set) IsBatch() bool { return s.batch }

// Len returns the number of records
func (s Set) Len() int { return len(s.records) }

// Records returns the records in input order
func (s Set) Records() []Value { return s.records }

// Single returns the record of a single-record Set
func (s Set) Single() (Value, bool) {
	if s.batch || len(s.records) != 1 {
		return Value{}, false
	}
	return s.records[0], true
}

// FromValue classifies a decoded root
func FromValue(root Value) Set {
	if root.Kind() == KindArray {
		return NewBatch(root.Items()...)
	}
	return NewSingle(root)
}

// Decode reads a JSON document from r
func Decode(r io.Reader) (Set, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Set{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Set{}, errors.New("invalid JSON: trailing data after document")
	}
	return FromValue(FromAny(raw)), nil
}

// LoadFile reads and decodes a records file, refusing files larger than maxSize bytes
// (maxSize <= 0 disables the limit).
func LoadFile(path string, maxSize int64) (Set, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Set{}, fmt.Errorf("cannot access records file: %w", err)
	}
	if info.IsDir() {
		return Set{}, fmt.Errorf("records path is a directory: %s", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return Set{}, fmt.Errorf("records file too large: %d bytes (max: %d bytes)", info.Size(), maxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("failed to read records file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}
