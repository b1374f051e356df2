package filler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldType tells the mapper how a widget is filled
type FieldType string

const (
	FillField   FieldType = "FILL_FIELD"
	FillAddress FieldType = "FILL_ADDRESS"
	Checkbox    FieldType = "CHECKBOX"
	RadioButton FieldType = "RADIO_BUTTON"
)

// Valid reports whether t is one of the supported field types
func (t FieldType) Valid() bool {
	switch t {
	case FillField, FillAddress, Checkbox, RadioButton:
		return true
	default:
		return false
	}
}

// FieldRule is one lookup table entry
type FieldRule struct {
	JSONPath      string    `json:"json_path" yaml:"json_path"`
	Type          FieldType `json:"type" yaml:"type"`
	AllowedValues []string  `json:"allowed_values,omitempty" yaml:"allowed_values,omitempty"`
}

// LookupTable maps widget names to the rule that fills them
type LookupTable map[string]FieldRule

// Rule returns the rule registered for a widget name
func (t LookupTable) Rule(fieldName string) (FieldRule, bool) {
	r, ok := t[fieldName]
	return r, ok
}

// UnsupportedRules lists widget names whose rule type is not one of the four field types.
// Such widgets are never written.
func (t LookupTable) UnsupportedRules() []string {
	var names []string
	for name, rule := range t {
		if !rule.Type.Valid() {
			names = append(names, name)
		}
	}
	return names
}

// DecodeLookupTable parses a JSON lookup table
func DecodeLookupTable(data []byte) (LookupTable, error) {
	var table LookupTable
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&table); err != nil {
		return nil, fmt.Errorf("invalid lookup table JSON: %w", err)
	}
	if table == nil {
		return nil, fmt.Errorf("lookup table must be a JSON object")
	}
	return table, nil
}

// DecodeLookupTableYAML parses a YAML lookup table
func DecodeLookupTableYAML(data []byte) (LookupTable, error) {
	var table LookupTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("invalid lookup table YAML: %w", err)
	}
	if table == nil {
		return nil, fmt.Errorf("lookup table must be a mapping")
	}
	return table, nil
}

// LoadLookupTable reads a lookup table from disk. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func LoadLookupTable(path string, maxSize int64) (LookupTable, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access lookup table: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("lookup table path is a directory: %s", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("lookup table too large: %d bytes (max: %d bytes)", info.Size(), maxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup table: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeLookupTableYAML(data)
	default:
		return DecodeLookupTable(data)
	}
}
