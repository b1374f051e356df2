package filler

import (
	"slices"
	"strings"

	"github.com/a3tai/mcp-pdf-filler/internal/record"
)

// DefaultValue is substituted when a rule's path does not resolve
const DefaultValue = "N/A"

// SexFieldName is the radio group whose options are Male/Female instead of Yes/No
const SexFieldName = "sex"

// addressKeys are composed in this order by FILL_ADDRESS
var addressKeys = []string{"Street1 :", "Street2 :", "City :", "State :", "Zip Code :"}

// FieldValue is what gets written into a widget: text for text fields and radio
// groups, a checked state for checkboxes.
type FieldValue struct {
	Text    string
	Checked bool
	IsCheck bool
}

// TextValue returns a FieldValue carrying text
func TextValue(s string) FieldValue { return FieldValue{Text: s} }

// CheckValue returns a FieldValue carrying a checkbox state
func CheckValue(b bool) FieldValue { return FieldValue{Checked: b, IsCheck: true} }

// String returns a string representation of the FieldValue
func (v FieldValue) String() string {
	if v.IsCheck {
		if v.Checked {
			return "checked"
		}
		return "unchecked"
	}
	return v.Text
}

// Resolve computes the value of one widget from a record. The boolean result is false
// when the widget must be left untouched: the path resolved to something the field type
// cannot represent, or the value is not among the allowed values.
func Resolve(fieldName string, rule FieldRule, rec record.Value) (FieldValue, bool) {
	value := record.Extract(rec, rule.JSONPath, record.String(DefaultValue))

	switch rule.Type {
	case FillField:
		return resolveText(value)
	case FillAddress:
		return resolveAddress(value)
	case Checkbox:
		return resolveCheckbox(value, rule.AllowedValues)
	case RadioButton:
		return resolveRadio(fieldName, value, rule.AllowedValues)
	default:
		return FieldValue{}, false
	}
}

func resolveText(value record.Value) (FieldValue, bool) {
	if !value.Truthy() {
		return FieldValue{}, false
	}
	text, ok := value.Text()
	if !ok {
		return FieldValue{}, false
	}
	return TextValue(text), true
}

// ComposeAddress joins the non-empty address parts of an address object
func ComposeAddress(addr record.Value) (string, bool) {
	if addr.Kind() != record.KindObject {
		return "", false
	}
	parts := make([]string, 0, len(addressKeys))
	for _, key := range addressKeys {
		part, ok := addr.Field(key)
		if !ok || !part.Truthy() {
			continue
		}
		if text, ok := part.Text(); ok {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, ", "), true
}

func resolveAddress(value record.Value) (FieldValue, bool) {
	address, ok := ComposeAddress(value)
	if !ok {
		return FieldValue{}, false
	}
	return TextValue(address), true
}

// Checkbox values match allowed values exactly
func resolveCheckbox(value record.Value, allowed []string) (FieldValue, bool) {
	s, ok := value.AsString()
	if !ok || s == "" || !slices.Contains(allowed, s) {
		return FieldValue{}, false
	}
	return CheckValue(true), true
}

// Radio values match allowed values ignoring case
func resolveRadio(fieldName string, value record.Value, allowed []string) (FieldValue, bool) {
	s, ok := value.AsString()
	if !ok || s == "" {
		return FieldValue{}, false
	}
	upper := strings.ToUpper(s)
	if !slices.ContainsFunc(allowed, func(a string) bool { return strings.ToUpper(a) == upper }) {
		return FieldValue{}, false
	}

	if fieldName == SexFieldName {
		switch upper {
		case "MALE":
			return TextValue("Male"), true
		case "FEMALE":
			return TextValue("Female"), true
		default:
			return FieldValue{}, false
		}
	}

	if upper == "YES" {
		return TextValue("Yes"), true
	}
	return TextValue("No"), true
}
