package filler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-filler/internal/record"
)

func decodeRecord(t *testing.T, doc string) record.Value {
	t.Helper()
	var v record.Value
	require.NoError(t, v.UnmarshalJSON([]byte(doc)))
	return v
}

func TestResolve_FillField(t *testing.T) {
	rec := decodeRecord(t, `{
		"Name": {"First Name :": "Jo", "Middle :": "", "Nick :": null},
		"Age :": 42,
		"Kids :": 0,
		"Tags": ["a"]
	}`)

	tests := []struct {
		name      string
		path      string
		wantWrite bool
		wantText  string
	}{
		{name: "string", path: "Name -> First Name :", wantWrite: true, wantText: "Jo"},
		{name: "number", path: "Age :", wantWrite: true, wantText: "42"},
		{name: "missing path writes default", path: "Name -> Last Name :", wantWrite: true, wantText: "N/A"},
		{name: "empty string", path: "Name -> Middle :", wantWrite: false},
		{name: "null", path: "Name -> Nick :", wantWrite: false},
		{name: "zero", path: "Kids :", wantWrite: false},
		{name: "array", path: "Tags", wantWrite: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Resolve("field", FieldRule{JSONPath: tt.path, Type: FillField}, rec)
			assert.Equal(t, tt.wantWrite, ok)
			if tt.wantWrite {
				assert.Equal(t, TextValue(tt.wantText), v)
			}
		})
	}
}

func TestResolve_FillAddress(t *testing.T) {
	rec := decodeRecord(t, `{
		"Home": {"Street1 :": "1 Main St", "City :": "Springfield"},
		"Full": {"Street1 :": "1 Main St", "Street2 :": "Apt 4", "City :": "Springfield",
		         "State :": "IL", "Zip Code :": "62701", "Country :": "US"},
		"Blank": {"Street1 :": "", "City :": null},
		"Flat": "1 Main St"
	}`)

	tests := []struct {
		name      string
		path      string
		wantWrite bool
		wantText  string
	}{
		{name: "partial", path: "Home", wantWrite: true, wantText: "1 Main St, Springfield"},
		{name: "full ordered", path: "Full", wantWrite: true, wantText: "1 Main St, Apt 4, Springfield, IL, 62701"},
		{name: "all blank", path: "Blank", wantWrite: true, wantText: ""},
		{name: "not a mapping", path: "Flat", wantWrite: false},
		{name: "missing resolves to default string", path: "Work", wantWrite: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Resolve("address", FieldRule{JSONPath: tt.path, Type: FillAddress}, rec)
			assert.Equal(t, tt.wantWrite, ok)
			if tt.wantWrite {
				assert.Equal(t, tt.wantText, v.Text)
			}
		})
	}
}

func TestResolve_Checkbox(t *testing.T) {
	rec := decodeRecord(t, `{"Smoker": "Yes", "Lower": "yes", "Flag": true, "Empty": ""}`)
	allowed := []string{"Yes"}

	tests := []struct {
		name      string
		path      string
		wantWrite bool
	}{
		{name: "exact match", path: "Smoker", wantWrite: true},
		{name: "case differs", path: "Lower", wantWrite: false},
		{name: "non string", path: "Flag", wantWrite: false},
		{name: "empty", path: "Empty", wantWrite: false},
		{name: "missing", path: "Nope", wantWrite: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Resolve("smoker", FieldRule{JSONPath: tt.path, Type: Checkbox, AllowedValues: allowed}, rec)
			assert.Equal(t, tt.wantWrite, ok)
			if tt.wantWrite {
				assert.Equal(t, CheckValue(true), v)
			}
		})
	}
}

func TestResolve_RadioButton(t *testing.T) {
	rec := decodeRecord(t, `{"Sex": "female", "SexUpper": "MALE", "Other": "Other",
		"Married": "yes", "Veteran": "No", "Maybe": "maybe", "Num": 1}`)

	tests := []struct {
		name      string
		field     string
		path      string
		allowed   []string
		wantWrite bool
		wantText  string
	}{
		{name: "sex female lower", field: "sex", path: "Sex", allowed: []string{"MALE", "FEMALE"}, wantWrite: true, wantText: "Female"},
		{name: "sex male upper", field: "sex", path: "SexUpper", allowed: []string{"MALE", "FEMALE"}, wantWrite: true, wantText: "Male"},
		{name: "sex allowed mixed case", field: "sex", path: "Sex", allowed: []string{"Male", "Female"}, wantWrite: true, wantText: "Female"},
		{name: "sex other allowed value", field: "sex", path: "Other", allowed: []string{"MALE", "FEMALE", "OTHER"}, wantWrite: false},
		{name: "sex not allowed", field: "sex", path: "Other", allowed: []string{"MALE", "FEMALE"}, wantWrite: false},
		{name: "yes", field: "married", path: "Married", allowed: []string{"YES", "NO"}, wantWrite: true, wantText: "Yes"},
		{name: "no", field: "veteran", path: "Veteran", allowed: []string{"YES", "NO"}, wantWrite: true, wantText: "No"},
		{name: "allowed non yes maps to no", field: "maybe", path: "Maybe", allowed: []string{"YES", "MAYBE"}, wantWrite: true, wantText: "No"},
		{name: "not allowed", field: "maybe", path: "Maybe", allowed: []string{"YES", "NO"}, wantWrite: false},
		{name: "non string", field: "num", path: "Num", allowed: []string{"1"}, wantWrite: false},
		{name: "missing default not allowed", field: "x", path: "Nope", allowed: []string{"YES"}, wantWrite: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Resolve(tt.field, FieldRule{JSONPath: tt.path, Type: RadioButton, AllowedValues: tt.allowed}, rec)
			assert.Equal(t, tt.wantWrite, ok)
			if tt.wantWrite {
				assert.Equal(t, TextValue(tt.wantText), v)
			}
		})
	}
}

func TestResolve_UnknownType(t *testing.T) {
	rec := decodeRecord(t, `{"A": "x"}`)
	_, ok := Resolve("a", FieldRule{JSONPath: "A", Type: "SIGNATURE"}, rec)
	assert.False(t, ok)
}

func TestComposeAddress_NumbersRendered(t *testing.T) {
	addr := decodeRecord(t, `{"City :": "Springfield", "Zip Code :": 62701}`)
	s, ok := ComposeAddress(addr)
	require.True(t, ok)
	assert.Equal(t, "Springfield, 62701", s)
}
