package record

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Truthy(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  bool
	}{
		{"null", Null(), false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero", Int(0), false},
		{"zero float", Number("0.0"), false},
		{"non zero", Number("2.5"), true},
		{"empty string", String(""), false},
		{"default marker", String("N/A"), true},
		{"empty array", Array(), false},
		{"array", Array(String("a")), true},
		{"empty object", Object(nil), false},
		{"object", Object(map[string]Value{"a": Null()}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Truthy())
		})
	}
}

func TestValue_Text(t *testing.T) {
	s, ok := Number("42").Text()
	assert.True(t, ok)
	assert.Equal(t, "42", s)

	s, ok = Bool(true).Text()
	assert.True(t, ok)
	assert.Equal(t, "true", s)

	s, ok = Null().Text()
	assert.True(t, ok)
	assert.Empty(t, s)

	_, ok = Array(String("a")).Text()
	assert.False(t, ok)
	_, ok = Object(nil).Text()
	assert.False(t, ok)
}

func TestValue_JSONRoundTripKeepsNumberLiteral(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"zip": 12345678901234567890, "tags": ["a", true, null]}`), &v))

	zip, ok := v.Field("zip")
	require.True(t, ok)
	n, ok := zip.AsNumber()
	require.True(t, ok)
	assert.Equal(t, "12345678901234567890", n.String())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zip": 12345678901234567890, "tags": ["a", true, null]}`, string(out))
}

func TestFromAny(t *testing.T) {
	v := FromAny(map[string]any{
		"i": 3,
		"f": 1.5,
		"l": []any{"x"},
	})
	i, _ := v.Field("i")
	assert.Equal(t, Int(3), i)
	f, _ := v.Field("f")
	assert.Equal(t, Number("1.5"), f)
	l, _ := v.Field("l")
	assert.Equal(t, Array(String("x")), l)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"a":1}]`), 0o600))

	set, err := LoadFile(good, 0)
	require.NoError(t, err)
	assert.True(t, set.IsBatch())

	_, err = LoadFile(good, 4)
	assert.ErrorContains(t, err, "too large")

	_, err = LoadFile(filepath.Join(dir, "missing.json"), 0)
	assert.Error(t, err)

	_, err = LoadFile(dir, 0)
	assert.ErrorContains(t, err, "directory")
}
