package form

// FieldType represents the widget kinds pdfcpu exports
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeDate     FieldType = "date"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCombo    FieldType = "combobox"
	FieldTypeList     FieldType = "listbox"
)

// groupTypes maps the keys of a pdfcpu form export to field types, in the order
// pdfcpu writes them.
var groupTypes = []struct {
	key string
	typ FieldType
}{
	{"textfield", FieldTypeText},
	{"datefield", FieldTypeDate},
	{"checkbox", FieldTypeCheckbox},
	{"radiobuttongroup", FieldTypeRadio},
	{"combobox", FieldTypeCombo},
	{"listbox", FieldTypeList},
}

// FieldInfo describes one form field of a template
type FieldInfo struct {
	Name    string    `json:"name"`
	ID      string    `json:"id,omitempty"`
	Type    FieldType `json:"type"`
	Pages   []int     `json:"pages,omitempty"`
	Value   any       `json:"value,omitempty"`
	Default any       `json:"default,omitempty"`
	Options []string  `json:"options,omitempty"`
	Locked  bool      `json:"locked,omitempty"`
}

// exportedForm mirrors the JSON written by pdfcpu's form export. Field entries are kept
// as generic maps so that attributes this package does not touch survive the round trip
// back into FillForm.
type exportedForm struct {
	Header map[string]any            `json:"header"`
	Forms  []map[string][]fieldEntry `json:"forms"`
}

type fieldEntry map[string]any

func (e fieldEntry) str(key string) string {
	switch v := e[key].(type) {
	case string:
		return v
	case float64:
		return formatNumber(v)
	default:
		return ""
	}
}

func (e fieldEntry) boolean(key string) bool {
	b, _ := e[key].(bool)
	return b
}

func (e fieldEntry) strings(key string) []string {
	raw, _ := e[key].([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (e fieldEntry) pages() []int {
	raw, _ := e["pages"].([]any)
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		if f, ok := item.(float64); ok {
			out = append(out, int(f))
		}
	}
	return out
}
