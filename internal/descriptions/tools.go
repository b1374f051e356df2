package descriptions

import "sort"

const (
	PDFFillFormsDescription = `Fill the interactive form fields of a PDF template from JSON person records.

**When to use:** Produce one filled PDF per person from a JSON array of records, or a single PDF from one JSON object.

**How it works:** A lookup table maps each form field name to a path into the record ("PERSONAL INFORMATION -> Name -> First Name :") and a fill type: FILL_FIELD, FILL_ADDRESS, CHECKBOX or RADIO_BUTTON.

**Output naming:**
• Batch: output_{First}_{Last}_{n}.pdf, n being the 1-based position in the records file
• Single record: output_single_user.pdf

**Skip rules:** an output that already exists is never overwritten, and a second record with the same first and last name is skipped within one run.

**Options:** password encrypts every output with AES-256 (owner password); report writes an .xlsx summary of the run.`

	PDFTemplateFieldsDescription = `List the form fields of a PDF template with their type, pages, options and current value.

**When to use:** Writing or checking a lookup table. Field names listed here are the keys the lookup table must use.

**Examples:**
• "Which fields does application.pdf have?"
• "What are the options of the sex radio group in form.pdf?"`

	PDFValidateTemplateDescription = `Check that a file is a readable PDF within the configured size limit and report its page count.

**When to use:** Before filling, to rule out a wrong path, a non-PDF file or a corrupted template.`

	PDFServerInfoDescription = `Get server information: name, version, base directory, size limit and the available tools with their parameters.

**When to use:** First call in a session, or when unsure which tool to use.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_fill_forms":        PDFFillFormsDescription,
	"pdf_template_fields":   PDFTemplateFieldsDescription,
	"pdf_validate_template": PDFValidateTemplateDescription,
	"pdf_server_info":       PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
