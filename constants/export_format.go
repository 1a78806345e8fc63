package constants

import "strings"

// ExportFormat is a rendered document format for a note.
type ExportFormat string

const (
	PDF  ExportFormat = "pdf"
	DOCX ExportFormat = "docx"
	TXT  ExportFormat = "txt"
)

// DefaultExportFormats is the full set, in render order.
var DefaultExportFormats = []ExportFormat{PDF, DOCX, TXT}

func ParseExportFormat(s string) (ExportFormat, bool) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case PDF:
		return PDF, true
	case DOCX:
		return DOCX, true
	case TXT:
		return TXT, true
	}
	return "", false
}

// NormalizeExportFormats drops unknown and duplicate entries. An empty result
// falls back to the full default set; the bool reports whether that happened.
func NormalizeExportFormats(requested []string) ([]ExportFormat, bool) {
	seen := make(map[ExportFormat]struct{}, len(requested))
	var out []ExportFormat
	for _, r := range requested {
		f, ok := ParseExportFormat(r)
		if !ok {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	if len(out) == 0 {
		return append([]ExportFormat(nil), DefaultExportFormats...), true
	}
	return out, false
}

func ExportFormatsAsStrings(fs []ExportFormat) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}
