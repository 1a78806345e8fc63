package constants

import (
	"strings"
)

// ContentType is the rhetorical genre of the source material. It drives the
// structural strategy used when generating notes.
type ContentType string

const (
	Course   ContentType = "course"
	Training ContentType = "training"
	Podcast  ContentType = "podcast"
	Meeting  ContentType = "meeting"
	Report   ContentType = "report"
	News     ContentType = "news"
	Auto     ContentType = "auto"
)

// DefaultContentType is used whenever classification cannot decide.
const DefaultContentType = Course

var allContentTypes = []ContentType{
	Course,
	Training,
	Podcast,
	Meeting,
	Report,
	News,
}

// ContentTypes returns the resolvable categories (auto excluded).
func ContentTypes() []ContentType {
	out := make([]ContentType, len(allContentTypes))
	copy(out, allContentTypes)
	return out
}

func ContentTypesAsStrings() []string {
	result := make([]string, len(allContentTypes))
	for i, ct := range allContentTypes {
		result[i] = string(ct)
	}
	return result
}

// IsResolved reports whether ct is one of the concrete categories.
func (ct ContentType) IsResolved() bool {
	for _, c := range allContentTypes {
		if c == ct {
			return true
		}
	}
	return false
}

var contentTypeSynonyms = map[string]ContentType{
	"cours":      Course,
	"lecture":    Course,
	"class":      Course,
	"formation":  Training,
	"tutoriel":   Training,
	"tutorial":   Training,
	"workshop":   Training,
	"réunion":    Meeting,
	"reunion":    Meeting,
	"meeting":    Meeting,
	"reportage":  Report,
	"journal":    News,
	"actualité":  News,
	"actualite":  News,
	"interview":  Podcast,
	"émission":   Podcast,
	"emission":   Podcast,
	"conference": Course,
}

// Canonicalize maps a free-form label to a ContentType. "auto" and the empty
// string map to Auto with ok=true so callers can decide to classify.
func Canonicalize(input string) (ContentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" || normalized == string(Auto) {
		return Auto, true
	}

	for _, ct := range allContentTypes {
		if normalized == string(ct) {
			return ct, true
		}
	}
	if ct, ok := contentTypeSynonyms[normalized]; ok {
		return ct, true
	}
	return DefaultContentType, false
}

// MatchContentType scans a model answer for the first category word it
// contains. Answers are rarely a clean single token.
func MatchContentType(answer string) (ContentType, bool) {
	a := strings.ToLower(answer)
	for _, w := range strings.FieldsFunc(a, func(r rune) bool {
		return !(r == 'é' || r == 'è' || r == 'ê' || (r >= 'a' && r <= 'z'))
	}) {
		if ct, ok := Canonicalize(w); ok && ct != Auto {
			return ct, true
		}
	}
	for _, ct := range allContentTypes {
		if strings.Contains(a, string(ct)) {
			return ct, true
		}
	}
	return DefaultContentType, false
}
