package notes

import "strings"

// Section is an H1-delimited slice of a note.
type Section struct {
	Heading string
	Body    string
}

// Document is a note ready for persistence and export.
type Document struct {
	Title    string
	Content  string
	Sections []Section
}

// Structure derives the title from the first "# " heading (or fallback) and
// splits the content on H1 headings.
func Structure(content, fallbackTitle string) Document {
	doc := Document{Title: fallbackTitle, Content: content}
	var cur *Section
	var body []string
	flush := func() {
		if cur != nil {
			cur.Body = strings.TrimSpace(strings.Join(body, "\n"))
			doc.Sections = append(doc.Sections, *cur)
		}
		body = nil
	}
	titled := false
	for _, ln := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(ln)
		if strings.HasPrefix(trimmed, "# ") {
			heading := strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			if !titled && heading != "" {
				doc.Title = heading
				titled = true
			}
			flush()
			cur = &Section{Heading: heading}
			continue
		}
		if cur == nil {
			cur = &Section{}
		}
		body = append(body, ln)
	}
	flush()
	// drop an empty preamble
	if len(doc.Sections) > 0 && doc.Sections[0].Heading == "" && doc.Sections[0].Body == "" {
		doc.Sections = doc.Sections[1:]
	}
	return doc
}
