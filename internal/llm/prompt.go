package llm

import (
	"strings"

	"github.com/joseph-ayodele/lecture-notes/constants"
)

// RefineSystemPrompt drives the fast clean-up pass over raw STT output.
const RefineSystemPrompt = "You are an expert in academic transcription. " +
	"Fix phonetic recognition errors, improve punctuation and remove repetitions. " +
	"Keep the original language. Reply with the corrected text only."

// ClassifySystemPrompt constrains the classifier to a single category word.
const ClassifySystemPrompt = "You are a fast and precise document classifier. Answer with the category name only, one word."

// STTPrompt biases the speech model toward careful academic language.
const STTPrompt = "This is a serious academic recording."

// BuildClassifyPrompt asks for one category for the given transcript sample.
func BuildClassifyPrompt(sample string) string {
	var b strings.Builder
	b.WriteString("Read this text and answer with exactly one word among: ")
	b.WriteString(strings.Join(constants.ContentTypesAsStrings(), ", "))
	b.WriteString(".\n\nTEXT:\n")
	b.WriteString(sample)
	b.WriteString("\n")
	return b.String()
}

// FormatStrategy is the structural strategy the notes must follow for ct.
func FormatStrategy(ct constants.ContentType) string {
	switch ct {
	case constants.Training:
		return "PRACTICAL format: methodical steps, handling guides, safety points and checklists."
	case constants.Podcast:
		return "SYNTHESIS format: major ideas, key quotes or verbatim, organized by theme."
	case constants.Meeting:
		return "MINUTES format: agenda, decisions, blocking points and a to-do list."
	case constants.Report:
		return "NARRATIVE format: chronology of facts, key testimonies and context analysis."
	case constants.News:
		return "NEWS format: salient facts, key dates and a rigorous synthesis."
	case constants.Course, constants.Auto:
		return "TEACHING format: objectives, theoretical definitions, conceptual diagrams and a summary."
	}
	return FormatStrategy(constants.DefaultContentType)
}

// BuildNotesSystemPrompt assembles the generation instruction for ct. marker is
// the placeholder token the model must drop where an illustration belongs.
func BuildNotesSystemPrompt(ct constants.ContentType, marker string) string {
	tag := " " + marker + " "
	var b strings.Builder
	b.WriteString("### ROLE AND MISSION\n")
	b.WriteString("You are a multi-domain expert specialized in high-level educational synthesis. ")
	b.WriteString("Turn a raw transcript into a reference-quality document. ")
	b.WriteString("Identify the field (mechanics, IT, law, etc.) and write as a senior expert of that field.\n\n")

	b.WriteString("### WRITING STRATEGY: " + strings.ToUpper(string(ct)) + "\n")
	b.WriteString("Strictly follow this style: " + FormatStrategy(ct) + "\n\n")

	b.WriteString("### VIDEO AND VISUAL INSTRUCTIONS\n")
	b.WriteString("1. VISUAL CONTEXT: you may receive text read from screenshots. Use it to enrich explanations and prefer the exact technical term it shows.\n")
	b.WriteString("2. IMAGE INSERTION: when a concept, component or moment is crucial, insert the unique tag `" + tag + "`.\n")
	b.WriteString("3. CAPTION: right after the tag, add a short caption in parentheses.\n")
	b.WriteString("4. PLACEMENT: the tag stands alone on its line, after the paragraph it illustrates.\n")
	b.WriteString("5. NO VISUALS: even when visual context is weak or absent, still insert the tag where a technical diagram would help the reader.\n\n")

	b.WriteString("### STRUCTURE AND QUALITY\n")
	b.WriteString("1. HIERARCHY: Markdown only. H1 for the title, H2 for modules, H3 for sections.\n")
	b.WriteString("2. TECHNICAL RIGOR: correct the speaker's mistakes and restore technical truth.\n")
	b.WriteString("3. FORMATTING: **bold** for key terms and bullet lists.\n")
	b.WriteString("4. SAFETY: put critical points in emphasis blocks: > ⚠️ **IMPORTANT**.\n")
	b.WriteString("5. TONE: professional and didactic, without filler words. Turn speech into fluent structured prose.\n")
	b.WriteString("6. REWRITE, do not merely summarize. Write in the language of the transcript.\n")
	b.WriteString("7. NUMBERS: keep every figure, price, date, distance and measurement exactly.\n")
	b.WriteString("8. ILLUSTRATIONS: insert the tag `" + tag + "` between 3 and 5 times in the document.\n")
	return b.String()
}

// Template names.
const (
	TemplateCourse        = "course"
	TemplateNoteStructure = "note_structure"
)

// TemplateFor picks the user-prompt template for ct.
func TemplateFor(ct constants.ContentType) string {
	switch ct {
	case constants.Course, constants.Training:
		return TemplateCourse
	default:
		return TemplateNoteStructure
	}
}

// BuildNotesPrompt renders the user prompt carrying transcript and visual context.
func BuildNotesPrompt(ct constants.ContentType, transcript, visual string) string {
	var b strings.Builder
	switch TemplateFor(ct) {
	case TemplateCourse:
		b.WriteString("You are a teaching professor. From the transcript, produce a complete course in Markdown:\n")
		b.WriteString("- outline\n- definitions\n- explanations\n- examples\n- summary\n\n")
	default:
		b.WriteString("You are an excellent student. Turn the following transcript into structured Markdown notes. ")
		b.WriteString("Keep the essentials, rephrase and organize.\n\n")
	}
	b.WriteString("VISUAL CONTEXT (if any):\n")
	b.WriteString(visual)
	b.WriteString("\n\nTRANSCRIPT:\n")
	b.WriteString(transcript)
	b.WriteString("\n")
	return b.String()
}
