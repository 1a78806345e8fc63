package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/lecture-notes/constants"
)

const (
	emuPerInch    = 914400
	emuPerPixel   = emuPerInch / 96
	docxImageWide = 5 * emuPerInch
)

var reXMLInvalid = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// DOCXRenderer writes a minimal WordprocessingML package: one document part,
// a style sheet and embedded media.
type DOCXRenderer struct {
	OnImageError func(path string, err error)
}

func NewDOCXRenderer() *DOCXRenderer { return &DOCXRenderer{} }

func (r *DOCXRenderer) Format() constants.ExportFormat { return constants.DOCX }

type docxMedia struct {
	id   string
	name string
	data []byte
}

func (r *DOCXRenderer) Render(doc Document, w io.Writer) error {
	title := cleanXMLText(doc.Title)
	if strings.TrimSpace(title) == "" {
		title = "Notes"
	}

	var body strings.Builder
	var media []docxMedia
	body.WriteString(paragraph("Title", "center", title, false))
	for _, b := range Parse(doc.Content) {
		switch b.Kind {
		case BlockBlank:
			continue
		case BlockHeading:
			body.WriteString(paragraph(fmt.Sprintf("Heading%d", b.Level), "", cleanXMLText(b.Text), false))
		case BlockBullet:
			body.WriteString(paragraph("ListBullet", "", "• "+cleanXMLText(b.Text), false))
		case BlockNumbered:
			body.WriteString(paragraph("ListNumber", "", fmt.Sprintf("%d. %s", b.Number, cleanXMLText(b.Text)), false))
		case BlockAlert:
			body.WriteString(paragraph("Quote", "", cleanXMLText(b.Text), true))
		case BlockImage:
			m, drawing, err := embedImage(b.Path, len(media)+1)
			if err != nil {
				if r.OnImageError != nil {
					r.OnImageError(b.Path, err)
				}
				continue
			}
			media = append(media, m)
			body.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r>` + drawing + `</w:r></w:p>`)
			if b.Alt != "" {
				body.WriteString(paragraph("Caption", "center", cleanXMLText(b.Alt), false))
			}
		default:
			body.WriteString(paragraph("", "", cleanXMLText(b.Text), false))
		}
	}

	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		data string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/_rels/document.xml.rels", documentRels(media)},
		{"word/document.xml", documentXMLHead + body.String() + documentXMLTail},
	}
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("docx part %s: %w", p.name, err)
		}
		if _, err := io.WriteString(fw, p.data); err != nil {
			return fmt.Errorf("docx part %s: %w", p.name, err)
		}
	}
	for _, m := range media {
		fw, err := zw.Create("word/media/" + m.name)
		if err != nil {
			return fmt.Errorf("docx media %s: %w", m.name, err)
		}
		if _, err := fw.Write(m.data); err != nil {
			return fmt.Errorf("docx media %s: %w", m.name, err)
		}
	}
	return zw.Close()
}

// cleanXMLText removes control characters the XML container rejects.
func cleanXMLText(s string) string {
	return reXMLInvalid.ReplaceAllString(s, "")
}

func escapeXML(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func paragraph(style, align, text string, emphasis bool) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	if style != "" || align != "" {
		b.WriteString("<w:pPr>")
		if style != "" {
			b.WriteString(`<w:pStyle w:val="` + style + `"/>`)
		}
		if align != "" {
			b.WriteString(`<w:jc w:val="` + align + `"/>`)
		}
		b.WriteString("</w:pPr>")
	}
	b.WriteString("<w:r>")
	if emphasis {
		b.WriteString(`<w:rPr><w:b/><w:color w:val="C80000"/></w:rPr>`)
	}
	b.WriteString(`<w:t xml:space="preserve">` + escapeXML(text) + "</w:t></w:r></w:p>")
	return b.String()
}

func embedImage(path string, n int) (docxMedia, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return docxMedia{}, "", err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return docxMedia{}, "", fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return docxMedia{}, "", fmt.Errorf("empty image")
	}
	ext := ".png"
	if format == "jpeg" {
		ext = ".jpeg"
	}
	m := docxMedia{
		id:   fmt.Sprintf("rIdImg%d", n),
		name: fmt.Sprintf("image%d%s", n, ext),
		data: data,
	}
	// natural size at 96 dpi, capped at the text width
	cx := min(int64(docxImageWide), int64(cfg.Width)*emuPerPixel)
	cy := cx * int64(cfg.Height) / int64(cfg.Width)
	name := escapeXML(filepath.Base(path))
	drawing := fmt.Sprintf(`<w:drawing><wp:inline><wp:extent cx="%d" cy="%d"/><wp:docPr id="%d" name="%s"/>`+
		`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`+
		`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing>`,
		cx, cy, n, name, n, name, m.id, cx, cy)
	return m, drawing, nil
}

func documentRels(media []docxMedia) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rIdStyles" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`)
	for _, m := range media {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/%s"/>`, m.id, m.name)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Default Extension="jpeg" ContentType="image/jpeg"/>` +
	`<Default Extension="png" ContentType="image/png"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentXMLHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
	` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
	` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"><w:body>`

const documentXMLTail = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
	`<w:pgMar w:top="1000" w:right="1000" w:bottom="1000" w:left="1000" w:header="708" w:footer="708" w:gutter="0"/>` +
	`</w:sectPr></w:body></w:document>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:cs="Calibri"/><w:sz w:val="22"/></w:rPr></w:rPrDefault></w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:pPr><w:spacing w:after="120"/></w:pPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:after="300"/></w:pPr><w:rPr><w:b/><w:color w:val="2C3E50"/><w:sz w:val="48"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="240"/><w:outlineLvl w:val="0"/></w:pPr><w:rPr><w:b/><w:sz w:val="36"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="200"/><w:outlineLvl w:val="1"/></w:pPr><w:rPr><w:b/><w:sz w:val="30"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading3"><w:name w:val="heading 3"/><w:basedOn w:val="Normal"/><w:pPr><w:keepNext/><w:outlineLvl w:val="2"/></w:pPr><w:rPr><w:b/><w:sz w:val="26"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/><w:pPr><w:ind w:left="360"/></w:pPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="ListNumber"><w:name w:val="List Number"/><w:basedOn w:val="Normal"/><w:pPr><w:ind w:left="360"/></w:pPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Quote"><w:name w:val="Quote"/><w:basedOn w:val="Normal"/><w:pPr><w:ind w:left="720"/><w:shd w:val="clear" w:color="auto" w:fill="F2F4F4"/></w:pPr><w:rPr><w:i/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Caption"><w:name w:val="caption"/><w:basedOn w:val="Normal"/><w:rPr><w:i/><w:sz w:val="18"/></w:rPr></w:style>` +
	`</w:styles>`
