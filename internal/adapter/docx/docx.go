package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docreview/internal/domain"
)

// Thin .docx I/O: extract paragraph text for review and write a reviewed
// copy with annotation paragraphs inserted after flagged paragraphs.
// Formatting of the original runs is not preserved; the reviewed copy is
// a plain-text rendition with highlighted review notes.

// Read returns the full text and the individual paragraph strings of a
// .docx file.
func Read(path string) (string, []string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()

	var docXML io.ReadCloser
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", nil, fmt.Errorf("failed to read document body: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", nil, fmt.Errorf("%s has no word/document.xml", path)
	}
	defer docXML.Close()

	paragraphs, err := extractParagraphs(docXML)
	if err != nil {
		return "", nil, err
	}
	return strings.Join(paragraphs, "\n"), paragraphs, nil
}

func extractParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var paragraphs []string
	var current strings.Builder
	inParagraph := false
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed document body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inText = inParagraph
			case "tab":
				if inParagraph {
					current.WriteString("\t")
				}
			case "br":
				if inParagraph {
					current.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inParagraph {
					paragraphs = append(paragraphs, current.String())
					inParagraph = false
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}

// WriteReviewed writes a reviewed copy of the document at originalPath to
// outputPath, inserting annotation paragraphs after each flagged
// paragraph.
func WriteReviewed(originalPath string, annotations []domain.Annotation, outputPath string) error {
	_, paragraphs, err := Read(originalPath)
	if err != nil {
		return err
	}

	byParagraph := make(map[int][]domain.Annotation)
	for _, a := range annotations {
		byParagraph[a.ParagraphIndex] = append(byParagraph[a.ParagraphIndex], a)
	}

	var body bytes.Buffer
	for i, text := range paragraphs {
		writeParagraph(&body, text, runProps{})
		for _, a := range byParagraph[i] {
			writeAnnotation(&body, a)
		}
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return writeDocx(outputPath, body.Bytes())
}

type runProps struct {
	italic    bool
	highlight bool
	halfPoint int // font size in half-points, 0 for default
}

func writeParagraph(buf *bytes.Buffer, text string, props runProps) {
	buf.WriteString("<w:p>")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			buf.WriteString("<w:r><w:br/></w:r>")
		}
		buf.WriteString("<w:r>")
		if props.italic || props.highlight || props.halfPoint > 0 {
			buf.WriteString("<w:rPr>")
			if props.italic {
				buf.WriteString("<w:i/>")
			}
			if props.highlight {
				buf.WriteString(`<w:highlight w:val="yellow"/>`)
			}
			if props.halfPoint > 0 {
				fmt.Fprintf(buf, `<w:sz w:val="%d"/>`, props.halfPoint)
			}
			buf.WriteString("</w:rPr>")
		}
		buf.WriteString(`<w:t xml:space="preserve">`)
		xml.EscapeText(buf, []byte(line))
		buf.WriteString("</w:t></w:r>")
	}
	buf.WriteString("</w:p>")
}

func writeAnnotation(buf *bytes.Buffer, a domain.Annotation) {
	note := fmt.Sprintf("[REVIEW NOTE - %s] %s", a.Severity, a.Comment)
	writeParagraph(buf, note, runProps{italic: true, highlight: true, halfPoint: 20})

	if a.Suggestion != "" {
		writeParagraph(buf, "Suggestion: "+a.Suggestion, runProps{halfPoint: 20})
	}
	if a.Citation != "" {
		writeParagraph(buf, "Citation / Source excerpt:\n"+a.Citation, runProps{halfPoint: 18})
	}
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentFooter = `</w:body></w:document>`

func writeDocx(path string, body []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(relsXML)},
		{"word/document.xml", append(append([]byte(documentHeader), body...), []byte(documentFooter)...)},
	}

	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			zw.Close()
			return fmt.Errorf("failed to write %s: %w", part.name, err)
		}
		if _, err := w.Write(part.content); err != nil {
			zw.Close()
			return fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return nil
}
