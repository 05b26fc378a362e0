package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/job-agent/internal/jobs"
)

// Letter formats accepted by output.letters-format.
const (
	FormatTXT  = "txt"
	FormatDOCX = "docx"
)

// Sender is the contact block printed at the top of a DOCX letter.
type Sender struct {
	Name  string
	Email string
	Phone string
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const (
	alignRight     = "right"
	alignJustified = "both"
)

// WriteLettersDOCX saves every non-empty letter as a Word document in dir and
// returns the written paths in posting order. Each document opens with the
// right-aligned sender block, followed by the "Hiring Manager / <company>"
// recipient block and the letter paragraphs, justified.
func WriteLettersDOCX(dir string, sender Sender, postings []*jobs.Posting) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	for _, p := range postings {
		if p == nil || strings.TrimSpace(p.CoverLetter) == "" {
			continue
		}
		data, err := letterDOCX(sender, p)
		if err != nil {
			return written, fmt.Errorf("building letter for %s: %w", p.ID, err)
		}
		path := filepath.Join(dir, letterFileName(p, FormatDOCX))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("writing letter for %s: %w", p.ID, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func letterDOCX(sender Sender, p *jobs.Posting) ([]byte, error) {
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	for _, line := range []string{sender.Name, sender.Email, sender.Phone} {
		if line = strings.TrimSpace(line); line != "" {
			if err := writeParagraph(&body, alignRight, []string{line}); err != nil {
				return nil, err
			}
		}
	}
	if err := writeParagraph(&body, "", nil); err != nil {
		return nil, err
	}

	paragraphs := letterParagraphs(p.CoverLetter)
	recipientAt := 0
	for i, paragraph := range paragraphs {
		if strings.HasPrefix(paragraph[0], "Dear ") {
			recipientAt = i
			break
		}
	}

	for i, paragraph := range paragraphs {
		if i == recipientAt {
			if err := writeRecipient(&body, p.Company); err != nil {
				return nil, err
			}
		}
		if err := writeParagraph(&body, alignJustified, paragraph); err != nil {
			return nil, err
		}
	}
	body.WriteString(`</w:body></w:document>`)

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, part := range []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(relsXML)},
		{"word/document.xml", body.Bytes()},
	} {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeRecipient(buf *bytes.Buffer, company string) error {
	lines := []string{"Hiring Manager"}
	if company = strings.TrimSpace(company); company != "" {
		lines = append(lines, company)
	}
	if err := writeParagraph(buf, "", lines); err != nil {
		return err
	}
	return writeParagraph(buf, "", nil)
}

// letterParagraphs splits the letter on blank lines; each paragraph keeps its
// own lines so signatures stay one per line.
func letterParagraphs(letter string) [][]string {
	var paragraphs [][]string
	for _, block := range strings.Split(strings.ReplaceAll(letter, "\r\n", "\n"), "\n\n") {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			paragraphs = append(paragraphs, lines)
		}
	}
	return paragraphs
}

// writeParagraph emits one w:p; lines inside it are separated by w:br.
func writeParagraph(buf *bytes.Buffer, align string, lines []string) error {
	buf.WriteString(`<w:p>`)
	if align != "" {
		fmt.Fprintf(buf, `<w:pPr><w:jc w:val="%s"/></w:pPr>`, align)
	}
	for i, line := range lines {
		buf.WriteString(`<w:r>`)
		if i > 0 {
			buf.WriteString(`<w:br/>`)
		}
		buf.WriteString(`<w:t xml:space="preserve">`)
		if err := xml.EscapeText(buf, []byte(line)); err != nil {
			return err
		}
		buf.WriteString(`</w:t></w:r>`)
	}
	buf.WriteString(`</w:p>`)
	return nil
}
