package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

func pdfText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf")
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		if reader, err := r.GetPlainText(); err == nil {
			if out, err := io.ReadAll(reader); err == nil && len(bytes.TrimSpace(out)) > 0 {
				return string(out), nil
			}
		}
	}

	// Scanned or oddly encoded files: keep whatever printable text there is.
	printable := printableText(data)
	if strings.TrimSpace(printable) == "" {
		return "", errors.New("no extractable text in pdf")
	}
	return printable, nil
}

func docxText(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var body *zip.File
	for _, f := range r.File {
		if strings.EqualFold(f.Name, "word/document.xml") {
			body = f
			break
		}
	}
	if body == nil {
		return "", errors.New("word/document.xml is missing")
	}

	rc, err := body.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	return docxXMLText(rc), nil
}

// docxXMLText emits one line per paragraph or table row.
func docxXMLText(r io.Reader) string {
	dec := xml.NewDecoder(r)
	var buf strings.Builder
	lastNewline := true

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err == nil {
					buf.WriteString(text)
					lastNewline = false
				}
			case "tab":
				buf.WriteByte('\t')
				lastNewline = false
			case "br", "cr":
				buf.WriteByte('\n')
				lastNewline = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "tr":
				if !lastNewline {
					buf.WriteByte('\n')
					lastNewline = true
				}
			case "tc":
				buf.WriteByte('\t')
			}
		}
	}
	return buf.String()
}

func printableText(in []byte) string {
	var out strings.Builder
	for len(in) > 0 {
		r, size := utf8.DecodeRune(in)
		in = in[size:]
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if r == '\n' || r == '\t' || r >= 32 && r != 127 {
			out.WriteRune(r)
		}
	}
	return out.String()
}
