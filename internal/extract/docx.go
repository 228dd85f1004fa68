package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// documentPart is the main body part of a WordprocessingML package.
const documentPart = "word/document.xml"

// maxDocumentPartSize bounds the decompressed size of word/document.xml.
const maxDocumentPartSize = 64 << 20

var errNoDocumentPart = errors.New("docx: word/document.xml not found")

// ExtractDOCX returns the raw paragraph text of a .docx document.
// Paragraphs are separated by a blank line; tabs and breaks inside a
// paragraph are kept as whitespace. All other markup is dropped.
func ExtractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening docx container: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", documentPart, err)
		}
		defer rc.Close()
		return paragraphText(io.LimitReader(rc, maxDocumentPartSize))
	}

	return "", errNoDocumentPart
}

// paragraphText walks the WordprocessingML token stream collecting text runs.
func paragraphText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		out       strings.Builder
		para      strings.Builder
		inText    bool
		paragraph int
	)

	flush := func() {
		if paragraph > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(para.String())
		para.Reset()
		paragraph++
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}

	if para.Len() > 0 {
		flush()
	}

	return out.String(), nil
}
