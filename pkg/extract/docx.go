package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// DOCXToText concatenates paragraph texts in document order, one per line.
// A .docx is a zip archive; the body lives in word/document.xml as WordprocessingML
// (<w:p> paragraphs containing <w:t> text runs).
func DOCXToText(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer archive.Close()

	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			rc, err := file.Open()
			if err != nil {
				return "", err
			}
			defer rc.Close()

			decoder := xml.NewDecoder(rc)
			var (
				lines     []string
				paragraph strings.Builder
				inRunText bool
			)
			for {
				tok, err := decoder.Token()
				if tok == nil {
					break
				}
				if err != nil {
					return "", err
				}
				switch el := tok.(type) {
				case xml.StartElement:
					if el.Name.Local == "t" {
						inRunText = true
					}
				case xml.CharData:
					if inRunText {
						paragraph.Write(el)
					}
				case xml.EndElement:
					switch el.Name.Local {
					case "t":
						inRunText = false
					case "p":
						lines = append(lines, paragraph.String())
						paragraph.Reset()
					}
				}
			}
			return strings.Join(lines, "\n"), nil
		}
	}
	return "", fmt.Errorf("word/document.xml not found in %s", path)
}
