package extract

import (
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText strips all markup from a saved web page: text nodes joined by
// single spaces, whitespace collapsed, script/style contents dropped.
func HTMLToText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return stripMarkup(f)
}

// stripMarkup tokenizes HTML/XHTML and keeps only visible text.
func stripMarkup(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var parts []string
	skipDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return strings.Join(parts, " "), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			if name, _ := z.TagName(); isInvisibleTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isInvisibleTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if fields := strings.Fields(string(z.Text())); len(fields) > 0 {
				parts = append(parts, strings.Join(fields, " "))
			}
		}
	}
}

func isInvisibleTag(name string) bool {
	return name == "script" || name == "style"
}
