package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// epubContainer is META-INF/container.xml, which points at the OPF package file.
type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// epubPackage is the OPF: the manifest lists every resource, the spine gives
// the reading order.
type epubPackage struct {
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// EPUBToText concatenates the plain text of every document-type spine item,
// in spine order, separated by blank lines.
func EPUBToText(filePath string) (string, error) {
	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return "", err
	}
	defer archive.Close()

	files := make(map[string]*zip.File, len(archive.File))
	for _, f := range archive.File {
		files[path.Clean(f.Name)] = f
	}

	var container epubContainer
	if err := decodeZipXML(files, "META-INF/container.xml", &container); err != nil {
		return "", fmt.Errorf("read container: %w", err)
	}
	if len(container.Rootfiles) == 0 {
		return "", fmt.Errorf("epub has no rootfile")
	}
	opfPath := path.Clean(container.Rootfiles[0].FullPath)

	var pkg epubPackage
	if err := decodeZipXML(files, opfPath, &pkg); err != nil {
		return "", fmt.Errorf("read package: %w", err)
	}

	itemsByID := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		if item.MediaType == "application/xhtml+xml" || item.MediaType == "text/html" {
			itemsByID[item.ID] = item.Href
		}
	}

	opfDir := path.Dir(opfPath)
	var textParts []string
	for _, ref := range pkg.Spine {
		href, ok := itemsByID[ref.IDRef]
		if !ok {
			// Non-document spine entry (images, navigation), skip.
			continue
		}
		chapter, ok := files[path.Clean(path.Join(opfDir, href))]
		if !ok {
			continue
		}
		rc, err := chapter.Open()
		if err != nil {
			continue
		}
		text, err := stripMarkup(rc)
		rc.Close()
		if err != nil || text == "" {
			continue
		}
		textParts = append(textParts, text)
	}

	return strings.Join(textParts, "\n\n"), nil
}

func decodeZipXML(files map[string]*zip.File, name string, v interface{}) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("%s not found in archive", name)
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}
