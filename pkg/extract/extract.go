// Package extract turns heterogeneous document files into plain text.
//
// Every extractor is a pure function from a file path to text. Extraction
// failure is a normal, expected outcome (malformed files, unsupported
// internal structure); the registry logs the failure with the file path and
// returns the error for the caller to degrade gracefully on.
package extract

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"ai-studybot-be/internal/pkg/logger"
)

// Extractor converts one document format into plain text.
type Extractor func(path string) (string, error)

// Registry dispatches on file extension to the right extractor.
type Registry struct {
	extractors map[string]Extractor
	logger     logger.ILogger
}

// NewRegistry builds a registry with all supported formats registered.
func NewRegistry(log logger.ILogger) *Registry {
	return &Registry{
		extractors: map[string]Extractor{
			".pdf":  PDFToText,
			".epub": EPUBToText,
			".txt":  TXTToText,
			".html": HTMLToText,
			".docx": DOCXToText,
		},
		logger: log,
	}
}

// Supports reports whether the file's extension has a registered extractor.
func (r *Registry) Supports(filename string) bool {
	_, ok := r.extractors[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Extensions returns the supported extensions, sorted, dot included.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract dispatches on the lowercase extension of path. A failure of any
// kind is logged here, once, with the file path.
func (r *Registry) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := r.extractors[ext]
	if !ok {
		err := fmt.Errorf("unsupported document format %q", ext)
		r.logger.Warn("extract", "Unsupported document format", map[string]interface{}{
			"path": path,
		})
		return "", err
	}

	text, err := extractor(path)
	if err != nil {
		r.logger.Error("extract", "Failed to extract document text", map[string]interface{}{
			"path":   path,
			"format": ext,
			"error":  err.Error(),
		})
		return "", err
	}
	return text, nil
}
