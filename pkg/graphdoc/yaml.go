package graphdoc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseYAML reads a graph document from YAML with the same tolerance as Parse.
func ParseYAML(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse graph document: %w", err)
	}
	return FromValue(raw), nil
}

// ParseFile reads a graph document, choosing the decoder by extension.
// Anything that is not .yaml or .yml is read as JSON.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data, filepath.Ext(path))
}

// ParseBytes decodes data according to a file extension.
func ParseBytes(data []byte, ext string) (*Document, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}
