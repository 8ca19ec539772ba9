package catalog

import (
	"bytes"
	"fmt"
	"os"

	"diner/internal/models"

	"gopkg.in/yaml.v3"
)

type menuFile struct {
	Items []models.MenuEntry `yaml:"items"`
}

// LoadFile reads a YAML menu file. An empty path yields the default catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("menu file %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML menu document
func Parse(data []byte) (*Catalog, error) {
	var doc menuFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	if len(doc.Items) == 0 {
		return nil, fmt.Errorf("menu has no items")
	}
	return New(doc.Items)
}
