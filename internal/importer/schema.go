// Package importer reads and writes catalog seed files: YAML documents
// holding nested node specs.
package importer

import (
	"fmt"
	"io"
	"os"

	"github.com/alexanderramin/crawl/internal/schedule"
	"gopkg.in/yaml.v3"
)

// Document is the top-level structure of a catalog YAML file.
type Document struct {
	Nodes []NodeSpec `yaml:"nodes"`
}

// NodeSpec is one node with its children. Active defaults to true.
type NodeSpec struct {
	Type     string         `yaml:"type"`
	Name     string         `yaml:"name"`
	Active   *bool          `yaml:"active,omitempty"`
	Schedule *schedule.Wire `yaml:"schedule,omitempty"`
	Children []NodeSpec     `yaml:"children,omitempty"`
}

// LoadDocument reads and parses a catalog YAML file.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a catalog document. Unknown keys are rejected.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &doc, nil
		}
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}
	return &doc, nil
}

// Encode writes doc as YAML with two-space indentation.
func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	return enc.Close()
}
