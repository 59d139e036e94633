package schema

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Content types an operation may accept.
const (
	ContentJSON      = "application/json"
	ContentMultipart = "multipart/form-data"
	ContentForm      = "application/x-www-form-urlencoded"
)

// Operation is the analysed schema of one API operation.
type Operation struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Group       string   `json:"group,omitzero"`
	Path        string   `json:"path,omitzero"`
	Methods     []string `json:"methods,omitzero"`
	ContentType string   `json:"contentType,omitzero"`
	Description string   `json:"description,omitzero"`
	Deprecated  bool     `json:"deprecated,omitzero"`
	Author      string   `json:"author,omitzero"`
	Version     string   `json:"version,omitzero"`
	Date        string   `json:"date,omitzero"`

	// Parameters are the documented inputs in declaration order.
	Parameters []*Member `json:"parameters"`

	// Return is the documented result, nil for operations without one.
	Return *Member `json:"return,omitzero"`
}

// Parameter returns the parameter member named name, or nil.
func (o *Operation) Parameter(name string) *Member {
	for _, p := range o.Parameters {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Document is the full set of analysed operations.
type Document struct {
	// Title names the documented API, typically the module or package path.
	Title string `json:"title,omitzero"`

	Operations []*Operation `json:"operations"`
}

// Groups returns the group names in first-appearance order.
func (d *Document) Groups() []string {
	seen := make(map[string]bool)
	var groups []string
	for _, op := range d.Operations {
		if !seen[op.Group] {
			seen[op.Group] = true
			groups = append(groups, op.Group)
		}
	}
	return groups
}

// Marshal encodes v (a Document, Operation or Member) as indented JSON.
func Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v, json.Deterministic(true), jsontext.WithIndent("  "))
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	return append(data, '\n'), nil
}

// Encode writes v to w as indented JSON.
func Encode(w io.Writer, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode parses a Document previously written by Marshal.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return &doc, nil
}
