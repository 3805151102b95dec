package junit

import (
	"encoding/xml"
	"fmt"
	"os"
)

const indent = "  "

// Render serializes the document as pretty printed XML with a declaration header.
func (d *TestSuites) Render() ([]byte, error) {
	body, err := xml.MarshalIndent(d, "", indent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal junit report: %w", err)
	}

	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

// Parse decodes a report previously produced by Render.
func Parse(data []byte) (*TestSuites, error) {
	doc := NewTestSuites()
	if err := xml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal junit report: %w", err)
	}
	return doc, nil
}

// ParseFile reads and decodes the report at path.
func ParseFile(path string) (*TestSuites, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read junit report %s: %w", path, err)
	}
	return Parse(data)
}
