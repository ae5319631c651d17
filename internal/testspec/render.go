package testspec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Renderer serializes a Document. The two implementations must stay
// semantically interchangeable: a consumer reading the output cannot
// tell which one produced it.
type Renderer interface {
	Render(doc *Document) ([]byte, error)
}

// LibraryRenderer emits the document through yaml.v3.
type LibraryRenderer struct{}

func (LibraryRenderer) Render(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// PlainRenderer assembles the YAML by hand: same field order and
// nesting as the library renderer, utterances double quoted, and an
// explicit [] marker for empty action sequences.
type PlainRenderer struct{}

func (PlainRenderer) Render(doc *Document) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "subjectType: %s\n", doc.SubjectType)
	fmt.Fprintf(&b, "subjectName: %s\n", doc.SubjectName)
	b.WriteString("\ntestCases:\n")
	for _, tc := range doc.TestCases {
		fmt.Fprintf(&b, "  - utterance: %q\n", tc.Utterance)
		b.WriteString("    expectation:\n")
		fmt.Fprintf(&b, "      topic: %s\n", tc.Expectation.Topic)
		if len(tc.Expectation.ActionSequence) > 0 {
			b.WriteString("      actionSequence:\n")
			for _, name := range tc.Expectation.ActionSequence {
				fmt.Fprintf(&b, "        - %s\n", name)
			}
		} else {
			b.WriteString("      actionSequence: []\n")
		}
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

// SelectRenderer probes the library renderer with a canary document
// and falls back to the plain renderer when the probe fails.
func SelectRenderer() Renderer {
	canary := &Document{SubjectType: SubjectTypeAgent, SubjectName: "probe"}
	if _, err := (LibraryRenderer{}).Render(canary); err != nil {
		return PlainRenderer{}
	}
	return LibraryRenderer{}
}

// WriteFile renders doc with r (SelectRenderer when nil) and writes
// it to path, creating parent directories as needed.
func WriteFile(path string, doc *Document, r Renderer) error {
	if r == nil {
		r = SelectRenderer()
	}
	data, err := r.Render(doc)
	if err != nil {
		return fmt.Errorf("failed to render test spec: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write test spec: %w", err)
	}
	return nil
}

// Load reads a spec file written by either renderer.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test spec: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse test spec: %w", err)
	}
	return &doc, nil
}
