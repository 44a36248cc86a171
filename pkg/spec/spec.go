package spec

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultGrammarFile is the grammar file looked up in a project directory.
const DefaultGrammarFile = "grammar.yaml"

// Load reads a grammar from a YAML (or JSON) file.
func Load(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grammar file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a grammar document. JSON documents are valid YAML and go
// through the same decoder; view-only keys (camera, grid, widgets) are ignored.
func Parse(data []byte) (*Grammar, error) {
	var g Grammar
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing grammar: %w", err)
	}
	return &g, nil
}

// LoadProject loads the grammar from a project directory. It looks for
// grammar.yaml, then grammar.json.
func LoadProject(projectDir string) (*Grammar, error) {
	return LoadProjectFile(projectDir, DefaultGrammarFile)
}

// LoadProjectFile loads name from projectDir, falling back to the .json
// sibling when the file does not exist.
func LoadProjectFile(projectDir, name string) (*Grammar, error) {
	path := filepath.Join(projectDir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		ext := filepath.Ext(name)
		alt := filepath.Join(projectDir, name[:len(name)-len(ext)]+".json")
		if _, altErr := os.Stat(alt); altErr == nil {
			path = alt
		}
	}
	return Load(path)
}
