package importer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLSource reads one TableData document per *.yaml file.
type YAMLSource struct{}

// NewYAMLSource returns a YAMLSource.
func NewYAMLSource() *YAMLSource { return &YAMLSource{} }

// Load parses every *.yaml file of sourceDir in lexicographic order. A table
// may be split across files; rows accumulate in file order.
//
// Postcondition: table names are resolved with TableFor.
func (YAMLSource) Load(sourceDir string) ([]*TableData, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("reading source dir %q: %w", sourceDir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			files = append(files, filepath.Join(sourceDir, e.Name()))
		}
	}
	sort.Strings(files)

	byTable := make(map[string]*TableData)
	var out []*TableData
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var td TableData
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&td); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		table, err := TableFor(td.Table)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", path, err)
		}
		if prev, ok := byTable[table]; ok {
			prev.Rows = append(prev.Rows, td.Rows...)
			continue
		}
		td.Table = table
		byTable[table] = &td
		out = append(out, &td)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no loot tables found in %q", sourceDir)
	}
	return out, nil
}
