package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artlab/artikit/dataset"
	"github.com/artlab/artikit/logging"
)

// ExclusionList names recordings to omit from import. Two source formats
// normalize to this one in-memory form: a simple delimited list of
// basenames (anything after the first field is a comment) and a structured
// yaml list which can additionally exclude by prompt text.
type ExclusionList struct {
	Path string

	files          map[string]struct{}
	prompts        map[string]struct{}
	partsOfPrompts []string
}

// NewExclusionList builds a list from explicit basenames.
func NewExclusionList(basenames ...string) *ExclusionList {
	list := &ExclusionList{
		files:   make(map[string]struct{}, len(basenames)),
		prompts: make(map[string]struct{}),
	}
	for _, name := range basenames {
		list.files[name] = struct{}{}
	}
	return list
}

// ExcludesFile reports whether a recording basename is excluded. A nil
// list excludes nothing.
func (l *ExclusionList) ExcludesFile(basename string) bool {
	if l == nil {
		return false
	}
	_, found := l.files[basename]
	return found
}

// ExcludesPrompt reports whether a prompt text is excluded, either by
// exact match or by containing an excluded fragment.
func (l *ExclusionList) ExcludesPrompt(prompt string) bool {
	if l == nil {
		return false
	}
	if _, found := l.prompts[prompt]; found {
		return true
	}
	for _, part := range l.partsOfPrompts {
		if strings.Contains(prompt, part) {
			return true
		}
	}
	return false
}

// Len reports the number of excluded basenames.
func (l *ExclusionList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.files)
}

// LoadExclusionList reads an exclusion list. An empty path means no list
// is available and excludes nothing. A missing file is reported as a
// warning, not an error, and an empty list is returned. The format is
// chosen by suffix: .yaml/.yml is the structured format, anything else the
// delimited one.
func LoadExclusionList(path string, warnings *logging.Warnings) (*ExclusionList, error) {
	if path == "" {
		return NewExclusionList(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			warnings.Addf("exclusion-list", "no exclusion list at %s, continuing without", path)
			return NewExclusionList(), nil
		}
		return nil, fmt.Errorf("reading exclusion list %s: %w", path, err)
	}

	var list *ExclusionList
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		list, err = parseYAMLExclusions(raw, warnings)
	default:
		list = parseDelimitedExclusions(raw, warnings)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing exclusion list %s: %w", path, err)
	}
	list.Path = path
	return list, nil
}

// parseDelimitedExclusions reads the simple format: one recording basename
// per line, first field significant, the rest a comment for human readers.
// Lines starting with '#' are comments. A first field that looks like a
// path rather than a basename is a malformed entry: it is skipped with a
// warning and the rest of the list still applies.
func parseDelimitedExclusions(raw []byte, warnings *logging.Warnings) *ExclusionList {
	list := NewExclusionList()
	for i, line := range strings.Split(string(raw), "\n") {
		entry := line
		if cut, _, found := strings.Cut(entry, "#"); found {
			entry = cut
		}
		fields := strings.Fields(entry)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if strings.ContainsAny(name, `/\`) {
			warnings.Add("exclusion-list", "skipping entry",
				&dataset.MalformedEntryError{Line: i + 1, Entry: line})
			continue
		}
		list.files[name] = struct{}{}
	}
	return list
}

// yamlExclusionFile tolerates loosely typed entries: each element is
// checked individually so one malformed entry does not drop the list.
type yamlExclusionFile struct {
	Files          []any `yaml:"files"`
	Prompts        []any `yaml:"prompts"`
	PartsOfPrompts []any `yaml:"parts_of_prompts"`
}

func parseYAMLExclusions(raw []byte, warnings *logging.Warnings) (*ExclusionList, error) {
	var file yamlExclusionFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}

	list := NewExclusionList()
	collect := func(entries []any, into func(string)) {
		for i, entry := range entries {
			text, ok := entry.(string)
			if !ok || strings.TrimSpace(text) == "" {
				warnings.Add("exclusion-list", "skipping entry",
					&dataset.MalformedEntryError{Line: i + 1, Entry: fmt.Sprint(entry)})
				continue
			}
			into(text)
		}
	}
	collect(file.Files, func(s string) { list.files[s] = struct{}{} })
	collect(file.Prompts, func(s string) { list.prompts[s] = struct{}{} })
	collect(file.PartsOfPrompts, func(s string) {
		list.partsOfPrompts = append(list.partsOfPrompts, s)
	})
	return list, nil
}
