package patterns

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML extension file. An empty path returns an empty spec.
func LoadFile(path string) (Spec, error) {
	if path == "" {
		return Spec{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("reading pattern file: %w", err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("parsing pattern file %s: %w", path, err)
	}
	log.Printf("patterns.LoadFile: loaded %d boundary, %d classification, %d extraction groups from %s",
		len(spec.Boundary), len(spec.Classification), len(spec.Extraction), path)
	return spec, nil
}

// Merge returns base extended by ext. Groups whose label already exists get
// ext's patterns appended; new labels are appended after the existing ones.
// Templates in ext override base. base is not modified.
func Merge(base, ext Spec) Spec {
	out := Spec{
		Boundary:        mergeGroups(base.Boundary, ext.Boundary),
		Classification:  mergeGroups(base.Classification, ext.Classification),
		Extraction:      mergeExtraction(base.Extraction, ext.Extraction),
		Templates:       make(map[string]string, len(base.Templates)+len(ext.Templates)),
		DefaultTemplate: base.DefaultTemplate,
	}
	for k, v := range base.Templates {
		out.Templates[k] = v
	}
	for k, v := range ext.Templates {
		out.Templates[k] = v
	}
	if ext.DefaultTemplate != "" {
		out.DefaultTemplate = ext.DefaultTemplate
	}
	return out
}

func mergeGroups(base, ext []GroupSpec) []GroupSpec {
	out := make([]GroupSpec, 0, len(base)+len(ext))
	index := make(map[string]int, len(base))
	for _, g := range base {
		index[g.Label] = len(out)
		out = append(out, GroupSpec{Label: g.Label, Patterns: append([]string(nil), g.Patterns...)})
	}
	for _, g := range ext {
		if i, ok := index[g.Label]; ok {
			out[i].Patterns = append(out[i].Patterns, g.Patterns...)
			continue
		}
		index[g.Label] = len(out)
		out = append(out, GroupSpec{Label: g.Label, Patterns: append([]string(nil), g.Patterns...)})
	}
	return out
}

func mergeExtraction(base, ext []ExtractionSpec) []ExtractionSpec {
	out := make([]ExtractionSpec, 0, len(base)+len(ext))
	index := make(map[string]int, len(base))
	add := func(e ExtractionSpec) {
		i, ok := index[e.Label]
		if !ok {
			index[e.Label] = len(out)
			out = append(out, ExtractionSpec{Label: e.Label})
			i = len(out) - 1
		}
		for _, f := range e.Fields {
			out[i].Fields = appendField(out[i].Fields, f)
		}
	}
	for _, e := range base {
		add(e)
	}
	for _, e := range ext {
		add(e)
	}
	return out
}

func appendField(fields []FieldSpec, f FieldSpec) []FieldSpec {
	for i := range fields {
		if fields[i].Name == f.Name {
			fields[i].Patterns = append(fields[i].Patterns, f.Patterns...)
			return fields
		}
	}
	return append(fields, FieldSpec{Name: f.Name, Patterns: append([]string(nil), f.Patterns...)})
}

// Load compiles the built-in library extended by the file at path. Callers
// treat any error as fatal; the returned library is still usable, with invalid
// expressions never matching.
func Load(path string) (*Library, error) {
	ext, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(Merge(DefaultSpec(), ext))
}
