// Package patterns holds the rule library shared by boundary detection,
// classification and metadata extraction.
package patterns

import (
	"errors"
	"fmt"
	"regexp"
)

// GroupSpec is the uncompiled form of a label and its ordered expressions.
type GroupSpec struct {
	Label    string   `yaml:"label"`
	Patterns []string `yaml:"patterns"`
}

// FieldSpec lists the expressions that extract one metadata field.
type FieldSpec struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// ExtractionSpec lists field extractors for one document type.
type ExtractionSpec struct {
	Label  string      `yaml:"label"`
	Fields []FieldSpec `yaml:"fields"`
}

// Spec is the full uncompiled rule library. Group order is significant: when
// several labels match the same text, the earlier group wins.
type Spec struct {
	Boundary        []GroupSpec       `yaml:"boundary"`
	Classification  []GroupSpec       `yaml:"classification"`
	Extraction      []ExtractionSpec  `yaml:"extraction"`
	Templates       map[string]string `yaml:"templates"`
	DefaultTemplate string            `yaml:"default_template"`
}

// Rule is a single compiled expression. Field is empty for boundary and
// classification rules.
type Rule struct {
	Label string
	Field string
	Expr  string
	re    *regexp.Regexp
}

// Valid reports whether the rule compiled. Invalid rules never match.
func (r *Rule) Valid() bool {
	return r.re != nil
}

// Group is a label with its ordered rules.
type Group struct {
	Label string
	Rules []*Rule
}

// RuleSet is an ordered list of groups.
type RuleSet []Group

// Capture is one hit reported by Match.
type Capture struct {
	Label string
	Field string
	Value string
}

// Library is the compiled, read-only rule library for a run. It is safe for
// concurrent use.
type Library struct {
	boundary        RuleSet
	classification  RuleSet
	extraction      map[string]RuleSet
	templates       map[string]string
	defaultTemplate string
}

// Compile builds a Library from a spec. Every expression is compiled
// case-insensitive and multi-line. Invalid expressions are reported together
// in the returned error; the library is still returned and holds every rule,
// with the invalid ones never matching.
func Compile(spec Spec) (*Library, error) {
	var errs []error
	compile := func(label, field, expr string) *Rule {
		r := &Rule{Label: label, Field: field, Expr: expr}
		re, err := regexp.Compile("(?im)" + expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("pattern %q for %s: %w", expr, label, err))
			return r
		}
		r.re = re
		return r
	}

	lib := &Library{
		extraction:      make(map[string]RuleSet, len(spec.Extraction)),
		templates:       make(map[string]string, len(spec.Templates)),
		defaultTemplate: spec.DefaultTemplate,
	}
	for _, g := range spec.Boundary {
		lib.boundary = append(lib.boundary, compileGroup(g, compile))
	}
	for _, g := range spec.Classification {
		lib.classification = append(lib.classification, compileGroup(g, compile))
	}
	for _, e := range spec.Extraction {
		var rs RuleSet
		for _, f := range e.Fields {
			grp := Group{Label: e.Label}
			for _, expr := range f.Patterns {
				grp.Rules = append(grp.Rules, compile(e.Label, f.Name, expr))
			}
			rs = append(rs, grp)
		}
		lib.extraction[e.Label] = append(lib.extraction[e.Label], rs...)
	}
	for k, v := range spec.Templates {
		lib.templates[k] = v
	}
	if lib.defaultTemplate == "" {
		lib.defaultTemplate = DefaultTemplate
	}

	if len(errs) > 0 {
		return lib, fmt.Errorf("compiling patterns: %w", errors.Join(errs...))
	}
	return lib, nil
}

func compileGroup(g GroupSpec, compile func(label, field, expr string) *Rule) Group {
	grp := Group{Label: g.Label}
	for _, expr := range g.Patterns {
		grp.Rules = append(grp.Rules, compile(g.Label, "", expr))
	}
	return grp
}

// Match scans text once per rule, in rule-set order, and returns every hit.
// The captured value is the named group matching the rule's field, else the
// first group, else the whole match.
func Match(text string, rs RuleSet) []Capture {
	var out []Capture
	for _, g := range rs {
		for _, r := range g.Rules {
			if r.re == nil {
				continue
			}
			m := r.re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			out = append(out, Capture{Label: g.Label, Field: r.Field, Value: captured(r.re, m, r.Field)})
		}
	}
	return out
}

func captured(re *regexp.Regexp, m []string, field string) string {
	if field != "" {
		if idx := re.SubexpIndex(field); idx > 0 && m[idx] != "" {
			return m[idx]
		}
	}
	for _, v := range m[1:] {
		if v != "" {
			return v
		}
	}
	return m[0]
}

// firstLabel walks groups in order and returns the first whose any rule matches.
func firstLabel(text string, rs RuleSet, candidates []string) (string, bool) {
	var allowed map[string]bool
	if len(candidates) > 0 {
		allowed = make(map[string]bool, len(candidates))
		for _, c := range candidates {
			allowed[c] = true
		}
	}
	for _, g := range rs {
		if allowed != nil && !allowed[g.Label] {
			continue
		}
		for _, r := range g.Rules {
			if r.re != nil && r.re.MatchString(text) {
				return g.Label, true
			}
		}
	}
	return "", false
}

// BestLabel returns the first classification label whose rules match text.
// A non-empty candidates list restricts which labels may win.
func (l *Library) BestLabel(text string, candidates ...string) (string, bool) {
	return firstLabel(text, l.classification, candidates)
}

// BoundaryMatch returns the first boundary label whose rules match text.
func (l *Library) BoundaryMatch(text string) (string, bool) {
	return firstLabel(text, l.boundary, nil)
}

// Extract returns the first captured value per field for docType. Fields with
// no match are absent from the result.
func (l *Library) Extract(text, docType string) map[string]string {
	fields := make(map[string]string)
	for _, c := range Match(text, l.extraction[docType]) {
		if _, seen := fields[c.Field]; !seen {
			fields[c.Field] = c.Value
		}
	}
	return fields
}

// Template returns the filename template for docType, or the default one.
func (l *Library) Template(docType string) string {
	if t, ok := l.templates[docType]; ok && t != "" {
		return t
	}
	return l.defaultTemplate
}

// ClassificationLabels returns the classification labels in library order.
func (l *Library) ClassificationLabels() []string {
	out := make([]string, 0, len(l.classification))
	for _, g := range l.classification {
		out = append(out, g.Label)
	}
	return out
}

// Boundary returns the boundary rule set.
func (l *Library) Boundary() RuleSet { return l.boundary }

// Classification returns the classification rule set.
func (l *Library) Classification() RuleSet { return l.classification }
