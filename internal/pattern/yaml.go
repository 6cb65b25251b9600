// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pattern

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// yamlFile is the YAML layout of a pattern file:
//
//	rules:
//	  - name: be_a
//	    constraints:
//	      - word: {lemma: be}
//	patterns:
//	  - name: declaration
//	    branches:
//	      - - word: {text: let}
//	        - math: {capture: identifier, node: {tag: mi}}
//	        - ref: be_a
//
// Each constraint is a single-key mapping named like its XML element.
// Children go under "children" (phrase, node) or "node" (math). Set-valued
// and tag attributes accept either a string or a list.
type yamlFile struct {
	Rules []struct {
		Name        string           `yaml:"name"`
		Constraints []map[string]any `yaml:"constraints"`
	} `yaml:"rules"`
	Patterns []struct {
		Name     string             `yaml:"name"`
		Branches [][]map[string]any `yaml:"branches"`
	} `yaml:"patterns"`
}

func decodeYAML(r io.Reader) (rawElem, error) {
	var yf yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&yf); err != nil && err != io.EOF {
		return rawElem{}, fmt.Errorf("parse yaml: %w", err)
	}

	root := rawElem{Name: "patterns"}
	for _, rule := range yf.Rules {
		e := rawElem{Name: "rule", Attrs: map[string]string{"name": rule.Name}}
		cs, err := yamlConstraints(rule.Constraints)
		if err != nil {
			return rawElem{}, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		e.Children = cs
		root.Children = append(root.Children, e)
	}
	for _, p := range yf.Patterns {
		e := rawElem{Name: "pattern", Attrs: map[string]string{"name": p.Name}}
		for i, br := range p.Branches {
			cs, err := yamlConstraints(br)
			if err != nil {
				return rawElem{}, fmt.Errorf("pattern %q branch %d: %w", p.Name, i, err)
			}
			e.Children = append(e.Children, rawElem{Name: "branch", Children: cs})
		}
		root.Children = append(root.Children, e)
	}
	return root, nil
}

func yamlConstraints(items []map[string]any) ([]rawElem, error) {
	out := make([]rawElem, 0, len(items))
	for _, item := range items {
		if len(item) != 1 {
			return nil, fmt.Errorf("constraint must have exactly one key, got %d", len(item))
		}
		for kind, v := range item {
			e, err := yamlElem(kind, v)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func yamlElem(kind string, v any) (rawElem, error) {
	e := rawElem{Name: kind, Attrs: map[string]string{}}

	if kind == "ref" {
		name, ok := v.(string)
		if !ok {
			return rawElem{}, fmt.Errorf("ref must be a rule name")
		}
		e.Attrs["rule"] = name
		return e, nil
	}
	if v == nil {
		return e, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return rawElem{}, fmt.Errorf("%s: expected a mapping", kind)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		val := m[k]
		switch {
		case k == "children" && kind == "phrase":
			items, err := yamlList(val)
			if err != nil {
				return rawElem{}, fmt.Errorf("%s children: %w", kind, err)
			}
			cs, err := yamlConstraints(items)
			if err != nil {
				return rawElem{}, err
			}
			e.Children = cs
		case k == "children" && kind == "node":
			items, err := yamlList(val)
			if err != nil {
				return rawElem{}, fmt.Errorf("node children: %w", err)
			}
			for _, it := range items {
				c, err := yamlElem("node", it)
				if err != nil {
					return rawElem{}, err
				}
				e.Children = append(e.Children, c)
			}
		case k == "node" && kind == "math":
			c, err := yamlElem("node", val)
			if err != nil {
				return rawElem{}, err
			}
			e.Children = []rawElem{c}
		default:
			s, err := yamlScalar(k, val)
			if err != nil {
				return rawElem{}, fmt.Errorf("%s: %w", kind, err)
			}
			e.Attrs[k] = s
		}
	}
	return e, nil
}

func yamlList(v any) ([]map[string]any, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list")
	}
	out := make([]map[string]any, 0, len(list))
	for _, it := range list {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected a mapping in list")
		}
		out = append(out, m)
	}
	return out, nil
}

// yamlScalar renders an attribute value; lists join with "," for tags and
// "|" for sets.
func yamlScalar(key string, v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case int, bool, float64:
		return fmt.Sprint(v), nil
	case []any:
		sep := "|"
		if key == "tags" {
			sep = ","
		}
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, sep), nil
	default:
		return "", fmt.Errorf("attribute %q has unsupported value %v", key, v)
	}
}
