package categorize

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Marshal returns canonical YAML bytes for the rules: sections and keys are
// sorted and rules are ordered by pattern, so rewriting is stable.
func (r *Rules) Marshal() ([]byte, error) {
	top := &yaml.Node{Kind: yaml.MappingNode}
	top.Content = append(top.Content,
		scalarNode("categories"), categoriesNode(r.Categories),
		scalarNode("rules"), rulesNode(r.Rules),
		scalarNode("shared"), rulesNode(r.Shared),
	)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(top); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	out = append(out, '\n')
	return out, nil
}

// Save writes the canonical rules file to path, creating parent directories.
func (r *Rules) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := r.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func rulesNode(rules []Rule) *yaml.Node {
	sorted := append([]Rule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Pattern < sorted[j].Pattern })
	n := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range sorted {
		match := r.Match
		if match == "" {
			match = MatchContains
		}
		n.Content = append(n.Content, mappingNode(map[string]string{
			"category": r.Category,
			"match":    string(match),
			"pattern":  r.Pattern,
		}))
	}
	return n
}

func categoriesNode(cats []Category) *yaml.Node {
	sorted := append([]Category(nil), cats...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	n := &yaml.Node{Kind: yaml.SequenceNode}
	for _, c := range sorted {
		n.Content = append(n.Content, mappingNode(map[string]string{
			"name": c.Name,
			"type": c.Type,
		}))
	}
	return n
}

func mappingNode(m map[string]string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Content = append(n.Content, scalarNode(k), scalarNode(m[k]))
	}
	return n
}
