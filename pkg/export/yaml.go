package export

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cmbsims/scanpar/pkg/params"
)

// YamlEncoder writes a parameter set as a YAML mapping under the
// section name, preserving file order. The None marker becomes null.
type YamlEncoder struct{}

func (e *YamlEncoder) Name() string { return "yaml" }

func (e *YamlEncoder) Encode(w io.Writer, set *params.Set) error {
	values := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range set.Keys() {
		entry, _ := set.Lookup(key)

		keyNode := &yaml.Node{}
		if err := keyNode.Encode(key); err != nil {
			return fmt.Errorf("failed to encode key %s: %w", key, err)
		}
		valueNode := &yaml.Node{}
		if entry.Value == nil {
			valueNode.Kind = yaml.ScalarNode
			valueNode.Tag = "!!null"
			valueNode.Value = "null"
		} else if err := valueNode.Encode(entry.Value); err != nil {
			return fmt.Errorf("failed to encode value of %s: %w", key, err)
		}
		values.Content = append(values.Content, keyNode, valueNode)
	}

	sectionNode := &yaml.Node{}
	if err := sectionNode.Encode(set.Section()); err != nil {
		return fmt.Errorf("failed to encode section name: %w", err)
	}
	doc := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: []*yaml.Node{sectionNode, values},
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write yaml: %w", err)
	}
	return enc.Close()
}
