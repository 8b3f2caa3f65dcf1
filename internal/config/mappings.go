package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ynab-sync/ynab-sync/internal/model"
)

// AccountMappings is the account_mappings section. It keeps the key order
// of the YAML document so accounts sync in file order.
type AccountMappings struct {
	model.AccountMapping
}

// IsZero lets omitempty drop an empty section.
func (m AccountMappings) IsZero() bool {
	return m.Len() == 0
}

// MarshalYAML emits an ordered mapping.
func (m AccountMappings) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, l := range m.Links() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: l.BankAccountID},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: l.BudgetAccountID},
		)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping of bank account id to budgeting account id.
func (m *AccountMappings) UnmarshalYAML(value *yaml.Node) error {
	m.AccountMapping = model.AccountMapping{}
	if value.Tag == "!!null" {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: account_mappings must be a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: account mapping entries must be scalars", k.Line)
		}
		m.Set(k.Value, v.Value)
	}
	return nil
}
