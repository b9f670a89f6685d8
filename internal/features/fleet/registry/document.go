package registry

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"multislave-config/internal/features/fleet/domain"
)

// fleetDocument is the stored form of the registry
type fleetDocument struct {
	Nodes []domain.NodeRecord `json:"nodes"`
}

// Marshal encodes nodes as a YAML document
func Marshal(nodes []domain.Node) ([]byte, error) {
	doc := fleetDocument{Nodes: make([]domain.NodeRecord, 0, len(nodes))}
	for _, node := range nodes {
		doc.Nodes = append(doc.Nodes, domain.EncodeNode(node))
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode node list: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a document written by Marshal. Empty input is an
// empty fleet.
func Unmarshal(data []byte) ([]domain.Node, error) {
	var doc fleetDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode node list: %w", err)
	}
	nodes := make([]domain.Node, 0, len(doc.Nodes))
	for _, rec := range doc.Nodes {
		node, err := domain.DecodeNode(rec)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
