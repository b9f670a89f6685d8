// Package nodelist holds the ordered node collection used by search,
// selection and bulk reconfiguration.
package nodelist

import (
	"sort"
	"strings"

	"multislave-config/internal/features/fleet/domain"
)

// NodeList is an ordered collection of nodes. Only slaves take part in
// setting based operations; other node kinds are carried along untouched.
type NodeList []domain.Node

// New copies nodes into a NodeList
func New(nodes []domain.Node) NodeList {
	list := make(NodeList, len(nodes))
	copy(list, nodes)
	return list
}

// IsEmpty reports whether the list holds no slaves. A list with only
// foreign nodes is empty.
func (l NodeList) IsEmpty() bool {
	return l.FirstSlave() == nil
}

// FirstSlave returns the first slave of the list or nil
func (l NodeList) FirstSlave() *domain.Slave {
	for _, node := range l {
		if slave, ok := domain.AsSlave(node); ok {
			return slave
		}
	}
	return nil
}

// Slaves returns the slaves of the list in order
func (l NodeList) Slaves() []*domain.Slave {
	var slaves []*domain.Slave
	for _, node := range l {
		if slave, ok := domain.AsSlave(node); ok {
			slaves = append(slaves, slave)
		}
	}
	return slaves
}

// SortByName sorts the list in place and returns it. Nil entries sort first.
func (l NodeList) SortByName() NodeList {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i], l[j]
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return a.NodeName() < b.NodeName()
	})
	return l
}

// Names returns the node names in list order
func (l NodeList) Names() []string {
	names := make([]string, 0, len(l))
	for _, node := range l {
		if node != nil {
			names = append(names, node.NodeName())
		}
	}
	return names
}

// String joins the node names with single spaces
func (l NodeList) String() string {
	return strings.Join(l.Names(), " ")
}

// Unique returns the non-nil nodes of the list with repeated names dropped,
// keeping the first occurrence of each name.
func (l NodeList) Unique() NodeList {
	seen := make(map[string]bool, len(l))
	out := make(NodeList, 0, len(l))
	for _, node := range l {
		if node == nil || seen[node.NodeName()] {
			continue
		}
		seen[node.NodeName()] = true
		out = append(out, node)
	}
	return out
}

// Contains reports whether a node named name is in the list
func (l NodeList) Contains(name string) bool {
	for _, node := range l {
		if node != nil && node.NodeName() == name {
			return true
		}
	}
	return false
}

// SlavesStillExist reports whether every node of the list is still
// registered.
func (l NodeList) SlavesStillExist(reg domain.Registry) bool {
	for _, node := range l {
		if node == nil {
			continue
		}
		if _, ok := reg.Get(node.NodeName()); !ok {
			return false
		}
	}
	return true
}

// Complement returns the registered nodes that are not in the list, in
// registry order.
func (l NodeList) Complement(reg domain.Registry) []domain.Node {
	var out []domain.Node
	for _, node := range reg.List() {
		if node != nil && !l.Contains(node.NodeName()) {
			out = append(out, node)
		}
	}
	return out
}

// HasLabels reports whether every label of query is carried by at least
// one node of the list. An empty query always holds.
func (l NodeList) HasLabels(query string) bool {
	for _, token := range strings.Fields(query) {
		found := false
		for _, node := range l {
			if node == nil {
				continue
			}
			if containsToken(strings.Fields(node.LabelString()), token) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Summary is the listing view of one slave
type Summary struct {
	Name        string `json:"name"`
	Labels      string `json:"labels"`
	Executors   int    `json:"executors"`
	RemoteFS    string `json:"remoteFS"`
	Description string `json:"description"`
}

// Summaries lists the slaves of the list for display
func (l NodeList) Summaries() []Summary {
	out := make([]Summary, 0, len(l))
	for _, slave := range l.Slaves() {
		out = append(out, Summary{
			Name:        slave.NodeName(),
			Labels:      slave.LabelString(),
			Executors:   slave.NumExecutors(),
			RemoteFS:    slave.RemoteFS(),
			Description: slave.NodeDescription(),
		})
	}
	return out
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}
