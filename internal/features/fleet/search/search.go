// Package search filters the registered slaves by free-text criteria.
package search

import (
	"strconv"
	"strings"

	"multislave-config/internal/features/fleet/domain"
	"multislave-config/internal/features/fleet/envvars"
	"multislave-config/internal/features/fleet/nodelist"
)

// Criteria fields
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldLabels      = "labels"
	FieldRemoteFS    = "remoteFS"
	FieldExecutors   = "executors"
)

// Criteria maps a field to the text searched for in it. Missing and empty
// entries do not constrain the result.
type Criteria map[string]string

// Filter returns the slaves of nodes matching every criterion, in input
// order. Foreign nodes are never part of the result.
func Filter(nodes []domain.Node, criteria Criteria) nodelist.NodeList {
	out := nodelist.NodeList{}
	for _, node := range nodes {
		slave, ok := domain.AsSlave(node)
		if !ok {
			continue
		}
		if Matches(slave, criteria) {
			out = append(out, slave)
		}
	}
	return out
}

// Matches reports whether slave satisfies every criterion. A non-numeric
// executors criterion is ignored.
func Matches(slave *domain.Slave, criteria Criteria) bool {
	if want, err := strconv.Atoi(criteria[FieldExecutors]); err == nil && slave.NumExecutors() != want {
		return false
	}
	return HasSearchHit(slave, criteria[FieldDescription], slave.NodeDescription()) &&
		HasSearchHit(slave, criteria[FieldRemoteFS], slave.RemoteFS()) &&
		HasSearchHit(slave, criteria[FieldLabels], slave.LabelString()) &&
		HasSearchHit(slave, criteria[FieldName], slave.NodeName())
}

// HasSearchHit matches query against value, a setting of slave. Each
// query token has to be a substring of some value token, compared case
// insensitively. Query tokens holding "$" may also match the symbolic
// form of the value token at the same position.
func HasSearchHit(slave *domain.Slave, query, value string) bool {
	if query == "" {
		return true
	}
	if value == "" {
		return false
	}

	queryTokens := strings.Fields(searchable(query))
	valueTokens := strings.Fields(searchable(value))
	symbolicTokens := strings.Fields(searchable(envvars.ToSymbolic(slave.NodeName(), value)))

	for _, q := range queryTokens {
		if !tokenHit(q, valueTokens, symbolicTokens) {
			return false
		}
	}
	return true
}

func tokenHit(q string, valueTokens, symbolicTokens []string) bool {
	for i, v := range valueTokens {
		if strings.Contains(v, q) {
			return true
		}
		if strings.Contains(q, "$") && i < len(symbolicTokens) && strings.Contains(symbolicTokens[i], q) {
			return true
		}
	}
	return false
}

func searchable(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
