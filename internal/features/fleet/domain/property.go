package domain

import (
	"k8s.io/apimachinery/pkg/api/equality"
)

// Property kinds understood by the codec
const (
	PropertyEnvironmentVariables = "environment-variables"
	PropertyToolLocations        = "tool-locations"
)

// NodeProperty is a kind-tagged attachment of a slave. Two properties are
// the same kind when Kind returns the same identifier.
type NodeProperty interface {
	Kind() string
}

// EnvVar is one key/value pair of an environment variables property
type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EnvironmentVariablesProperty sets environment variables for builds on the slave
type EnvironmentVariablesProperty struct {
	Vars []EnvVar
}

func (EnvironmentVariablesProperty) Kind() string { return PropertyEnvironmentVariables }

// Get returns the value of key
func (p EnvironmentVariablesProperty) Get(key string) (string, bool) {
	for _, v := range p.Vars {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// ToolLocation overrides the install path of one tool
type ToolLocation struct {
	Name string `json:"name"`
	Home string `json:"home"`
}

// ToolLocationProperty overrides tool install paths on the slave
type ToolLocationProperty struct {
	Locations []ToolLocation
}

func (ToolLocationProperty) Kind() string { return PropertyToolLocations }

// PropertiesEqual reports whether a and b are of the same kind with equal content
func PropertiesEqual(a, b NodeProperty) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return equality.Semantic.DeepEqual(a, b)
}
