// Package envvars converts between a slave's literal settings and their
// symbolic form, where the slave's own name is written as $NAME.
//
// Substitution is plain substring replacement. A short name that occurs
// inside unrelated text (name "a" inside "/data") is replaced as well.
package envvars

import (
	"fmt"
	"strings"

	"multislave-config/internal/features/fleet/domain"
)

// NamePlaceholder stands for the name of the slave a value belongs to
const NamePlaceholder = "$NAME"

// ToSymbolic replaces every occurrence of name in text with $NAME
func ToSymbolic(name, text string) string {
	if name == "" || text == "" {
		return text
	}
	return strings.ReplaceAll(text, name, NamePlaceholder)
}

// ToLiteral replaces every $NAME in text with name
func ToLiteral(name, text string) string {
	if text == "" {
		return text
	}
	return strings.ReplaceAll(text, NamePlaceholder, name)
}

// ToSymbolicOptional is ToSymbolic for values that may be absent
func ToSymbolicOptional(name string, text *string) *string {
	if text == nil {
		return nil
	}
	out := ToSymbolic(name, *text)
	return &out
}

// ToLiteralOptional is ToLiteral for values that may be absent
func ToLiteralOptional(name string, text *string) *string {
	if text == nil {
		return nil
	}
	out := ToLiteral(name, *text)
	return &out
}

// ContainsSymbolic reports whether text holds a placeholder
func ContainsSymbolic(text string) bool {
	return strings.Contains(text, NamePlaceholder)
}

// SlaveToSymbolic returns a copy of slave whose free-text settings use $NAME
// in place of the slave's name.
func SlaveToSymbolic(slave *domain.Slave) (*domain.Slave, error) {
	return rewrite(slave, ToSymbolic)
}

// SlaveToLiteral returns a copy of slave with every $NAME expanded to the
// slave's name.
func SlaveToLiteral(slave *domain.Slave) (*domain.Slave, error) {
	return rewrite(slave, ToLiteral)
}

func rewrite(slave *domain.Slave, fn func(name, text string) string) (*domain.Slave, error) {
	name := slave.NodeName()
	spec := slave.Spec()

	spec.Description = fn(name, spec.Description)
	spec.RemoteFS = fn(name, spec.RemoteFS)
	spec.Labels = fn(name, spec.Labels)

	switch l := spec.Launcher.(type) {
	case domain.CommandLauncher:
		spec.Launcher = domain.CommandLauncher{Command: fn(name, l.Command)}
	case domain.ServiceLauncher:
		spec.Launcher = domain.ServiceLauncher{Username: fn(name, l.Username), Password: fn(name, l.Password)}
	case domain.JNLPLauncher:
		spec.Launcher = domain.JNLPLauncher{Tunnel: fn(name, l.Tunnel), VMArgs: fn(name, l.VMArgs)}
	}

	out, err := domain.NewSlave(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to interpret environment variables on slave %s: %w", name, err)
	}
	return out, nil
}
