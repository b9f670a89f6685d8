package nodelist

import (
	"strings"

	"multislave-config/internal/features/fleet/domain"
	"multislave-config/internal/features/fleet/envvars"
)

// SettingsPatch is a sparse set of new slave settings. Nil fields leave
// the current value unchanged.
type SettingsPatch struct {
	Description  *string
	RemoteFS     *string
	NumExecutors *string
	Mode         *domain.Mode

	// SetLabels replaces the label string before AddLabels and
	// RemoveLabels are applied on top of it.
	SetLabels    *string
	AddLabels    *string
	RemoveLabels *string

	Launcher          domain.Launcher
	RetentionStrategy domain.RetentionStrategy

	// Properties are merged as: current, minus RemoveProperties kinds,
	// then each AddOrChangeProperties entry replaces its kind.
	AddOrChangeProperties []domain.NodeProperty
	RemoveProperties      []string
}

// IsEmpty reports whether the patch changes nothing
func (p SettingsPatch) IsEmpty() bool {
	return p.Description == nil &&
		p.RemoteFS == nil &&
		p.NumExecutors == nil &&
		p.Mode == nil &&
		p.SetLabels == nil &&
		p.AddLabels == nil &&
		p.RemoveLabels == nil &&
		p.Launcher == nil &&
		p.RetentionStrategy == nil &&
		len(p.AddOrChangeProperties) == 0 &&
		len(p.RemoveProperties) == 0
}

// applyTo builds the patched copy of slave with every $NAME expanded to
// the slave's name.
func (p SettingsPatch) applyTo(slave *domain.Slave) (*domain.Slave, error) {
	name := slave.NodeName()
	spec := slave.Spec()

	if p.Description != nil {
		spec.Description = *p.Description
	}
	if p.RemoteFS != nil {
		spec.RemoteFS = *p.RemoteFS
	}
	if p.NumExecutors != nil {
		spec.NumExecutors = *p.NumExecutors
	}
	if p.Mode != nil {
		spec.Mode = *p.Mode
	}
	if p.SetLabels != nil {
		spec.Labels = *p.SetLabels
	}
	if p.Launcher != nil {
		spec.Launcher = p.Launcher
	}
	if p.RetentionStrategy != nil {
		spec.RetentionStrategy = p.RetentionStrategy
	}

	spec.Labels = addLabels(envvars.ToLiteralOptional(name, p.AddLabels), spec.Labels)
	spec.Labels = removeLabels(envvars.ToLiteralOptional(name, p.RemoveLabels), spec.Labels)
	spec.Properties = mergeProperties(spec.Properties, p.RemoveProperties, p.AddOrChangeProperties)

	changed, err := domain.NewSlave(spec)
	if err != nil {
		return nil, err
	}
	return envvars.SlaveToLiteral(changed)
}

// addLabels appends every label of add that current lacks
func addLabels(add *string, current string) string {
	if add == nil {
		return current
	}
	labels := strings.Fields(current)
	for _, token := range strings.Fields(*add) {
		if !containsToken(labels, token) {
			labels = append(labels, token)
		}
	}
	return strings.Join(labels, " ")
}

// removeLabels drops every label of current that remove names
func removeLabels(remove *string, current string) string {
	if remove == nil {
		return current
	}
	drop := strings.Fields(*remove)
	var labels []string
	for _, token := range strings.Fields(current) {
		if !containsToken(drop, token) {
			labels = append(labels, token)
		}
	}
	return strings.Join(labels, " ")
}

func mergeProperties(current []domain.NodeProperty, removeKinds []string, addOrChange []domain.NodeProperty) []domain.NodeProperty {
	out := make([]domain.NodeProperty, 0, len(current)+len(addOrChange))
	for _, prop := range current {
		if !containsToken(removeKinds, prop.Kind()) {
			out = append(out, prop)
		}
	}
	for _, prop := range addOrChange {
		if prop == nil {
			continue
		}
		out = withoutKind(out, prop.Kind())
		out = append(out, prop)
	}
	return out
}

func withoutKind(props []domain.NodeProperty, kind string) []domain.NodeProperty {
	out := props[:0]
	for _, p := range props {
		if p.Kind() != kind {
			out = append(out, p)
		}
	}
	return out
}
