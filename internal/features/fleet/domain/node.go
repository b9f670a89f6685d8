package domain

import (
	"strconv"
	"strings"
	"unicode"

	"multislave-config/internal/common"
)

// Mode is the usage mode of a node
type Mode string

// Usage modes
const (
	ModeNormal    Mode = "NORMAL"
	ModeExclusive Mode = "EXCLUSIVE"
)

// ParseMode converts a form value into a Mode
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeNormal:
		return ModeNormal, nil
	case ModeExclusive:
		return ModeExclusive, nil
	default:
		return "", common.ErrUndefinedMode
	}
}

// Node is any node known to the host registry
type Node interface {
	NodeName() string
	NodeDescription() string
	LabelString() string
	NumExecutors() int
	Mode() Mode
}

// SlaveSpec carries the full attribute set used to build a Slave.
// NumExecutors is kept as text because it arrives from forms.
type SlaveSpec struct {
	Name              string
	Description       string
	RemoteFS          string
	NumExecutors      string
	Mode              Mode
	Labels            string
	Launcher          Launcher
	RetentionStrategy RetentionStrategy
	Properties        []NodeProperty
}

// Slave is the manageable node kind. Instances are immutable; use Spec
// and NewSlave to derive a changed copy.
type Slave struct {
	name        string
	description string
	remoteFS    string
	executors   int
	mode        Mode
	labels      string
	launcher    Launcher
	retention   RetentionStrategy
	properties  []NodeProperty
}

// NewSlave validates spec and builds a slave from it
func NewSlave(spec SlaveSpec) (*Slave, error) {
	if err := CheckGoodName(spec.Name); err != nil {
		return nil, err
	}

	executors := 1
	if n, err := strconv.Atoi(strings.TrimSpace(spec.NumExecutors)); err == nil {
		executors = n
	}
	if executors <= 0 {
		return nil, common.NewValidationError(spec.Name, "invalid number of executors: %s", spec.NumExecutors)
	}

	mode := spec.Mode
	if mode == "" {
		mode = ModeNormal
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, common.NewValidationError(spec.Name, "%v: %s", err, mode)
	}

	launcher := spec.Launcher
	if launcher == nil {
		launcher = JNLPLauncher{}
	}
	retention := spec.RetentionStrategy
	if retention == nil {
		retention = AlwaysRetention{}
	}
	if err := retention.Validate(); err != nil {
		return nil, common.NewValidationError(spec.Name, "%v", err)
	}

	props := make([]NodeProperty, len(spec.Properties))
	copy(props, spec.Properties)

	return &Slave{
		name:        spec.Name,
		description: spec.Description,
		remoteFS:    spec.RemoteFS,
		executors:   executors,
		mode:        mode,
		labels:      spec.Labels,
		launcher:    launcher,
		retention:   retention,
		properties:  props,
	}, nil
}

func (s *Slave) NodeName() string                     { return s.name }
func (s *Slave) NodeDescription() string              { return s.description }
func (s *Slave) RemoteFS() string                     { return s.remoteFS }
func (s *Slave) NumExecutors() int                    { return s.executors }
func (s *Slave) Mode() Mode                           { return s.mode }
func (s *Slave) LabelString() string                  { return s.labels }
func (s *Slave) Launcher() Launcher                   { return s.launcher }
func (s *Slave) RetentionStrategy() RetentionStrategy { return s.retention }

// Properties returns a copy of the ordered property list
func (s *Slave) Properties() []NodeProperty {
	props := make([]NodeProperty, len(s.properties))
	copy(props, s.properties)
	return props
}

// Spec returns the attributes of the slave as a mutable spec
func (s *Slave) Spec() SlaveSpec {
	return SlaveSpec{
		Name:              s.name,
		Description:       s.description,
		RemoteFS:          s.remoteFS,
		NumExecutors:      strconv.Itoa(s.executors),
		Mode:              s.mode,
		Labels:            s.labels,
		Launcher:          s.launcher,
		RetentionStrategy: s.retention,
		Properties:        s.Properties(),
	}
}

// ForeignNode is a node of any kind other than Slave, for example a cloud
// agent. It is carried through every operation untouched.
type ForeignNode struct {
	Name        string
	Kind        string
	Description string
	Labels      string
	Executors   int
	NodeMode    Mode
}

func (n *ForeignNode) NodeName() string        { return n.Name }
func (n *ForeignNode) NodeDescription() string { return n.Description }
func (n *ForeignNode) LabelString() string     { return n.Labels }
func (n *ForeignNode) NumExecutors() int       { return n.Executors }

func (n *ForeignNode) Mode() Mode {
	if n.NodeMode == "" {
		return ModeNormal
	}
	return n.NodeMode
}

// AsSlave returns the node as a manageable slave when it is one
func AsSlave(node Node) (*Slave, bool) {
	slave, ok := node.(*Slave)
	return slave, ok && slave != nil
}

const unsafeNameChars = `?*/\%!@#$^&|<>[]:;`

// CheckGoodName rejects node names the host cannot store
func CheckGoodName(name string) error {
	if strings.TrimSpace(name) == "" {
		return common.NewValidationError("", "slave name must not be empty")
	}
	if name == "." || name == ".." {
		return common.NewValidationError(name, "%q is not an allowed name", name)
	}
	if i := strings.IndexAny(name, unsafeNameChars); i >= 0 {
		return common.NewValidationError(name, "unsafe character %q in name", name[i])
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return common.NewValidationError(name, "whitespace is not allowed in names")
	}
	return nil
}
