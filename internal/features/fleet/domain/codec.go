package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// KindSlave tags manageable slaves in NodeRecord
const KindSlave = "slave"

// NodeRecord is the storage form of a node
type NodeRecord struct {
	Name              string           `json:"name"`
	Kind              string           `json:"kind,omitempty"`
	Description       string           `json:"description,omitempty"`
	RemoteFS          string           `json:"remoteFS,omitempty"`
	NumExecutors      int              `json:"numExecutors"`
	Mode              Mode             `json:"mode,omitempty"`
	Labels            string           `json:"labels,omitempty"`
	Launcher          *LauncherRecord  `json:"launcher,omitempty"`
	RetentionStrategy *RetentionRecord `json:"retentionStrategy,omitempty"`
	Properties        []PropertyRecord `json:"properties,omitempty"`
}

// LauncherRecord is the storage and form representation of a Launcher
type LauncherRecord struct {
	Kind     LauncherKind `json:"kind"`
	Command  string       `json:"command,omitempty"`
	Username string       `json:"username,omitempty"`
	Password string       `json:"password,omitempty"`
	Tunnel   string       `json:"tunnel,omitempty"`
	VMArgs   string       `json:"vmargs,omitempty"`
}

// RetentionRecord is the storage and form representation of a RetentionStrategy
type RetentionRecord struct {
	Kind             RetentionKind `json:"kind"`
	InDemandDelay    int64         `json:"inDemandDelay,omitempty"`
	IdleDelay        int64         `json:"idleDelay,omitempty"`
	StartTimeSpec    string        `json:"startTimeSpec,omitempty"`
	UpTimeMins       int           `json:"upTimeMins,omitempty"`
	KeepUpWhenActive bool          `json:"keepUpWhenActive,omitempty"`
}

// PropertyRecord is the storage and form representation of a NodeProperty
type PropertyRecord struct {
	Kind  string         `json:"kind"`
	Env   []EnvVar       `json:"env,omitempty"`
	Tools []ToolLocation `json:"tools,omitempty"`
}

// EncodeNode converts a node to its record
func EncodeNode(node Node) NodeRecord {
	slave, ok := AsSlave(node)
	if !ok {
		rec := NodeRecord{
			Name:         node.NodeName(),
			Description:  node.NodeDescription(),
			NumExecutors: node.NumExecutors(),
			Mode:         node.Mode(),
			Labels:       node.LabelString(),
			Kind:         "foreign",
		}
		if f, ok := node.(*ForeignNode); ok && f.Kind != "" {
			rec.Kind = f.Kind
		}
		return rec
	}

	rec := NodeRecord{
		Name:              slave.NodeName(),
		Kind:              KindSlave,
		Description:       slave.NodeDescription(),
		RemoteFS:          slave.RemoteFS(),
		NumExecutors:      slave.NumExecutors(),
		Mode:              slave.Mode(),
		Labels:            slave.LabelString(),
		Launcher:          EncodeLauncher(slave.Launcher()),
		RetentionStrategy: EncodeRetention(slave.RetentionStrategy()),
	}
	for _, p := range slave.Properties() {
		if pr, ok := EncodeProperty(p); ok {
			rec.Properties = append(rec.Properties, pr)
		}
	}
	return rec
}

// DecodeNode converts a record back into a node
func DecodeNode(rec NodeRecord) (Node, error) {
	if rec.Kind != KindSlave {
		return &ForeignNode{
			Name:        rec.Name,
			Kind:        rec.Kind,
			Description: rec.Description,
			Labels:      rec.Labels,
			Executors:   rec.NumExecutors,
			NodeMode:    rec.Mode,
		}, nil
	}

	spec := SlaveSpec{
		Name:        rec.Name,
		Description: rec.Description,
		RemoteFS:    rec.RemoteFS,
		Mode:        rec.Mode,
		Labels:      rec.Labels,
	}
	// a missing count falls back to the single executor default
	if rec.NumExecutors != 0 {
		spec.NumExecutors = strconv.Itoa(rec.NumExecutors)
	}
	if rec.Launcher != nil {
		l, err := rec.Launcher.Launcher()
		if err != nil {
			return nil, fmt.Errorf("slave %s: %w", rec.Name, err)
		}
		spec.Launcher = l
	}
	if rec.RetentionStrategy != nil {
		r, err := rec.RetentionStrategy.RetentionStrategy()
		if err != nil {
			return nil, fmt.Errorf("slave %s: %w", rec.Name, err)
		}
		spec.RetentionStrategy = r
	}
	for _, pr := range rec.Properties {
		p, err := pr.Property()
		if err != nil {
			return nil, fmt.Errorf("slave %s: %w", rec.Name, err)
		}
		spec.Properties = append(spec.Properties, p)
	}
	return NewSlave(spec)
}

// EncodeLauncher converts a launcher to its record, nil for nil
func EncodeLauncher(l Launcher) *LauncherRecord {
	switch v := l.(type) {
	case CommandLauncher:
		return &LauncherRecord{Kind: LauncherCommand, Command: v.Command}
	case ServiceLauncher:
		return &LauncherRecord{Kind: LauncherService, Username: v.Username, Password: v.Password}
	case JNLPLauncher:
		return &LauncherRecord{Kind: LauncherJNLP, Tunnel: v.Tunnel, VMArgs: v.VMArgs}
	default:
		return nil
	}
}

// Launcher builds the launcher described by the record
func (r LauncherRecord) Launcher() (Launcher, error) {
	switch r.Kind {
	case LauncherCommand:
		return CommandLauncher{Command: r.Command}, nil
	case LauncherService:
		return ServiceLauncher{Username: r.Username, Password: r.Password}, nil
	case LauncherJNLP:
		return JNLPLauncher{Tunnel: r.Tunnel, VMArgs: r.VMArgs}, nil
	default:
		return nil, fmt.Errorf("unknown launcher kind %q", r.Kind)
	}
}

// EncodeRetention converts a retention strategy to its record, nil for nil
func EncodeRetention(r RetentionStrategy) *RetentionRecord {
	switch v := r.(type) {
	case AlwaysRetention:
		return &RetentionRecord{Kind: RetentionAlways}
	case DemandRetention:
		return &RetentionRecord{Kind: RetentionDemand, InDemandDelay: v.InDemandDelay, IdleDelay: v.IdleDelay}
	case ScheduledRetention:
		return &RetentionRecord{
			Kind:             RetentionScheduled,
			StartTimeSpec:    v.StartTimeSpec,
			UpTimeMins:       v.UpTimeMins,
			KeepUpWhenActive: v.KeepUpWhenActive,
		}
	default:
		return nil
	}
}

// RetentionStrategy builds the retention strategy described by the record
func (r RetentionRecord) RetentionStrategy() (RetentionStrategy, error) {
	switch r.Kind {
	case RetentionAlways:
		return AlwaysRetention{}, nil
	case RetentionDemand:
		return DemandRetention{InDemandDelay: r.InDemandDelay, IdleDelay: r.IdleDelay}, nil
	case RetentionScheduled:
		return ScheduledRetention{
			StartTimeSpec:    r.StartTimeSpec,
			UpTimeMins:       r.UpTimeMins,
			KeepUpWhenActive: r.KeepUpWhenActive,
		}, nil
	default:
		return nil, fmt.Errorf("unknown retention strategy kind %q", r.Kind)
	}
}

// EncodeProperty converts a property to its record. Unknown property types
// are reported with ok false.
func EncodeProperty(p NodeProperty) (PropertyRecord, bool) {
	switch v := p.(type) {
	case EnvironmentVariablesProperty:
		return PropertyRecord{Kind: PropertyEnvironmentVariables, Env: v.Vars}, true
	case ToolLocationProperty:
		return PropertyRecord{Kind: PropertyToolLocations, Tools: v.Locations}, true
	default:
		return PropertyRecord{}, false
	}
}

// Property builds the property described by the record
func (r PropertyRecord) Property() (NodeProperty, error) {
	switch r.Kind {
	case PropertyEnvironmentVariables:
		return EnvironmentVariablesProperty{Vars: r.Env}, nil
	case PropertyToolLocations:
		return ToolLocationProperty{Locations: r.Tools}, nil
	default:
		return nil, fmt.Errorf("unknown node property kind %q", r.Kind)
	}
}

// DecodeObject re-reads a loosely typed form object into out
func DecodeObject(obj interface{}, out interface{}) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to encode form object: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode form object: %w", err)
	}
	return nil
}
