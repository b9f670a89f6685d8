package service

import (
	"context"
	"strings"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
	"multislave-config/internal/features/fleet/envvars"
	"multislave-config/internal/features/fleet/names"
	"multislave-config/internal/features/fleet/nodelist"
)

// Create modes
const (
	CreateNew  = "new"
	CreateCopy = "copy"
)

// CreateRequest describes the slaves of an ADD session
type CreateRequest struct {
	// Names is a whitespace separated list of explicit names
	Names string
	// Prefix, First and Last give the numbered names Prefix+First..Prefix+Last
	Prefix string
	First  string
	Last   string

	// Mode is CreateNew or CreateCopy
	Mode string
	// CopyFrom names the slave cloned in CreateCopy mode
	CopyFrom string
	// ExtendedEnv converts the source to $NAME form before cloning, so
	// every occurrence of its name follows the clone's name.
	ExtendedEnv bool
}

// Create builds unregistered slaves for req and makes them the selection
// of sess. They are registered by a later Apply.
func (m *Manager) Create(ctx context.Context, sess *Session, req CreateRequest) (nodelist.NodeList, error) {
	if err := common.CheckContext(ctx); err != nil {
		return nil, err
	}

	slaveNames, err := names.DeriveNames(m.registry, req.Names, req.Prefix, req.First, req.Last)
	if err != nil {
		return nil, err
	}
	if len(slaveNames) == 0 {
		return nil, common.ErrEmptyNameList
	}

	var created nodelist.NodeList
	switch req.Mode {
	case CreateNew:
		created, err = newSlaves(slaveNames)
	case CreateCopy:
		created, err = m.copySlaves(slaveNames, req.CopyFrom, req.ExtendedEnv)
	default:
		return nil, common.InvalidInputError("unknown create mode %q", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	sess.Nodes = created
	m.log(ctx).Info("Prepared new slaves", "session", sess.ID.String(), "nodes", created.Names(), "mode", req.Mode)
	return created, nil
}

func newSlaves(slaveNames []string) (nodelist.NodeList, error) {
	out := make(nodelist.NodeList, 0, len(slaveNames))
	for _, name := range slaveNames {
		slave, err := domain.NewSlave(domain.SlaveSpec{
			Name:              name,
			Mode:              domain.ModeNormal,
			Launcher:          domain.ServiceLauncher{},
			RetentionStrategy: domain.AlwaysRetention{},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, slave)
	}
	return out, nil
}

func (m *Manager) copySlaves(slaveNames []string, copyFrom string, extendedEnv bool) (nodelist.NodeList, error) {
	if strings.TrimSpace(copyFrom) == "" {
		return nil, common.InvalidInputError("no slave to copy from was given")
	}
	node, ok := m.registry.Get(copyFrom)
	if !ok {
		return nil, common.NewNodeNotFoundError(copyFrom)
	}
	src, ok := domain.AsSlave(node)
	if !ok {
		return nil, common.InvalidInputError("%s is not a slave and cannot be copied", copyFrom)
	}

	if extendedEnv {
		symbolic, err := envvars.SlaveToSymbolic(src)
		if err != nil {
			return nil, err
		}
		src = symbolic
	}

	out := make(nodelist.NodeList, 0, len(slaveNames))
	for _, name := range slaveNames {
		spec := src.Spec()
		spec.Name = name
		clone, err := domain.NewSlave(spec)
		if err != nil {
			return nil, err
		}
		clone, err = envvars.SlaveToLiteral(clone)
		if err != nil {
			return nil, err
		}
		out = append(out, clone)
	}
	return out, nil
}
