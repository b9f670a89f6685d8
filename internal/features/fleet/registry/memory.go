// Package registry provides the host side node store: an ordered
// in-memory registry with optional persistence, and the persisters.
package registry

import (
	"context"
	"sync"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
)

// ComputerState is the runtime state of one node
type ComputerState struct {
	Connected     bool
	Offline       bool
	OfflineReason string
}

// Memory is an ordered node registry. Every change is written through to
// the persister when one is set; the in-memory state is updated first, so
// a failed save leaves memory ahead of storage.
type Memory struct {
	mu        sync.RWMutex
	nodes     []domain.Node
	computers map[string]*ComputerState
	persister domain.Persister
}

// NewMemory creates a registry holding nodes
func NewMemory(nodes ...domain.Node) *Memory {
	m := &Memory{computers: make(map[string]*ComputerState)}
	m.nodes = append(m.nodes, nodes...)
	return m
}

// Load creates a registry from the contents of p and keeps p for writes
func Load(ctx context.Context, p domain.Persister) (*Memory, error) {
	nodes, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	m := NewMemory(nodes...)
	m.persister = p
	return m, nil
}

// List returns the nodes in registration order
func (m *Memory) List() []domain.Node {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Node, len(m.nodes))
	copy(out, m.nodes)
	return out
}

// Get looks a node up by name
func (m *Memory) Get(name string) (domain.Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.indexOf(name); i >= 0 {
		return m.nodes[i], true
	}
	return nil, false
}

// Add registers node. A node with the same name is replaced in place.
func (m *Memory) Add(ctx context.Context, node domain.Node) error {
	if node == nil {
		return common.InvalidInputError("node must not be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(node.NodeName()); i >= 0 {
		m.nodes[i] = node
	} else {
		m.nodes = append(m.nodes, node)
	}
	return m.save(ctx)
}

// Remove unregisters node
func (m *Memory) Remove(ctx context.Context, node domain.Node) error {
	if node == nil {
		return common.InvalidInputError("node must not be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(node.NodeName())
	if i < 0 {
		return common.NewNodeNotFoundError(node.NodeName())
	}
	m.nodes = append(m.nodes[:i:i], m.nodes[i+1:]...)
	delete(m.computers, node.NodeName())
	return m.save(ctx)
}

// ReplaceAll swaps the whole node set in one step. Names are unique: a
// repeated name keeps the position of its first occurrence and the
// definition of its last.
func (m *Memory) ReplaceAll(ctx context.Context, nodes []domain.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]domain.Node, 0, len(nodes))
	index := make(map[string]int, len(nodes))
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if i, ok := index[node.NodeName()]; ok {
			next[i] = node
			continue
		}
		index[node.NodeName()] = len(next)
		next = append(next, node)
	}
	m.nodes = next

	for name := range m.computers {
		if m.indexOf(name) < 0 {
			delete(m.computers, name)
		}
	}
	return m.save(ctx)
}

// SetTemporarilyOffline marks the computer of name offline or online
func (m *Memory) SetTemporarilyOffline(name string, offline bool, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.computer(name)
	if err != nil {
		return err
	}
	state.Offline = offline
	if offline {
		state.OfflineReason = reason
	} else {
		state.OfflineReason = ""
	}
	return nil
}

// Connect launches the agent of name
func (m *Memory) Connect(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.computer(name)
	if err != nil {
		return err
	}
	state.Connected = true
	return nil
}

// Disconnect drops the agent connection of name
func (m *Memory) Disconnect(name string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.computer(name)
	if err != nil {
		return err
	}
	state.Connected = false
	state.OfflineReason = reason
	return nil
}

// State returns the runtime state of name
func (m *Memory) State(name string) (ComputerState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.indexOf(name) < 0 {
		return ComputerState{}, false
	}
	if state, ok := m.computers[name]; ok {
		return *state, true
	}
	return ComputerState{}, true
}

func (m *Memory) computer(name string) (*ComputerState, error) {
	if m.indexOf(name) < 0 {
		return nil, common.NewNodeNotFoundError(name)
	}
	state, ok := m.computers[name]
	if !ok {
		state = &ComputerState{}
		m.computers[name] = state
	}
	return state, nil
}

func (m *Memory) indexOf(name string) int {
	for i, node := range m.nodes {
		if node.NodeName() == name {
			return i
		}
	}
	return -1
}

func (m *Memory) save(ctx context.Context) error {
	if m.persister == nil {
		return nil
	}
	snapshot := make([]domain.Node, len(m.nodes))
	copy(snapshot, m.nodes)
	return m.persister.Save(ctx, snapshot)
}
