// Package service runs the bulk slave workflows (add, configure, delete
// and manage) over the node registry.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
	"multislave-config/internal/features/fleet/nodelist"
	"multislave-config/internal/features/fleet/search"
)

// Manager runs the workflows. Session state lives in the Session values
// handed to the caller; the Manager itself only holds its collaborators.
type Manager struct {
	registry  domain.Registry
	computers domain.ComputerController
	metrics   *MetricsCollector
	events    EventRecorder
	logger    *slog.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithMetrics records operation metrics on m
func WithMetrics(m *MetricsCollector) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithEvents publishes audit events through r
func WithEvents(r EventRecorder) Option {
	return func(mgr *Manager) {
		if r != nil {
			mgr.events = r
		}
	}
}

// WithLogger sets the logger used when the context carries none
func WithLogger(l *slog.Logger) Option {
	return func(mgr *Manager) {
		if l != nil {
			mgr.logger = l
		}
	}
}

// NewManager creates a workflow manager over reg and computers
func NewManager(reg domain.Registry, computers domain.ComputerController, opts ...Option) *Manager {
	m := &Manager{
		registry:  reg,
		computers: computers,
		events:    noopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BeginSession starts a workflow. Every mode but ADD needs at least one
// registered node.
func (m *Manager) BeginSession(mode UserMode) (*Session, error) {
	if _, err := ParseUserMode(string(mode)); err != nil {
		return nil, err
	}
	if mode != ModeAdd && len(m.registry.List()) == 0 {
		return nil, common.ErrEmptyNodeList
	}
	return &Session{ID: uuid.New(), Mode: mode, StartedAt: time.Now()}, nil
}

// Search filters the registered slaves, sorts them by name and makes them
// the selection of sess.
func (m *Manager) Search(ctx context.Context, sess *Session, criteria search.Criteria) (nodelist.NodeList, error) {
	if err := common.CheckContext(ctx); err != nil {
		return nil, err
	}
	found := search.Filter(m.registry.List(), criteria).SortByName()
	sess.Nodes = found
	m.log(ctx).Debug("Searched slaves", "session", sess.ID.String(), "matches", len(found))
	return found, nil
}

// Select makes the named registered nodes the selection of sess. Unknown
// and repeated names are skipped.
func (m *Manager) Select(sess *Session, names []string) (nodelist.NodeList, error) {
	if len(names) == 0 {
		return nil, common.ErrNoSelectedNodes
	}
	selected := nodelist.NodeList{}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if node, ok := m.registry.Get(name); ok {
			selected = append(selected, node)
		}
	}
	sess.Nodes = selected
	return selected, nil
}

// Apply writes patch to the selection of sess. In CONFIGURE mode the patch
// must change something and every selected node must still be
// registered; in ADD mode the selection is registered by the apply.
func (m *Manager) Apply(ctx context.Context, sess *Session, patch nodelist.SettingsPatch) (nodelist.NodeList, error) {
	switch sess.Mode {
	case ModeConfigure:
		if patch.IsEmpty() {
			return nil, common.ErrNoSelectedSettings
		}
	case ModeAdd:
	default:
		return nil, fmt.Errorf("apply in %s mode: %w", sess.Mode, common.ErrUndefinedMode)
	}

	logger := m.log(ctx).With("session", sess.ID.String(), "mode", string(sess.Mode))
	ctx = common.ContextWithLogger(ctx, logger)

	removed := ""
	if patch.RemoveLabels != nil {
		removed = *patch.RemoveLabels
	}
	hadLabels := sess.Nodes.HasLabels(removed)

	start := time.Now()
	operation := "add"
	change := sess.Nodes.ChangeSettings
	if sess.Mode == ModeConfigure {
		operation = "configure"
		change = sess.Nodes.ChangeExistingSettings
	}
	changed, err := change(ctx, m.registry, patch)
	if errors.Is(err, common.ErrNodeDeleted) {
		return nil, err
	}
	sess.HadLabels = hadLabels
	m.finish(ctx, operation, sess.Nodes.Names(), start, err)

	if changed != nil {
		sess.Nodes = changed
	}
	sess.LastChanged = &patch
	return changed, err
}

// Delete removes the selection of sess from the registry
func (m *Manager) Delete(ctx context.Context, sess *Session) error {
	if len(sess.Nodes) == 0 {
		return common.ErrNoSelectedNodes
	}
	ctx = common.ContextWithLogger(ctx, m.log(ctx).With("session", sess.ID.String()))

	start := time.Now()
	err := sess.Nodes.DeleteNodes(ctx, m.registry)
	m.finish(ctx, "delete", sess.Nodes.Names(), start, err)
	return err
}

// AutoCompleteNames returns the registered slave names starting with
// prefix, ignoring case.
func (m *Manager) AutoCompleteNames(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var out []string
	for _, node := range m.registry.List() {
		if _, ok := domain.AsSlave(node); ok && strings.HasPrefix(strings.ToLower(node.NodeName()), prefix) {
			out = append(out, node.NodeName())
		}
	}
	return out
}

// TakeOnline clears the temporary offline flag of the selection. It
// reports false when the session has no selection.
func (m *Manager) TakeOnline(ctx context.Context, sess *Session) (bool, error) {
	return m.eachComputer(ctx, sess, "take online", func(name string) error {
		return m.computers.SetTemporarilyOffline(name, false, "")
	})
}

// TakeOffline marks the selection temporarily offline
func (m *Manager) TakeOffline(ctx context.Context, sess *Session, reason string) (bool, error) {
	reason = strings.TrimSpace(reason)
	return m.eachComputer(ctx, sess, "take offline", func(name string) error {
		return m.computers.SetTemporarilyOffline(name, true, reason)
	})
}

// Connect launches the agents of the selection
func (m *Manager) Connect(ctx context.Context, sess *Session) (bool, error) {
	return m.eachComputer(ctx, sess, "connect", m.computers.Connect)
}

// Disconnect drops the agent connections of the selection
func (m *Manager) Disconnect(ctx context.Context, sess *Session, reason string) (bool, error) {
	reason = strings.TrimSpace(reason)
	return m.eachComputer(ctx, sess, "disconnect", func(name string) error {
		return m.computers.Disconnect(name, reason)
	})
}

// eachComputer runs fn for every selected node. Nodes without a computer
// are skipped.
func (m *Manager) eachComputer(ctx context.Context, sess *Session, operation string, fn func(name string) error) (bool, error) {
	if sess == nil || len(sess.Nodes) == 0 {
		return false, nil
	}
	if err := common.CheckContext(ctx); err != nil {
		return false, err
	}
	if m.computers == nil {
		return false, fmt.Errorf("%s: no computer controller configured", operation)
	}

	start := time.Now()
	var failures []common.NodeFailure
	_ = nodelist.WithLock(func() error {
		for _, name := range sess.Nodes.Names() {
			if err := fn(name); err != nil && !common.IsNotFound(err) {
				failures = append(failures, common.NodeFailure{NodeName: name, Err: err})
			}
		}
		return nil
	})

	var err error
	if len(failures) > 0 {
		err = common.ErrApply{Operation: operation, Failures: failures}
	}
	m.finish(ctx, operation, sess.Nodes.Names(), start, err)
	return true, err
}

func (m *Manager) finish(ctx context.Context, operation string, names []string, start time.Time, err error) {
	logger := m.log(ctx)
	failures := 0
	var applyErr common.ErrApply
	if errors.As(err, &applyErr) {
		failures = len(applyErr.Failures)
	}

	m.metrics.RecordOperation(operation, len(names), failures, time.Since(start), err)
	if eventErr := m.events.RecordOperation(ctx, operation, names, err); eventErr != nil {
		logger.Warn("Failed to record event", "operation", operation, "error", eventErr)
	}

	if err != nil {
		logger.Warn("Bulk operation finished with errors", "operation", operation, "nodes", names, "error", err)
		return
	}
	logger.Info("Bulk operation finished", "operation", operation, "nodes", names)
}

func (m *Manager) log(ctx context.Context) *slog.Logger {
	if logger, ok := common.ContextLogger(ctx); ok {
		return logger
	}
	return m.logger
}
