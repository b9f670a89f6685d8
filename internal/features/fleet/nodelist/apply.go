package nodelist

import (
	"context"
	"sync"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
)

// reconcileMu serializes every registry rewrite done by this package
var reconcileMu sync.Mutex

// ChangeSettings applies patch to every slave of the list and replaces
// the registry contents with the untouched nodes followed by the changed
// list. Foreign nodes pass through unchanged.
//
// A slave whose new definition is rejected keeps its current definition;
// the rejections are returned together in a common.ErrApply after the
// remaining slaves have been committed. The returned list holds the nodes
// of l in order; a repeated name is processed once.
func (l NodeList) ChangeSettings(ctx context.Context, reg domain.Registry, patch SettingsPatch) (NodeList, error) {
	return l.changeSettings(ctx, reg, patch, false)
}

// ChangeExistingSettings is ChangeSettings for a list that must still be
// registered. The check runs under the registry lock, so a concurrent
// delete either completes first and fails the change with
// common.ErrNodeDeleted or runs after it.
func (l NodeList) ChangeExistingSettings(ctx context.Context, reg domain.Registry, patch SettingsPatch) (NodeList, error) {
	return l.changeSettings(ctx, reg, patch, true)
}

func (l NodeList) changeSettings(ctx context.Context, reg domain.Registry, patch SettingsPatch, mustExist bool) (NodeList, error) {
	if err := common.CheckContext(ctx); err != nil {
		return nil, err
	}

	reconcileMu.Lock()
	defer reconcileMu.Unlock()

	if mustExist && !l.SlavesStillExist(reg) {
		return nil, common.ErrNodeDeleted
	}

	logger := common.LoggerFromContext(ctx)

	complement := l.Complement(reg)
	changed := make(NodeList, 0, len(l))
	var failures []common.NodeFailure

	for _, node := range l.Unique() {
		slave, ok := domain.AsSlave(node)
		if !ok {
			changed = append(changed, node)
			continue
		}

		updated, err := patch.applyTo(slave)
		if err != nil {
			logger.Warn("Failed to edit slave", "node", slave.NodeName(), "error", err)
			failures = append(failures, common.NodeFailure{NodeName: slave.NodeName(), Err: err})
			updated = slave
		}
		changed = append(changed, updated)
	}

	all := make([]domain.Node, 0, len(complement)+len(changed))
	all = append(all, complement...)
	all = append(all, changed...)

	if err := reg.ReplaceAll(ctx, all); err != nil {
		logger.Error("Failed to edit node list", "error", err)
		return changed, common.ErrApply{Operation: "edit", Failures: failures, Cause: err}
	}
	if len(failures) > 0 {
		return changed, common.ErrApply{Operation: "edit", Failures: failures}
	}

	logger.Debug("Node list updated", "nodes", changed.String())
	return changed, nil
}

// DeleteNodes removes every node of the list from the registry. Removal
// continues past failures, which are returned together.
func (l NodeList) DeleteNodes(ctx context.Context, reg domain.Registry) error {
	if err := common.CheckContext(ctx); err != nil {
		return err
	}

	reconcileMu.Lock()
	defer reconcileMu.Unlock()

	logger := common.LoggerFromContext(ctx)

	var failures []common.NodeFailure
	for _, node := range l.Unique() {
		if err := reg.Remove(ctx, node); err != nil {
			logger.Warn("Failed to delete slave", "node", node.NodeName(), "error", err)
			failures = append(failures, common.NodeFailure{NodeName: node.NodeName(), Err: err})
		}
	}
	if len(failures) > 0 {
		return common.ErrApply{Operation: "delete", Failures: failures}
	}
	return nil
}

// WithLock runs fn while holding the lock shared with ChangeSettings and
// DeleteNodes. fn must not call either of them.
func WithLock(fn func() error) error {
	reconcileMu.Lock()
	defer reconcileMu.Unlock()
	return fn()
}
