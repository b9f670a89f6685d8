package nodelist

import (
	"fmt"
	"strconv"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
	"multislave-config/internal/features/fleet/envvars"
	"multislave-config/internal/features/fleet/setting"
)

// Fallbacks used when a numeric retention field has no common value
const (
	DefaultInDemandDelay    int64 = 0
	DefaultIdleDelay        int64 = 1
	DefaultUpTimeMins             = 1
	DefaultKeepUpWhenActive       = "true"
)

// GetCommon returns the value of s shared by every slave of the list. The
// literal value wins when all slaves agree on it; otherwise the symbolic
// value is returned when all slaves agree after replacing their own name
// with $NAME. ok is false when neither holds.
func (l NodeList) GetCommon(s setting.Setting) (value string, ok bool, err error) {
	first := l.FirstSlave()
	if first == nil {
		return "", false, common.ErrEmptyNodeList
	}

	firstValue, err := setting.Value(s, first)
	if err != nil {
		return "", false, err
	}
	firstSymbolic := envvars.ToSymbolic(first.NodeName(), firstValue)

	sameLiteral, sameSymbolic := true, true
	for _, slave := range l.Slaves() {
		v, err := setting.Value(s, slave)
		if err != nil {
			return "", false, err
		}
		if v != firstValue {
			sameLiteral = false
		}
		if envvars.ToSymbolic(slave.NodeName(), v) != firstSymbolic {
			sameSymbolic = false
		}
		if !sameLiteral && !sameSymbolic {
			return "", false, nil
		}
	}

	if sameLiteral {
		return firstValue, true, nil
	}
	return firstSymbolic, true, nil
}

// CommonMode returns the usage mode shared by every slave
func (l NodeList) CommonMode() (domain.Mode, bool, error) {
	first := l.FirstSlave()
	if first == nil {
		return "", false, common.ErrEmptyNodeList
	}
	for _, slave := range l.Slaves() {
		if slave.Mode() != first.Mode() {
			return "", false, nil
		}
	}
	return first.Mode(), true, nil
}

// CommonLauncher returns a launcher representing every slave of the list.
// It is nil when the slaves use launchers of different kinds. Sub-fields
// without a common value are left empty.
func (l NodeList) CommonLauncher() (domain.Launcher, error) {
	first := l.FirstSlave()
	if first == nil {
		return nil, common.ErrEmptyNodeList
	}
	kind := domain.LauncherKindOf(first.Launcher())
	for _, slave := range l.Slaves() {
		if domain.LauncherKindOf(slave.Launcher()) != kind {
			return nil, nil
		}
	}

	switch first.Launcher().(type) {
	case domain.ServiceLauncher:
		return domain.ServiceLauncher{
			Username: l.commonOrEmpty(setting.Username),
			Password: l.commonOrEmpty(setting.Password),
		}, nil
	case domain.CommandLauncher:
		return domain.CommandLauncher{Command: l.commonOrEmpty(setting.LaunchCommand)}, nil
	case domain.JNLPLauncher:
		return domain.JNLPLauncher{
			Tunnel: l.commonOrEmpty(setting.Tunnel),
			VMArgs: l.commonOrEmpty(setting.VMArgs),
		}, nil
	}
	return first.Launcher(), nil
}

// CommonRetentionStrategy returns a strategy representing every slave of
// the list, or nil when the slaves use strategies of different kinds.
// Numeric fields without a common value fall back to the defaults.
func (l NodeList) CommonRetentionStrategy() (domain.RetentionStrategy, error) {
	first := l.FirstSlave()
	if first == nil {
		return nil, common.ErrEmptyNodeList
	}
	kind := domain.RetentionKindOf(first.RetentionStrategy())
	for _, slave := range l.Slaves() {
		if domain.RetentionKindOf(slave.RetentionStrategy()) != kind {
			return nil, nil
		}
	}

	switch first.RetentionStrategy().(type) {
	case domain.DemandRetention:
		inDemand, err := strconv.ParseInt(l.commonOrEmpty(setting.InDemandDelay), 10, 64)
		if err != nil {
			inDemand = DefaultInDemandDelay
		}
		idle, err := strconv.ParseInt(l.commonOrEmpty(setting.IdleDelay), 10, 64)
		if err != nil {
			idle = DefaultIdleDelay
		}
		return domain.DemandRetention{InDemandDelay: inDemand, IdleDelay: idle}, nil

	case domain.ScheduledRetention:
		upTime, err := strconv.Atoi(l.commonOrEmpty(setting.UptimeMins))
		if err != nil {
			upTime = DefaultUpTimeMins
		}
		keepUp, ok, _ := l.GetCommon(setting.KeepUpWhenActive)
		if !ok {
			keepUp = DefaultKeepUpWhenActive
		}
		strategy := domain.ScheduledRetention{
			StartTimeSpec:    l.commonOrEmpty(setting.StartTimeSpec),
			UpTimeMins:       upTime,
			KeepUpWhenActive: keepUp == "true",
		}
		if err := strategy.Validate(); err != nil {
			return nil, fmt.Errorf("failed to create retention strategy: %w", err)
		}
		return strategy, nil
	}
	return first.RetentionStrategy(), nil
}

// CommonProperties returns the properties that every slave carries with
// identical content, in the order of the first slave.
func (l NodeList) CommonProperties() ([]domain.NodeProperty, error) {
	first := l.FirstSlave()
	if first == nil {
		return nil, common.ErrEmptyNodeList
	}

	out := []domain.NodeProperty{}
	for _, candidate := range first.Properties() {
		shared := true
		for _, slave := range l.Slaves() {
			if !hasEqualProperty(slave.Properties(), candidate) {
				shared = false
				break
			}
		}
		if shared {
			out = append(out, candidate)
		}
	}
	return out, nil
}

// LauncherDescription explains how the launchers of the list differ. It is
// empty when they are identical.
func (l NodeList) LauncherDescription() (string, error) {
	launcher, err := l.CommonLauncher()
	if err != nil {
		return "", err
	}
	if launcher == nil {
		return "The slaves use different launch methods", nil
	}

	switch launcher.(type) {
	case domain.ServiceLauncher:
		return differences(map[string]bool{
			"usernames": l.diverges(setting.Username),
			"passwords": l.diverges(setting.Password),
		}, "usernames", "passwords"), nil
	case domain.CommandLauncher:
		return differences(map[string]bool{
			"launch commands": l.diverges(setting.LaunchCommand),
		}, "launch commands"), nil
	case domain.JNLPLauncher:
		return differences(map[string]bool{
			"tunnels":     l.diverges(setting.Tunnel),
			"JVM options": l.diverges(setting.VMArgs),
		}, "tunnels", "JVM options"), nil
	}
	return "Unable to compare the launch methods", nil
}

// RetentionDescription explains how the retention strategies of the list
// differ. It is empty when they are identical.
func (l NodeList) RetentionDescription() (string, error) {
	first := l.FirstSlave()
	if first == nil {
		return "", common.ErrEmptyNodeList
	}
	kind := domain.RetentionKindOf(first.RetentionStrategy())
	for _, slave := range l.Slaves() {
		if domain.RetentionKindOf(slave.RetentionStrategy()) != kind {
			return "The slaves use different availability strategies", nil
		}
	}

	switch kind {
	case domain.RetentionDemand:
		return differences(map[string]bool{
			"in demand delays": l.diverges(setting.InDemandDelay),
			"idle delays":      l.diverges(setting.IdleDelay),
		}, "in demand delays", "idle delays"), nil
	case domain.RetentionScheduled:
		return differences(map[string]bool{
			"startup schedules":        l.diverges(setting.StartTimeSpec),
			"scheduled uptimes":        l.diverges(setting.UptimeMins),
			"keep online while in use": l.diverges(setting.KeepUpWhenActive),
		}, "startup schedules", "scheduled uptimes", "keep online while in use"), nil
	case domain.RetentionAlways:
		return "", nil
	}
	return "Unable to compare the availability strategies", nil
}

func (l NodeList) commonOrEmpty(s setting.Setting) string {
	v, ok, err := l.GetCommon(s)
	if err != nil || !ok {
		return ""
	}
	return v
}

func (l NodeList) diverges(s setting.Setting) bool {
	_, ok, err := l.GetCommon(s)
	return err != nil || !ok
}

// differences renders the diverging fields in order, for example
// "The slaves have different usernames and passwords".
func differences(diverging map[string]bool, order ...string) string {
	var fields []string
	for _, name := range order {
		if diverging[name] {
			fields = append(fields, name)
		}
	}
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return "The slaves have different " + fields[0]
	}
	last := len(fields) - 1
	text := "The slaves have different " + fields[0]
	for _, f := range fields[1:last] {
		text += ", " + f
	}
	return text + " and " + fields[last]
}

func hasEqualProperty(props []domain.NodeProperty, p domain.NodeProperty) bool {
	for _, q := range props {
		if domain.PropertiesEqual(p, q) {
			return true
		}
	}
	return false
}
