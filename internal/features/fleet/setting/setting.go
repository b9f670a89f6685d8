// Package setting enumerates the string-valued settings that can be read
// off a slave and compared across a selection.
package setting

import (
	"strconv"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
)

// Setting is one comparable attribute of a slave
type Setting string

// Settings
const (
	Labels           Setting = "LABELS"
	Description      Setting = "DESCRIPTION"
	NumExecutors     Setting = "NUM_EXECUTORS"
	RemoteFS         Setting = "REMOTE_FS"
	LaunchCommand    Setting = "LAUNCH_COMMAND"
	Password         Setting = "PASSWORD_STRING"
	Username         Setting = "USERNAME"
	Tunnel           Setting = "TUNNEL"
	VMArgs           Setting = "VM_ARGS"
	IdleDelay        Setting = "IDLE_DELAY"
	InDemandDelay    Setting = "IN_DEMAND_DELAY"
	KeepUpWhenActive Setting = "KEEP_UP_WHEN_ACTIVE"
	StartTimeSpec    Setting = "START_TIME_SPEC"
	UptimeMins       Setting = "UPTIME_MINS"
)

// All lists every setting in declaration order
var All = []Setting{
	Labels, Description, NumExecutors, RemoteFS,
	LaunchCommand, Password, Username, Tunnel, VMArgs,
	IdleDelay, InDemandDelay, KeepUpWhenActive, StartTimeSpec, UptimeMins,
}

// Parse looks a setting up by its name
func Parse(name string) (Setting, error) {
	for _, s := range All {
		if string(s) == name {
			return s, nil
		}
	}
	return "", common.InvalidInputError("unknown setting %q", name)
}

// Value reads s off slave. Launcher and retention settings require the
// matching variant; any other variant yields ErrTypeMismatch.
func Value(s Setting, slave *domain.Slave) (string, error) {
	switch s {
	case Labels:
		return slave.LabelString(), nil
	case Description:
		return slave.NodeDescription(), nil
	case NumExecutors:
		return strconv.Itoa(slave.NumExecutors()), nil
	case RemoteFS:
		return slave.RemoteFS(), nil
	case LaunchCommand, Password, Username, Tunnel, VMArgs:
		return launcherValue(s, slave.Launcher())
	case IdleDelay, InDemandDelay, KeepUpWhenActive, StartTimeSpec, UptimeMins:
		return retentionValue(s, slave.RetentionStrategy())
	default:
		return "", common.InvalidInputError("unknown setting %q", string(s))
	}
}

func launcherValue(s Setting, l domain.Launcher) (string, error) {
	switch v := l.(type) {
	case domain.CommandLauncher:
		if s == LaunchCommand {
			return v.Command, nil
		}
	case domain.ServiceLauncher:
		switch s {
		case Username:
			return v.Username, nil
		case Password:
			return v.Password, nil
		}
	case domain.JNLPLauncher:
		switch s {
		case Tunnel:
			return v.Tunnel, nil
		case VMArgs:
			return v.VMArgs, nil
		}
	}
	return "", common.NewTypeMismatchError(string(s), string(requiredLauncher(s)), string(domain.LauncherKindOf(l)))
}

func retentionValue(s Setting, r domain.RetentionStrategy) (string, error) {
	switch v := r.(type) {
	case domain.DemandRetention:
		switch s {
		case IdleDelay:
			return strconv.FormatInt(v.IdleDelay, 10), nil
		case InDemandDelay:
			return strconv.FormatInt(v.InDemandDelay, 10), nil
		}
	case domain.ScheduledRetention:
		switch s {
		case KeepUpWhenActive:
			return strconv.FormatBool(v.KeepUpWhenActive), nil
		case StartTimeSpec:
			return v.StartTimeSpec, nil
		case UptimeMins:
			return strconv.Itoa(v.UpTimeMins), nil
		}
	}
	return "", common.NewTypeMismatchError(string(s), string(requiredRetention(s)), string(domain.RetentionKindOf(r)))
}

func requiredLauncher(s Setting) domain.LauncherKind {
	switch s {
	case LaunchCommand:
		return domain.LauncherCommand
	case Username, Password:
		return domain.LauncherService
	default:
		return domain.LauncherJNLP
	}
}

func requiredRetention(s Setting) domain.RetentionKind {
	switch s {
	case IdleDelay, InDemandDelay:
		return domain.RetentionDemand
	default:
		return domain.RetentionScheduled
	}
}
