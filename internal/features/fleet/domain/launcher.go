package domain

// LauncherKind identifies a launcher variant
type LauncherKind string

// Launcher variants
const (
	LauncherCommand LauncherKind = "command"
	LauncherService LauncherKind = "service"
	LauncherJNLP    LauncherKind = "jnlp"
)

// Launcher describes how the worker process of a slave is started. The set
// of variants is closed: CommandLauncher, ServiceLauncher and JNLPLauncher.
type Launcher interface {
	Kind() LauncherKind
	isLauncher()
}

// CommandLauncher starts the agent by running a command on the master
type CommandLauncher struct {
	Command string
}

// ServiceLauncher installs the agent as a managed Windows service
type ServiceLauncher struct {
	Username string
	Password string
}

// JNLPLauncher waits for the agent to connect over the network
type JNLPLauncher struct {
	Tunnel string
	VMArgs string
}

func (CommandLauncher) Kind() LauncherKind { return LauncherCommand }
func (ServiceLauncher) Kind() LauncherKind { return LauncherService }
func (JNLPLauncher) Kind() LauncherKind    { return LauncherJNLP }

func (CommandLauncher) isLauncher() {}
func (ServiceLauncher) isLauncher() {}
func (JNLPLauncher) isLauncher()    {}

// LauncherKindOf returns the kind of l, or "" for nil
func LauncherKindOf(l Launcher) LauncherKind {
	if l == nil {
		return ""
	}
	return l.Kind()
}
