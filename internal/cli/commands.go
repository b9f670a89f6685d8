package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/nodelist"
	"multislave-config/internal/features/fleet/service"
	"multislave-config/internal/features/fleet/setting"
)

func runSearch(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("search", e.out)
	sel := bindSelection(fs)
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := parse(fs, args); err != nil {
		return err
	}

	m := e.srv.Manager
	sess, err := m.BeginSession(service.ModeConfigure)
	if err != nil {
		return err
	}
	found, err := sel.choose(ctx, m, sess, true)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		return enc.Encode(found.Summaries())
	}

	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEXECUTORS\tLABELS\tREMOTE FS\tDESCRIPTION")
	for _, s := range found.Summaries() {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", s.Name, s.Executors, s.Labels, s.RemoteFS, s.Description)
	}
	return w.Flush()
}

func runCommon(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("common", e.out)
	sel := bindSelection(fs)
	only := fs.String("setting", "", "print only this setting, e.g. LAUNCH_COMMAND")
	if err := parse(fs, args); err != nil {
		return err
	}
	var single setting.Setting
	if *only != "" {
		s, err := setting.Parse(*only)
		if err != nil {
			return err
		}
		single = s
	}

	m := e.srv.Manager
	sess, err := m.BeginSession(service.ModeConfigure)
	if err != nil {
		return err
	}
	nodes, err := sel.choose(ctx, m, sess, false)
	if err != nil {
		return err
	}
	if nodes.IsEmpty() {
		return common.ErrEmptyNodeList
	}

	if single != "" {
		value, ok, err := nodes.GetCommon(single)
		if err != nil {
			return err
		}
		if !ok {
			value = "(differs)"
		}
		_, err = fmt.Fprintln(e.out, value)
		return err
	}

	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "SLAVES\t%s\n", nodes)
	if mode, ok, err := nodes.CommonMode(); err != nil {
		return err
	} else if ok {
		fmt.Fprintf(w, "MODE\t%s\n", mode)
	} else {
		fmt.Fprintln(w, "MODE\t(differs)")
	}

	for _, s := range setting.All {
		value, ok, err := nodes.GetCommon(s)
		switch {
		case common.IsTypeMismatchError(err):
			// not applicable to this launcher or retention strategy
			continue
		case err != nil:
			return err
		case ok:
			fmt.Fprintf(w, "%s\t%s\n", s, value)
		default:
			fmt.Fprintf(w, "%s\t(differs)\n", s)
		}
	}

	launcher, err := nodes.LauncherDescription()
	if err != nil {
		return err
	}
	retention, err := nodes.RetentionDescription()
	if err != nil {
		return err
	}
	for _, msg := range []string{launcher, retention} {
		if msg != "" {
			fmt.Fprintf(w, "NOTE\t%s\n", msg)
		}
	}

	props, err := nodes.CommonProperties()
	if err != nil {
		return err
	}
	kinds := make([]string, 0, len(props))
	for _, p := range props {
		kinds = append(kinds, p.Kind())
	}
	fmt.Fprintf(w, "PROPERTIES\t%s\n", strings.Join(kinds, " "))
	return w.Flush()
}

func runApply(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("apply", e.out)
	sel := bindSelection(fs)
	formPath := fs.String("f", "", "settings form file, - for stdin")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *formPath == "" {
		return fmt.Errorf("apply: -f is required: %w", ErrUsage)
	}

	patch, err := readPatch(*formPath)
	if err != nil {
		return err
	}

	m := e.srv.Manager
	sess, err := m.BeginSession(service.ModeConfigure)
	if err != nil {
		return err
	}
	if _, err := sel.choose(ctx, m, sess, false); err != nil {
		return err
	}

	changed, err := m.Apply(ctx, sess, patch)
	report(e, "Configured", changed, err)
	return err
}

func runCreate(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("create", e.out)
	var req service.CreateRequest
	fs.StringVar(&req.Names, "names", "", "whitespace separated names")
	fs.StringVar(&req.Prefix, "prefix", "", "prefix of numbered names")
	fs.StringVar(&req.First, "first", "", "first number")
	fs.StringVar(&req.Last, "last", "", "last number")
	fs.StringVar(&req.Mode, "mode", service.CreateNew, "new or copy")
	fs.StringVar(&req.CopyFrom, "copy-from", "", "slave to copy")
	fs.BoolVar(&req.ExtendedEnv, "extended-env", false, "follow the source name in every copied field")
	formPath := fs.String("f", "", "settings form applied to the new slaves")
	if err := parse(fs, args); err != nil {
		return err
	}

	patch, err := readPatch(*formPath)
	if err != nil {
		return err
	}

	m := e.srv.Manager
	sess, err := m.BeginSession(service.ModeAdd)
	if err != nil {
		return err
	}
	if _, err := m.Create(ctx, sess, req); err != nil {
		return err
	}

	added, err := m.Apply(ctx, sess, patch)
	report(e, "Added", added, err)
	return err
}

func runDelete(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("delete", e.out)
	sel := bindSelection(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	m := e.srv.Manager
	sess, err := m.BeginSession(service.ModeDelete)
	if err != nil {
		return err
	}
	nodes, err := sel.choose(ctx, m, sess, false)
	if err != nil {
		return err
	}

	err = m.Delete(ctx, sess)
	report(e, "Deleted", nodes, err)
	return err
}

func computerCommand(name string) func(context.Context, *env, []string) error {
	return func(ctx context.Context, e *env, args []string) error {
		fs := newFlagSet(name, e.out)
		sel := bindSelection(fs)
		reason := fs.String("reason", "", "reason shown on the slaves")
		if err := parse(fs, args); err != nil {
			return err
		}

		m := e.srv.Manager
		sess, err := m.BeginSession(service.ModeManage)
		if err != nil {
			return err
		}
		nodes, err := sel.choose(ctx, m, sess, false)
		if err != nil {
			return err
		}

		switch name {
		case "online":
			_, err = m.TakeOnline(ctx, sess)
		case "offline":
			_, err = m.TakeOffline(ctx, sess, *reason)
		case "connect":
			_, err = m.Connect(ctx, sess)
		case "disconnect":
			_, err = m.Disconnect(ctx, sess, *reason)
		}
		report(e, strings.ToUpper(name[:1])+name[1:], nodes, err)
		return err
	}
}

func runComplete(_ context.Context, e *env, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("complete: at most one prefix: %w", ErrUsage)
	}
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}
	for _, name := range e.srv.Manager.AutoCompleteNames(prefix) {
		fmt.Fprintln(e.out, name)
	}
	return nil
}

// report prints the nodes an operation went through. On a partial failure
// the failed nodes are left out.
func report(e *env, verb string, nodes nodelist.NodeList, err error) {
	failed := map[string]bool{}
	var applyErr common.ErrApply
	if errors.As(err, &applyErr) {
		for _, name := range applyErr.FailedNodes() {
			failed[name] = true
		}
		if applyErr.Cause != nil {
			return
		}
	} else if err != nil {
		return
	}

	var done []string
	for _, name := range nodes.Names() {
		if !failed[name] {
			done = append(done, name)
		}
	}
	if len(done) > 0 {
		fmt.Fprintf(e.out, "%s: %s\n", verb, strings.Join(done, " "))
	}
}
