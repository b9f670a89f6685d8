// Package cli implements the multislave command line.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"

	"multislave-config/cmd/app"
	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/nodelist"
	"multislave-config/internal/features/fleet/search"
	"multislave-config/internal/features/fleet/service"
	"multislave-config/internal/server"
)

// ErrUsage is returned for an unknown command or bad flags
var ErrUsage = errors.New("usage error")

type env struct {
	srv *server.Server
	out io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"search":     {"list slaves matching the criteria", runSearch},
	"common":     {"show the settings shared by the selected slaves", runCommon},
	"apply":      {"apply a settings form to the selected slaves", runApply},
	"create":     {"create new slaves, blank or copied", runCreate},
	"delete":     {"delete the selected slaves", runDelete},
	"online":     {"take the selected slaves back online", computerCommand("online")},
	"offline":    {"mark the selected slaves temporarily offline", computerCommand("offline")},
	"connect":    {"launch the agents of the selected slaves", computerCommand("connect")},
	"disconnect": {"drop the agent connections of the selected slaves", computerCommand("disconnect")},
	"complete":   {"list slave names starting with a prefix", runComplete},
}

// Run executes the command named by args[0] against the configured
// registry. Output goes to out, logs to the logger carried by ctx.
func Run(ctx context.Context, cfg *app.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return ErrUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(out)
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}

	srv, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}

	runErr := cmd.run(ctx, &env{srv: srv, out: out}, args[1:])
	if err := srv.Close(); err != nil {
		common.LoggerFromContext(ctx).Warn("Failed to write metrics", "error", err)
	}
	return runErr
}

func usage(out io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "usage: multislave [-config file] <command> [flags]")
	fmt.Fprintln(out, "commands:")
	for _, name := range names {
		fmt.Fprintf(out, "  %-11s %s\n", name, commands[name].summary)
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %v: %w", fs.Name(), err, ErrUsage)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%s: unexpected arguments %v: %w", fs.Name(), fs.Args(), ErrUsage)
	}
	return nil
}

// selection picks nodes either by explicit names or by search criteria
type selection struct {
	nodes    string
	criteria map[string]*string
}

func bindSelection(fs *flag.FlagSet) *selection {
	s := &selection{criteria: make(map[string]*string)}
	fs.StringVar(&s.nodes, "nodes", "", "whitespace separated slave names")
	for _, field := range []string{search.FieldName, search.FieldDescription, search.FieldLabels, search.FieldRemoteFS, search.FieldExecutors} {
		s.criteria[field] = fs.String(field, "", "search by "+field)
	}
	return s
}

func (s *selection) searchCriteria() search.Criteria {
	criteria := search.Criteria{}
	for field, value := range s.criteria {
		if *value != "" {
			criteria[field] = *value
		}
	}
	return criteria
}

// choose makes the selection the nodes of sess. A selection without names
// searches; an empty result is an error unless allowEmpty.
func (s *selection) choose(ctx context.Context, m *service.Manager, sess *service.Session, allowEmpty bool) (nodelist.NodeList, error) {
	if names := strings.Fields(s.nodes); len(names) > 0 {
		return m.Select(sess, names)
	}
	found, err := m.Search(ctx, sess, s.searchCriteria())
	if err != nil {
		return nil, err
	}
	if len(found) == 0 && !allowEmpty {
		return nil, common.ErrNoSelectedNodes
	}
	return found, nil
}

// readForm loads a form document. YAML and JSON are both accepted.
func readForm(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read form %s: %w", path, err)
	}

	form := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &form); err != nil {
		return nil, common.InvalidInputError("form %s: %v", path, err)
	}
	return form, nil
}

func readPatch(path string) (nodelist.SettingsPatch, error) {
	form, err := readForm(path)
	if err != nil || form == nil {
		return nodelist.SettingsPatch{}, err
	}
	return nodelist.InterpretForm(form)
}
