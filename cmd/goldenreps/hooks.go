package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/goldenreps/internal/hook"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "List the installed hooks",
	RunE:  runHooksCmd,
}

func runHooksCmd(cmd *cobra.Command, args []string) error {
	cfg := current.cfg
	out := cmd.OutOrStdout()

	m := hook.NewManager(cfg.Hooks.Dir, current.logger)
	if err := m.Discover(); err != nil {
		return err
	}

	hooks := m.List()
	if len(hooks) == 0 {
		fmt.Fprintf(out, "No hooks in %s\n", m.Dir())
		return nil
	}
	if !cfg.Hooks.Enabled {
		fmt.Fprintln(out, "Hooks are disabled in the configuration.")
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tEVENTS\tDESCRIPTION")
	for _, h := range hooks {
		events := make([]string, len(h.Manifest.Events))
		for i, ev := range h.Manifest.Events {
			events[i] = string(ev)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			h.Manifest.Name, h.Manifest.Version, strings.Join(events, ","), h.Manifest.Description)
	}
	return tw.Flush()
}
