package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/goldenreps/internal/rep"
	"github.com/ayusman/goldenreps/internal/store"
)

var historyLimit int

var bestCmd = &cobra.Command{
	Use:   "best",
	Short: "Print the best session",
	RunE:  runBestCmd,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sessions",
	RunE:  runHistoryCmd,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of sessions to show")
}

func runBestCmd(cmd *cobra.Command, args []string) error {
	st, err := store.New(current.cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	best, err := st.Settings().BestSession(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Best session: %d reps\n", best)
	return nil
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	st, err := store.New(current.cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.Sessions().List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions yet.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tREPS\tDURATION\tRATE\tBEST")
	for _, s := range sessions {
		snap := rep.Snapshot{ElapsedSeconds: s.ElapsedSeconds, Rate: s.Rate}
		duration := "running"
		if s.Finished() {
			duration = snap.Duration()
		}
		mark := ""
		if s.NewBest {
			mark = "★"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			s.StartedAt.Local().Format("2006-01-02 15:04"), s.Reps, duration, snap.RateString(), mark)
	}
	return tw.Flush()
}
