package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/goldenreps/internal/replay"
)

var (
	replayThreshold float64
	replayJSON      bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <recording.jsonl>",
	Short: "Count reps in a recorded pose session",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplayCmd,
}

func init() {
	replayCmd.Flags().Float64Var(&replayThreshold, "threshold", 0, "phase change threshold in pixels (default from config)")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "print the result as JSON")
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	opts := replay.Options{
		Threshold:      current.cfg.Detector.Threshold,
		ConfidenceGate: current.cfg.Detector.ConfidenceGate,
	}
	if replayThreshold > 0 {
		opts.Threshold = replayThreshold
	}

	res, err := replay.RunFile(args[0], opts)
	if err != nil {
		return err
	}
	current.logger.Debug("replay finished", zap.String("file", args[0]), zap.Int("frames", res.Frames))

	out := cmd.OutOrStdout()
	if replayJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(out, "Frames:    %d (%d without a person, %d below confidence)\n", res.Frames, res.NoPose, res.NoSignal)
	fmt.Fprintf(out, "Reps:      %d\n", res.Reps)
	for _, m := range res.Milestones {
		fmt.Fprintf(out, "Milestone: %d at %.1fs  %s\n", m.Count, float64(m.TimeMs)/1000, m.Message)
	}
	fmt.Fprintf(out, "Duration:  %s\n", res.Stats.Duration())
	fmt.Fprintf(out, "Rate:      %s reps/min\n", res.Stats.RateString())
	return nil
}
