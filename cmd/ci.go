package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/trace"
)

var (
	ciBaselineSessions  string
	ciCandidateSessions string
	ciAutoMergeCorrect  int
	ciTier1Expected     int
)

// ciCmd runs the non-regression gate of spec.md §4.7 over two labeled
// batches of already-completed sessions (baseline vs candidate), grounded
// on the teacher's `internal/ci` coverage-threshold checker and its
// cmd-level "coverage" command wiring.
var ciCmd = &cobra.Command{
	Use:   "ci",
	Short: "Check a candidate run batch against a baseline for auto-merge/tier-1/persisted-rate regression",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if ciBaselineSessions == "" || ciCandidateSessions == "" {
			return fmt.Errorf("--baseline and --candidate session id lists are required")
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		baselineTraces, err := loadTraces(ctx, env, ciBaselineSessions)
		if err != nil {
			return err
		}
		candidateTraces, err := loadTraces(ctx, env, ciCandidateSessions)
		if err != nil {
			return err
		}

		baseline := trace.FromTraces(baselineTraces, ciAutoMergeCorrect, ciTier1Expected)
		candidate := trace.FromTraces(candidateTraces, ciAutoMergeCorrect, ciTier1Expected)

		pass, reasons := trace.Gate(baseline, candidate, trace.DefaultThresholds())
		out := cmd.OutOrStdout()
		if pass {
			fmt.Fprintln(out, "PASS: no regression detected")
			return nil
		}
		fmt.Fprintln(out, "FAIL: regression detected")
		for _, r := range reasons {
			fmt.Fprintln(out, " -", r)
		}
		return fmt.Errorf("ci gate failed: %d regression(s)", len(reasons))
	},
}

func loadTraces(ctx context.Context, env *engineEnv, idList string) ([]model.RunTrace, error) {
	var traces []model.RunTrace
	for _, id := range strings.Split(idList, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		session, err := env.Store.GetSession(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("ci: load session %s: %w", id, err)
		}
		if session.RunTrace != nil {
			traces = append(traces, *session.RunTrace)
		}
	}
	return traces, nil
}

func init() {
	ciCmd.Flags().StringVar(&ciBaselineSessions, "baseline", "", "comma-separated baseline session ids")
	ciCmd.Flags().StringVar(&ciCandidateSessions, "candidate", "", "comma-separated candidate session ids")
	ciCmd.Flags().IntVar(&ciAutoMergeCorrect, "auto-merge-correct", 0, "labeled count of correct auto-merge identities in the corpus")
	ciCmd.Flags().IntVar(&ciTier1Expected, "tier1-expected", 0, "labeled count of expected tier-1 bridges in the corpus")
	rootCmd.AddCommand(ciCmd)
}
