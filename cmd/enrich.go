package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sells-group/identity-resolver/internal/model"
)

var (
	enrichTenant    string
	enrichCandidate string
	enrichRole      string
)

// enrichCmd runs one resolution synchronously against the configured store
// and prints the completed EnrichmentSession as JSON, for ad hoc operator
// use and local debugging without standing up the HTTP API or a queue
// worker (the discovery.Runner it drives is identical either way).
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Resolve one candidate's identity candidates synchronously and print the session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if enrichTenant == "" || enrichCandidate == "" {
			return fmt.Errorf("--tenant and --candidate are required")
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		req := model.JobRequest{
			SessionID:   uuid.NewString(),
			TenantID:    enrichTenant,
			CandidateID: enrichCandidate,
			JobType:     model.JobEnrich,
			RoleType:    model.RoleType(enrichRole),
		}

		session, err := env.Runner.Run(ctx, req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(session)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichTenant, "tenant", "", "tenant id owning the candidate")
	enrichCmd.Flags().StringVar(&enrichCandidate, "candidate", "", "candidate id to resolve")
	enrichCmd.Flags().StringVar(&enrichRole, "role", "", "role type hint (engineer, data_scientist, researcher, founder, designer, general)")
	rootCmd.AddCommand(enrichCmd)
}
