package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sells-group/identity-resolver/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "idresolver",
	Short: "LinkedIn candidate identity-resolution engine",
	Long:  "Resolves a LinkedIn candidate seed into ranked, evidence-scored platform identity candidates via hint extraction, query planning, and rate-limited multi-platform discovery.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if v, _ := cmd.Flags().GetBool("replay"); v {
			cfg.Replay.Enabled = true
		}
		if v, _ := cmd.Flags().GetBool("commit-evidence"); v {
			cfg.Flags.CommitEvidence = true
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("replay", false, "intercept the search executor with deterministic fixture results")
	_ = viper.BindPFlag("replay.enabled", rootCmd.PersistentFlags().Lookup("replay"))

	rootCmd.PersistentFlags().Bool("commit-evidence", false, "gather up to N recent non-fork commit pointers as GitHub bridge evidence (opt-in)")
	_ = viper.BindPFlag("flags.commit_evidence", rootCmd.PersistentFlags().Lookup("commit-evidence"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
