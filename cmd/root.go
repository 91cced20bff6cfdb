package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cybersaathi/cybersaathi/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cybersaathi",
	Short: "Privacy-preserving legal question answering for Pakistani cyber law",
	Long:  "Answers questions about Pakistani cyber law. Queries are scrubbed of personal information before any external service is contacted; answers are grounded in an indexed law corpus or, for current events, web search.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
