package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cybersaathi/cybersaathi/internal/audit"
)

var auditJSON bool

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Summarize the PII redaction log",
	Long:  "Aggregates the append-only redaction log into event and per-kind totals. The log holds counts and kinds only, so the summary cannot reveal what was redacted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := audit.ReadStats(cfg.Audit.Path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if auditJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		fmt.Fprintf(out, "Events:     %d\n", stats.Events)
		fmt.Fprintf(out, "Redactions: %d\n", stats.Redactions)
		if len(stats.ByType) > 0 {
			fmt.Fprintln(out, "By kind:")
			for kind, n := range stats.ByType {
				fmt.Fprintf(out, "  %-15s %d\n", kind, n)
			}
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(auditCmd)
}
