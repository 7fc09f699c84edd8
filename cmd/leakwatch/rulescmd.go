package leakwatch

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/leakwatch/leakwatch/internal/report"
	"github.com/leakwatch/leakwatch/internal/rules"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rules [category ...]",
		Short: "List the rules a scan would run, after category filtering",
		RunE:  runRules,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagRules, "rules", "", "rules file (default from config)")
}

func runRules(_ *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ruleSet, err := rules.Load(pickString(flagRules, cfg.Rules()), args)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	return report.PrintRules(os.Stdout, ruleSet)
}
