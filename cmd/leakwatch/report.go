package leakwatch

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leakwatch/leakwatch/internal/audit"
	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/leakwatch/leakwatch/internal/report"
	"github.com/leakwatch/leakwatch/internal/store"
)

var (
	flagHistory      bool
	flagHistoryLimit int
)

func init() {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show stored finding counts or past run history",
		RunE:  runReport,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().BoolVar(&flagHistory, "history", false, "show past runs instead of finding counts")
	cmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "max history entries to show")
}

func runReport(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if flagHistory {
		records, err := audit.NewRunLog(cfg.StateDir()).LoadHistory()
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		if flagHistoryLimit > 0 && len(records) > flagHistoryLimit {
			records = records[:flagHistoryLimit]
		}
		return report.PrintHistory(os.Stdout, records)
	}

	db, err := store.Open(cfg.StateDir())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	counts, err := db.CountByRule()
	if err != nil {
		return fmt.Errorf("count findings: %w", err)
	}
	return report.PrintFindingCounts(os.Stdout, counts)
}
