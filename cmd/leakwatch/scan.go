package leakwatch

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leakwatch/leakwatch/internal/audit"
	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/leakwatch/leakwatch/internal/engine"
	"github.com/leakwatch/leakwatch/internal/report"
	"github.com/leakwatch/leakwatch/internal/rules"
	"github.com/leakwatch/leakwatch/internal/update"
)

var (
	flagRules       string
	flagPages       int
	flagPageTimeout time.Duration
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [category ...]",
		Short: "Run the configured rules against GitHub code search",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagRules, "rules", "", "rules file (default from config)")
	cmd.Flags().IntVar(&flagPages, "pages", 0, "search page budget per query (0 = config default)")
	cmd.Flags().DurationVar(&flagPageTimeout, "page-timeout", 0, "per-page fetch timeout (0 = config default)")
}

func runScan(cmd *cobra.Command, args []string) error {
	if !flagNoUpdateCheck {
		if latest, newer, _ := update.Check(version, false); newer && latest != "" {
			fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'leakwatch --self-update' to upgrade\n", latest)
		}
	}
	if flagSelfUpdate {
		if err := selfUpdate(); err == nil {
			fmt.Fprintln(os.Stderr, "updated to latest; re-run command")
			return nil
		}
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ruleSet, err := rules.Load(pickString(flagRules, cfg.Rules()), args)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	res, err := engine.Scan(cmd.Context(), engine.Config{
		Credentials:         credentialsFrom(cfg),
		Rules:               ruleSet,
		Pages:               pickInt(flagPages, cfg.Pages()),
		Workers:             pickInt(flagWorkers, cfg.Workers()),
		PageTimeout:         pickDuration(flagPageTimeout, cfg.PageTimeout()),
		ProbeTimeout:        cfg.ProbeTimeout(),
		MailIgnoreHosts:     cfg.Mail.IgnoreHosts,
		ExcludeRepositories: cfg.Exclude.Repositories,
		ExcludeContents:     cfg.Exclude.Contents,
		StateDir:            cfg.StateDir(),
	})
	if err != nil {
		return err
	}

	report.PrintOutcomes(os.Stdout, res.Outcomes, res.Summary, report.PrintOptions{
		NoColor:  flagNoColor,
		Duration: res.Duration,
	})

	runLog := audit.NewRunLog(cfg.StateDir())
	record := audit.CreateRunRecord(args, len(ruleSet), res.Outcomes, res.Duration)
	if err := runLog.LogRun(record); err != nil {
		fmt.Fprintln(os.Stderr, "audit warning:", err)
	}
	if err := runLog.AppendRunData(res.Outcomes); err != nil {
		fmt.Fprintln(os.Stderr, "audit warning:", err)
	}

	if res.Summary.Failed > 0 {
		os.Exit(1)
	}
	return nil
}
