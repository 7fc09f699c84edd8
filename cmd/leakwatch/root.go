package leakwatch

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagConfig        string
	flagWorkers       int
	flagNoColor       bool
	flagDebug         bool
	flagNoUpdateCheck bool
	flagSelfUpdate    bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the leakwatch CLI.
var rootCmd = &cobra.Command{
	Use:           "leakwatch",
	Short:         "Watch GitHub for leaked sensitive information",
	Long:          "Leakwatch runs rule-driven GitHub code searches and reports files that leak internal hosts, credentials or mail addresses.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := zerolog.InfoLevel
		if flagDebug {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: flagNoColor})
	},
}

// Execute runs the leakwatch CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: config.yml in the config dir)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "concurrent rule sessions (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
	rootCmd.PersistentFlags().BoolVar(&flagSelfUpdate, "self-update", false, "update leakwatch to the latest release")
}
