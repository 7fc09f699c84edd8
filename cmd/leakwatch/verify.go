package leakwatch

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/leakwatch/leakwatch/internal/ghsearch"
)

func init() {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check each configured GitHub credential against the API",
		RunE:  runVerify,
	}
	rootCmd.AddCommand(cmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	creds := credentialsFrom(cfg)
	if len(creds) == 0 {
		return ghsearch.ErrNoCredentials
	}

	failed := 0
	for _, cred := range creds {
		ok, status := ghsearch.Verify(cmd.Context(), cred)
		fmt.Fprintf(os.Stdout, "%s: %s\n", cred.ID, status)
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d credentials failed", failed, len(creds))
	}
	return nil
}
