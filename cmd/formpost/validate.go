package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/formpost/config"
)

// newValidateCmd validates a config file without sending any request.
func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		Long: `Validate a formpost configuration file without sending any request.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  formpost validate -c config.yaml
  formpost validate --config /etc/formpost/config.yaml`,
		RunE: runValidate,
	}

	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Default timeout: %s\n", cfg.DefaultTimeout.Duration())
	acquire := "request timeout"
	if d := cfg.Pool.AcquireTimeout.Duration(); d > 0 {
		acquire = d.String()
	}
	fmt.Fprintf(out, "  Pool:            %d total, %d per route, acquire wait %s\n",
		cfg.Pool.MaxTotal, cfg.Pool.MaxPerRoute, acquire)
	fmt.Fprintf(out, "  Concurrency:     %d\n", cfg.Concurrency)
	fmt.Fprintf(out, "  Requests:        %d\n", len(cfg.Requests))

	return nil
}
