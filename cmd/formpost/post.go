package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/formpost"
	"github.com/jpalmerr/formpost/config"
)

// newPostCmd sends a single form POST and prints the response body.
func newPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post URL",
		Short: "Send one form POST and print the response body",
		Long: `Send one application/x-www-form-urlencoded POST to URL and print the
response body to stdout.

Parameters can be given as a query string (--data), a JSON object (--json)
or repeated key=value pairs (--param). They are merged in that order.
The body is printed exactly as received, whatever the HTTP status code.

A config file (--config) is optional; when given, its pool, header, timeout
and log settings are used.

Example:
  formpost post https://api.example.com/check -d 'appName=mobile&eventId=test'
  formpost post https://api.example.com/check -j '{"user":{"id":42}}' -t 5s
  formpost post https://api.example.com/check -p appName=mobile -p invokeType=10`,
		Args: cobra.ExactArgs(1),
		RunE: runPost,
	}

	cmd.Flags().StringP("data", "d", "", "query-string encoded parameters (a=1&b[c]=2)")
	cmd.Flags().StringP("json", "j", "", "parameters as a JSON object")
	cmd.Flags().StringArrayP("param", "p", nil, "parameter as key=value (repeatable)")
	cmd.Flags().DurationP("timeout", "t", 0, "request timeout (0 uses default_timeout)")
	cmd.Flags().StringP("config", "c", "", "path to config file")

	return cmd
}

func runPost(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, _ := cmd.Flags().GetString("data")
	jsonData, _ := cmd.Flags().GetString("json")
	pairs, _ := cmd.Flags().GetStringArray("param")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	values, err := buildParams(data, jsonData, pairs)
	if err != nil {
		return err
	}

	logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Log)

	p, err := formpost.New(config.BuildOptions(cfg, logger, nil)...)
	if err != nil {
		return fmt.Errorf("failed to create poster: %w", err)
	}
	defer p.Close()

	body, err := p.PostValues(cmd.Context(), args[0], values, timeout)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), body)
	return nil
}

// loadConfig loads path, or returns the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
