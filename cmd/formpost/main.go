// Package main is the entry point for the formpost CLI.
//
// formpost can be used as a library (SDK) or through this binary, which
// sends one-off posts or a batch of posts described by a YAML config file.
//
// Usage:
//
//	formpost post https://api.example.com/check -d 'a=1&b=2'   # Send one post
//	formpost run -c formpost.yaml                              # Send every configured post
//	formpost validate -c formpost.yaml                         # Validate configuration
//	formpost version                                           # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the base command and registers every subcommand.
// It just displays help when called without a subcommand.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "formpost",
		Short: "Send form-encoded HTTP POST requests through a pooled client",
		Long: `formpost sends application/x-www-form-urlencoded POST requests through a
bounded connection pool and prints the response body.

Quick start:
  formpost post https://httpbin.org/post -p name=alice -p id=42

Batch mode:
  1. Create a config file (formpost.yaml)
  2. Run: formpost run -c formpost.yaml

Example config:
  default_timeout: 60s
  pool:
    max_per_route: 10
  requests:
    - name: fraud-check
      url: https://api.example.com/check
      params:
        appName: mobile`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newPostCmd(),
		newRunCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

// newVersionCmd prints version information.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this formpost binary.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "formpost %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
