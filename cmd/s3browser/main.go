// Command s3browser runs the s3browser gateway: a single-user,
// password-gated HTTP server in front of one or more S3-compatible object
// stores.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Registers the Prometheus implementation of pkg/metrics.S3Metrics.
	_ "github.com/andrewtheguy/s3browser-sub000/pkg/metrics/prometheus"
)

var (
	bindAddr             string
	metricsEnabled       bool
	seedTestItemsEnabled bool
	logLevel             string
	logFormat            string
)

var rootCmd = &cobra.Command{
	Use:   "s3browser",
	Short: "s3browser is a password-gated HTTP gateway in front of S3-compatible object stores",
	Long: `s3browser mediates every S3 call server-side: it owns the credentials for
each saved connection, authenticates a single shared login password, and
exposes a REST/JSON API that a browser UI drives.

Secrets are read from ~/.s3browser/encryption.key and
~/.s3browser/login.password (mode 0600), or from S3BROWSER_ENCRYPTION_KEY
and S3BROWSER_LOGIN_PASSWORD, which take precedence when set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.Flags().StringVar(&bindAddr, "bind", "127.0.0.1:3001", "address to listen on")
	rootCmd.Flags().BoolVar(&metricsEnabled, "metrics", true, "expose Prometheus metrics at GET /metrics")
	rootCmd.Flags().BoolVar(&seedTestItemsEnabled, "seed-test-items", false, "register the benchmarking seed-test-items endpoint (absent by default, per spec.md §4.6)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
