// Package main is the entry point for the askctl CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	jsonOut   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "askctl",
	Short: "Question-answering pipeline CLI",
	Long: `askctl talks to a running answer-pipeline server and provides local
pipeline introspection helpers.

Example usage:
  askctl ask "do we have a case study for fintech?"
  askctl classify "how many proposals do we have?"
  askctl batch questions.txt --parallel 4`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("ASKCTL_SERVER", "http://localhost:9020"), "answer-pipeline server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
