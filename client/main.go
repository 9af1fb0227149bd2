// Dev/test client for browsing and filing pet reports against a backend.
package main

import (
	"fmt"
	"os"

	"petboard/config"
	"petboard/remote"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
)

var cfg *config.Config

func init() {
	log.SetHandler(cli.New(os.Stderr))
	cfg = config.Load()
	cfg.ApplyLogLevel()

	rootCmd.PersistentFlags().String("backend", cfg.BackendURL, "backend base URL")
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(reportCmd)
}

var rootCmd = &cobra.Command{
	Use:   "petboard-client",
	Short: "Browse and file lost and found pet reports",
	Long:  `Command line client for the petboard lost and found backend.`,
}

func newClient(cmd *cobra.Command) (*remote.Client, error) {
	backend, err := cmd.Flags().GetString("backend")
	if err != nil {
		return nil, err
	}
	return remote.NewClient(backend, remote.WithRateLimit(cfg.RequestsPerSecond, 5)), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
