// Package cli wires the adapters together and exposes the command-line
// interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/strannick-ru/article-backup/internal/logger"
)

var (
	// version is injected by main.
	version = "dev"

	// configPath is the --config flag value.
	configPath string

	// verbose is the --verbose flag value.
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "article-backup",
	Short: "Archive posts from creator platforms",
	Long: `article-backup keeps a local markdown archive of posts from
creator platforms (sponsr.ru, boosty.to): it syncs new posts
incrementally, downloads their media and rewrites links between
archived posts so the archive browses offline.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// Execute runs the CLI.
func Execute(v string) error {
	version = v
	return rootCmd.Execute()
}
