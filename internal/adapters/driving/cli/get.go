package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <post-url>",
	Short: "Archive a single post by URL",
	Long: `Archives one post without walking the listing or touching the
sync checkpoint. The URL must be a sponsr.ru or boosty.to post URL.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.controller.DownloadSingle(context.Background(), args[0]); err != nil {
		return fmt.Errorf("get failed: %w", err)
	}
	cmd.Printf("archived %s\n", args[0])
	return nil
}
