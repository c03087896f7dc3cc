package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync [platform/author]",
	Short: "Synchronise posts from configured sources",
	Long: `Archives new posts from configured sources. The first run for a
source walks the complete listing; later runs stop once they reach
already-archived posts.

With an argument only that source is synchronised, e.g.
"sync sponsr/history" or just "sync history".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	if len(args) > 0 {
		source, err := matchSource(a.sources, args[0])
		if err != nil {
			return err
		}
		stats, err := a.controller.Sync(ctx, source)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		cmd.Printf("%s: %d new, %d already archived\n", source.Name(), stats.Fetched, stats.Skipped)
		return nil
	}

	results := a.controller.SyncAll(ctx)
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			cmd.Printf("%s: failed: %v\n", res.Source.Name(), res.Err)
			continue
		}
		cmd.Printf("%s: %d new, %d already archived\n", res.Source.Name(), res.Stats.Fetched, res.Stats.Skipped)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(results))
	}
	return nil
}

// matchSource finds a configured source by "platform/author" or by the
// author alone when unambiguous.
func matchSource(sources []domain.Source, arg string) (domain.Source, error) {
	var matches []domain.Source
	for _, s := range sources {
		if arg == string(s.Platform)+"/"+s.Author || arg == s.Author {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return domain.Source{}, fmt.Errorf("%w: no configured source %q", domain.ErrNotFound, arg)
	default:
		var names []string
		for _, s := range matches {
			names = append(names, string(s.Platform)+"/"+s.Author)
		}
		return domain.Source{}, errors.New("ambiguous source, use one of: " + strings.Join(names, ", "))
	}
}
