package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
	"github.com/strannick-ru/article-backup/internal/core/ports/driving"
	"github.com/strannick-ru/article-backup/internal/logger"
)

// Ensure SyncController implements the interface.
var _ driving.SyncRunner = (*SyncController)(nil)

// SyncController drives archive runs: full on first contact, incremental
// once a full pass has completed. A post's unit of work ends with the
// index commit, so an interrupted run never leaves a post half-archived
// from the controller's point of view.
type SyncController struct {
	sources      []domain.Source
	factory      driven.ConnectorFactory
	registry     driven.NormaliserRegistry
	renderer     driven.Renderer
	writer       driven.ArchiveWriter
	index        driven.Index
	linkFixer    driving.LinkFixer
	newResolver  driven.AssetResolverFactory
	safetyChunks int
}

// NewSyncController creates the controller. safetyChunks below 1 is
// raised to 1.
func NewSyncController(
	sources []domain.Source,
	factory driven.ConnectorFactory,
	registry driven.NormaliserRegistry,
	renderer driven.Renderer,
	writer driven.ArchiveWriter,
	index driven.Index,
	linkFixer driving.LinkFixer,
	newResolver driven.AssetResolverFactory,
	safetyChunks int,
) *SyncController {
	if safetyChunks < 1 {
		safetyChunks = 1
	}
	return &SyncController{
		sources:      sources,
		factory:      factory,
		registry:     registry,
		renderer:     renderer,
		writer:       writer,
		index:        index,
		linkFixer:    linkFixer,
		newResolver:  newResolver,
		safetyChunks: safetyChunks,
	}
}

// SyncAll runs every configured source in order. A failing source does
// not stop the remaining ones.
func (c *SyncController) SyncAll(ctx context.Context) []driving.SourceResult {
	results := make([]driving.SourceResult, 0, len(c.sources))
	for _, source := range c.sources {
		stats, err := c.Sync(ctx, source)
		if err != nil {
			logger.Warn("sync failed for %s: %v", source.Name(), err)
		}
		results = append(results, driving.SourceResult{Source: source, Stats: stats, Err: err})
	}
	return results
}

// Sync runs one author's pass. Incremental mode walks the newest-first
// listing and stops after safetyChunks consecutive pages with no new
// posts; full mode walks to the end and then marks the checkpoint.
func (c *SyncController) Sync(ctx context.Context, source domain.Source) (driving.Stats, error) {
	var stats driving.Stats
	fail := func(err error) (driving.Stats, error) {
		return stats, fmt.Errorf("sync %s/%s: %w", source.Platform, source.Author, err)
	}

	// 1. Connector for this source
	conn, err := c.factory.Create(ctx, source)
	if err != nil {
		return fail(err)
	}
	defer conn.Close()

	if err := conn.Validate(ctx); err != nil {
		return fail(err)
	}

	// 2. Section scaffolding before the first post lands
	if err := c.writer.EnsureSectionIndexes(source); err != nil {
		return fail(err)
	}

	// 3. Mode from the checkpoint
	state, err := c.index.GetSyncState(ctx, source.Platform, source.Author)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fail(err)
	}
	incremental := state != nil && state.FullSyncComplete
	if incremental {
		logger.Info("incremental sync for %s", source.Name())
	} else {
		logger.Info("full sync for %s", source.Name())
	}

	// 4. Walk the listing newest first
	resolver := c.resolverFor(conn)
	caps := conn.Capabilities()
	token := ""
	cleanChunks := 0

	for {
		page, err := conn.ListPage(ctx, token)
		if err != nil {
			return fail(err)
		}

		pageHadNew := false
		for i := range page.Posts {
			raw := &page.Posts[i]

			known, err := c.index.Exists(ctx, raw.Platform, raw.Author, raw.ID)
			if err != nil {
				return fail(err)
			}
			if known {
				stats.Skipped++
				continue
			}
			pageHadNew = true

			if err := c.processPost(ctx, conn, caps, source, resolver, raw); err != nil {
				if errors.Is(err, domain.ErrMalformedPayload) {
					logger.Warn("skipping malformed post %s/%s/%s: %v", raw.Platform, raw.Author, raw.ID, err)
					continue
				}
				return fail(err)
			}
			stats.Fetched++
		}

		if incremental {
			if pageHadNew {
				cleanChunks = 0
			} else {
				cleanChunks++
				if cleanChunks >= c.safetyChunks {
					break
				}
			}
		}
		if page.End {
			break
		}
		token = page.NextToken
	}

	// 5. Checkpoint only after a run that reached its stopping rule
	if err := c.index.SetSyncState(ctx, domain.SyncState{
		Platform:         source.Platform,
		Author:           source.Author,
		FullSyncComplete: true,
		LastSyncAt:       time.Now().UTC(),
	}); err != nil {
		return fail(err)
	}

	// 6. Cross-references can only be resolved once the batch is in
	if stats.Fetched > 0 && c.linkFixer != nil {
		changed, err := c.linkFixer.FixLinks(ctx, source.Platform, source.Author)
		if err != nil {
			return fail(err)
		}
		if changed > 0 {
			logger.Info("rewrote internal links in %d posts", changed)
		}
	}

	logger.Info("%s: %d new, %d already archived", source.Name(), stats.Fetched, stats.Skipped)
	return stats, nil
}

// DownloadSingle archives one post by URL without touching sync state.
func (c *SyncController) DownloadSingle(ctx context.Context, rawURL string) error {
	platform, author, postID, err := domain.ParsePostURL(rawURL)
	if err != nil {
		return err
	}

	source := c.sourceFor(platform, author)

	conn, err := c.factory.Create(ctx, source)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := c.writer.EnsureSectionIndexes(source); err != nil {
		return err
	}

	raw, err := conn.FetchPost(ctx, postID)
	if err != nil {
		return err
	}

	resolver := c.resolverFor(conn)
	if err := c.processFetched(ctx, source, resolver, raw); err != nil {
		return err
	}

	if c.linkFixer != nil {
		if _, err := c.linkFixer.FixLinks(ctx, platform, author); err != nil {
			return err
		}
	}
	return nil
}

// processPost re-fetches partial listings, then runs the fetched post
// through the unit of work.
func (c *SyncController) processPost(
	ctx context.Context,
	conn driven.Connector,
	caps driven.Capabilities,
	source domain.Source,
	resolver driven.AssetResolver,
	raw *domain.RawPost,
) error {
	if raw.Partial || !caps.ListingComplete {
		full, err := conn.FetchPost(ctx, raw.ID)
		if err != nil {
			return fmt.Errorf("fetching full post %s: %w", raw.ID, err)
		}
		raw = full
	}
	return c.processFetched(ctx, source, resolver, raw)
}

// processFetched is a post's unit of work: normalise, prepare the
// directory, acquire assets, render, write, commit. The index commit
// comes last so a crash leaves the post uncommitted and it is redone on
// the next run.
func (c *SyncController) processFetched(
	ctx context.Context,
	source domain.Source,
	resolver driven.AssetResolver,
	raw *domain.RawPost,
) error {
	post, err := c.registry.Normalise(ctx, raw)
	if err != nil {
		return err
	}

	dir, slug, relPath, err := c.writer.Prepare(post)
	if err != nil {
		return err
	}

	if source.DownloadAssets && resolver != nil {
		if err := resolver.Acquire(ctx, post, dir); err != nil {
			return err
		}
	}

	body := c.renderer.Render(post.Body)
	if err := c.writer.WriteBody(dir, post, body); err != nil {
		return err
	}

	logger.Debug("archived %s/%s/%s as %s", post.Platform, post.Author, post.ID, slug)
	return c.index.Commit(ctx, domain.IndexRecord{
		Platform:  post.Platform,
		Author:    post.Author,
		PostID:    post.ID,
		Title:     post.Title,
		Slug:      slug,
		PostDate:  post.PublishedAt,
		SourceURL: post.SourceURL,
		RelPath:   relPath,
		Tags:      post.Tags,
	})
}

// resolverFor builds an asset resolver sharing the connector's session
// when it exposes one.
func (c *SyncController) resolverFor(conn driven.Connector) driven.AssetResolver {
	if c.newResolver == nil {
		return nil
	}
	if sp, ok := conn.(driven.SessionProvider); ok {
		return c.newResolver(sp.HTTPSession())
	}
	return c.newResolver(nil)
}

// sourceFor matches a configured source, falling back to an ad-hoc one
// for URLs outside the config.
func (c *SyncController) sourceFor(platform domain.Platform, author string) domain.Source {
	for _, s := range c.sources {
		if s.Platform == platform && s.Author == author {
			return s
		}
	}
	return domain.Source{Platform: platform, Author: author, DownloadAssets: true}
}
