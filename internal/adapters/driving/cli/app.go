package cli

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/strannick-ru/article-backup/internal/adapters/driven/config/file"
	"github.com/strannick-ru/article-backup/internal/adapters/driven/storage/sqlite"
	"github.com/strannick-ru/article-backup/internal/archive"
	"github.com/strannick-ru/article-backup/internal/assets"
	"github.com/strannick-ru/article-backup/internal/connectors/factory"
	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
	"github.com/strannick-ru/article-backup/internal/core/services"
	"github.com/strannick-ru/article-backup/internal/markdown"
	"github.com/strannick-ru/article-backup/internal/normalisers"
	"github.com/strannick-ru/article-backup/internal/normalisers/blocks"
	"github.com/strannick-ru/article-backup/internal/normalisers/tagtree"
)

// app holds the wired object graph for one invocation.
type app struct {
	cfg        *file.Config
	sources    []domain.Source
	store      *sqlite.Store
	controller *services.SyncController
}

// buildApp loads the config and wires the adapters into the controller.
func buildApp() (*app, error) {
	cfg, err := file.Load(configPath)
	if err != nil {
		return nil, err
	}

	sources, err := cfg.DomainSources()
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}

	writer := archive.NewWriter(cfg.OutputDir)
	registry := normalisers.NewRegistry(blocks.New(), tagtree.New())
	renderer := markdown.NewRenderer()
	linkFixer := services.NewLinkFixService(store, cfg.OutputDir)

	connFactory := factory.NewFactory(factory.CredentialLoaders{
		SponsrCookie: credentialLoader(cfg.Auth.SponsrCookieFile),
		BoostyCookie: credentialLoader(cfg.Auth.BoostyCookieFile),
		BoostyAuth:   credentialLoader(cfg.Auth.BoostyAuthFile),
	})

	resolverFactory, err := assetResolverFactory(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	controller := services.NewSyncController(
		sources,
		connFactory,
		registry,
		renderer,
		writer,
		store,
		linkFixer,
		resolverFactory,
		cfg.Sync.SafetyChunks,
	)

	return &app{
		cfg:        cfg,
		sources:    sources,
		store:      store,
		controller: controller,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() error {
	return a.store.Close()
}

func credentialLoader(credPath string) func() (string, error) {
	return func() (string, error) {
		return file.ReadCredentialFile(effectiveConfigPath(), credPath)
	}
}

// effectiveConfigPath is the path credential files resolve against.
func effectiveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	abs, err := filepath.Abs(file.DefaultPath)
	if err != nil {
		return file.DefaultPath
	}
	return abs
}

func assetResolverFactory(cfg *file.Config) (driven.AssetResolverFactory, error) {
	kinds, err := cfg.Assets.Kinds()
	if err != nil {
		return nil, err
	}
	base, maxDelay, err := cfg.Assets.RetryDelays()
	if err != nil {
		return nil, err
	}

	assetsCfg := assets.Config{
		Workers:      cfg.Assets.Workers,
		AllowedKinds: kinds,
		Retry: assets.RetryPolicy{
			MaxAttempts: cfg.Assets.MaxAttempts,
			BaseDelay:   base,
			MaxDelay:    maxDelay,
			Factor:      assets.DefaultRetryPolicy.Factor,
		},
	}
	return func(client *http.Client) driven.AssetResolver {
		return assets.NewResolver(client, assetsCfg)
	}, nil
}
