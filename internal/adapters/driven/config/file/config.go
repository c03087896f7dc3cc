// Package file loads the archiver configuration from a TOML file and
// the credential files it references.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

// DefaultPath is the config location used when none is given.
const DefaultPath = "config.toml"

// Config is the full archiver configuration.
type Config struct {
	// OutputDir is the archive root. Defaults to "./archive".
	OutputDir string `toml:"output_dir"`

	Auth    AuthConfig     `toml:"auth"`
	Sync    SyncConfig     `toml:"sync"`
	Assets  AssetsConfig   `toml:"assets"`
	Sources []SourceConfig `toml:"sources"`
}

// AuthConfig points at the credential files. Credentials never live in
// the config file itself.
type AuthConfig struct {
	// SponsrCookieFile holds the session cookie line.
	SponsrCookieFile string `toml:"sponsr_cookie_file"`

	// BoostyCookieFile holds the session cookie line.
	BoostyCookieFile string `toml:"boosty_cookie_file"`

	// BoostyAuthFile holds the bearer token line.
	BoostyAuthFile string `toml:"boosty_auth_file"`
}

// SyncConfig tunes the incremental controller.
type SyncConfig struct {
	// SafetyChunks is how many consecutive fully-known pages end an
	// incremental run. Defaults to 1.
	SafetyChunks int `toml:"safety_chunks"`
}

// AssetsConfig tunes the download pool.
type AssetsConfig struct {
	// Workers is the pool size. Defaults to 4.
	Workers int `toml:"workers"`

	// AllowedKinds restricts downloads; valid values are "image",
	// "audio", "video", "document". Defaults to image and audio.
	AllowedKinds []string `toml:"allowed_kinds"`

	// MaxAttempts is the per-asset try count. Defaults to 3.
	MaxAttempts int `toml:"max_attempts"`

	// BaseDelay and MaxDelay bound the retry backoff, as Go duration
	// strings. Default "1s" and "30s".
	BaseDelay string `toml:"base_delay"`
	MaxDelay  string `toml:"max_delay"`
}

// SourceConfig is one author to archive.
type SourceConfig struct {
	Platform    string `toml:"platform"`
	Author      string `toml:"author"`
	DisplayName string `toml:"display_name"`

	// DownloadAssets defaults to true.
	DownloadAssets *bool `toml:"download_assets"`
}

// Load reads and validates the config file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		OutputDir: "./archive",
		Sync:      SyncConfig{SafetyChunks: 1},
		Assets: AssetsConfig{
			Workers:     4,
			MaxAttempts: 3,
			BaseDelay:   "1s",
			MaxDelay:    "30s",
		},
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is empty", domain.ErrInvalidInput)
	}
	if c.Sync.SafetyChunks < 1 {
		return fmt.Errorf("%w: sync.safety_chunks must be at least 1", domain.ErrInvalidInput)
	}
	if c.Assets.Workers < 1 {
		return fmt.Errorf("%w: assets.workers must be at least 1", domain.ErrInvalidInput)
	}
	if _, _, err := c.Assets.RetryDelays(); err != nil {
		return err
	}
	if _, err := c.Assets.Kinds(); err != nil {
		return err
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("%w: no sources configured", domain.ErrInvalidInput)
	}
	for i, s := range c.Sources {
		if _, err := s.Domain(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
	}
	return nil
}

// DomainSources converts the source list to domain values.
func (c *Config) DomainSources() ([]domain.Source, error) {
	sources := make([]domain.Source, 0, len(c.Sources))
	for i, s := range c.Sources {
		src, err := s.Domain()
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// Domain converts one source entry.
func (s SourceConfig) Domain() (domain.Source, error) {
	platform := domain.Platform(strings.ToLower(s.Platform))
	if !platform.Valid() {
		return domain.Source{}, fmt.Errorf("%w: unknown platform %q", domain.ErrUnsupportedPlatform, s.Platform)
	}
	if s.Author == "" {
		return domain.Source{}, fmt.Errorf("%w: author is empty", domain.ErrInvalidInput)
	}
	download := true
	if s.DownloadAssets != nil {
		download = *s.DownloadAssets
	}
	return domain.Source{
		Platform:       platform,
		Author:         s.Author,
		DisplayName:    s.DisplayName,
		DownloadAssets: download,
	}, nil
}

// RetryDelays parses the backoff duration strings.
func (a AssetsConfig) RetryDelays() (base, maxDelay time.Duration, _ error) {
	var err error
	if base, err = time.ParseDuration(a.BaseDelay); err != nil {
		return 0, 0, fmt.Errorf("%w: assets.base_delay: %v", domain.ErrInvalidInput, err)
	}
	if maxDelay, err = time.ParseDuration(a.MaxDelay); err != nil {
		return 0, 0, fmt.Errorf("%w: assets.max_delay: %v", domain.ErrInvalidInput, err)
	}
	return base, maxDelay, nil
}

// Kinds parses the allowed asset kinds.
func (a AssetsConfig) Kinds() ([]domain.AssetKind, error) {
	kinds := make([]domain.AssetKind, 0, len(a.AllowedKinds))
	for _, k := range a.AllowedKinds {
		kind := domain.AssetKind(strings.ToLower(k))
		switch kind {
		case domain.AssetImage, domain.AssetAudio, domain.AssetVideo, domain.AssetDocument:
			kinds = append(kinds, kind)
		default:
			return nil, fmt.Errorf("%w: unknown asset kind %q", domain.ErrInvalidInput, k)
		}
	}
	return kinds, nil
}

// ReadCredentialFile returns the first non-empty line of a credential
// file. Paths are resolved relative to the config file's directory.
func ReadCredentialFile(configPath, credPath string) (string, error) {
	if credPath == "" {
		return "", domain.ErrAuthRequired
	}
	if !filepath.IsAbs(credPath) && configPath != "" {
		credPath = filepath.Join(filepath.Dir(configPath), credPath)
	}
	data, err := os.ReadFile(credPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAuthRequired, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("%w: %s is empty", domain.ErrAuthInvalid, credPath)
}
