package factory

import (
	"context"
	"fmt"

	"github.com/strannick-ru/article-backup/internal/connectors/boosty"
	"github.com/strannick-ru/article-backup/internal/connectors/sponsr"
	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// CredentialLoaders supplies platform credentials on demand, so missing
// credential files only fail the sources that need them.
type CredentialLoaders struct {
	// SponsrCookie returns the session cookie line.
	SponsrCookie func() (string, error)

	// BoostyCookie returns the session cookie line.
	BoostyCookie func() (string, error)

	// BoostyAuth returns the bearer token line.
	BoostyAuth func() (string, error)
}

// Factory creates platform connectors for configured sources.
type Factory struct {
	creds CredentialLoaders
}

// NewFactory creates a connector factory over the credential loaders.
func NewFactory(creds CredentialLoaders) *Factory {
	return &Factory{creds: creds}
}

// Create builds the connector for one source.
func (f *Factory) Create(_ context.Context, source domain.Source) (driven.Connector, error) {
	switch source.Platform {
	case domain.PlatformSponsr:
		cookie, err := f.load(f.creds.SponsrCookie)
		if err != nil {
			return nil, fmt.Errorf("sponsr credentials: %w", err)
		}
		return sponsr.New(source.Author, cookie), nil

	case domain.PlatformBoosty:
		cookie, err := f.load(f.creds.BoostyCookie)
		if err != nil {
			return nil, fmt.Errorf("boosty credentials: %w", err)
		}
		auth, err := f.load(f.creds.BoostyAuth)
		if err != nil {
			return nil, fmt.Errorf("boosty credentials: %w", err)
		}
		return boosty.New(source.Author, boosty.Credentials{Cookie: cookie, Authorization: auth}), nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedPlatform, source.Platform)
	}
}

func (f *Factory) load(loader func() (string, error)) (string, error) {
	if loader == nil {
		return "", domain.ErrAuthRequired
	}
	return loader()
}
