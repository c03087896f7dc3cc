package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

func TestMatchSource(t *testing.T) {
	sources := []domain.Source{
		{Platform: domain.PlatformSponsr, Author: "history"},
		{Platform: domain.PlatformBoosty, Author: "history"},
		{Platform: domain.PlatformBoosty, Author: "science"},
	}

	got, err := matchSource(sources, "sponsr/history")
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformSponsr, got.Platform)

	got, err = matchSource(sources, "science")
	require.NoError(t, err)
	assert.Equal(t, "science", got.Author)

	_, err = matchSource(sources, "history")
	assert.Error(t, err)

	_, err = matchSource(sources, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
