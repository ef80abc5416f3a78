package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArticle(t *testing.T) {
	art, err := ParseArticle("\n META DESCRIPTION:  Learn pour over.\n# **Pour Over Guide**\n\nBody.")
	require.NoError(t, err)
	assert.Equal(t, "Learn pour over.", art.MetaDescription)
	assert.Equal(t, "Pour Over Guide", art.Title)
	assert.Equal(t, "# **Pour Over Guide**\n\nBody.", art.Body)
	assert.Equal(t, "META DESCRIPTION: Learn pour over.\n# **Pour Over Guide**\n\nBody.", art.Text)
}

func TestParseArticle_BoldPrefix(t *testing.T) {
	art, err := ParseArticle("**META DESCRIPTION:** Learn pour over.\n\nBody.")
	require.NoError(t, err)
	assert.Equal(t, "Learn pour over.", art.MetaDescription)
	assert.Equal(t, "Body.", art.Body)
	assert.Empty(t, art.Title)
}

func TestParseArticle_DescriptionOnNextLine(t *testing.T) {
	art, err := ParseArticle("META DESCRIPTION:\nLearn pour over.\n## Intro\nBody.")
	require.NoError(t, err)
	assert.Equal(t, "Learn pour over.", art.MetaDescription)
	assert.Equal(t, "Intro", art.Title)
}

func TestParseArticle_Rejects(t *testing.T) {
	for name, raw := range map[string]string{
		"no prefix":  "# Title\nBody",
		"no body":    "META DESCRIPTION: only a description",
		"empty text": "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseArticle(raw)
			require.ErrorIs(t, err, ErrSchemaMismatch)
		})
	}
}
