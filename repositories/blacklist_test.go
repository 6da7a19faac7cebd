package repositories

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlacklistRepository(t *testing.T) {
	req := require.New(t)
	repository := NewBlacklistRepository(openDB(t))

	req.NoError(repository.AddWords("Scam", " spam ", "", "scam"))

	words, err := repository.GetWords()
	req.NoError(err)
	req.Equal([]string{"scam", "spam"}, words)
}

func TestBlacklistRepository_Many_Words(t *testing.T) {
	req := require.New(t)
	repository := NewBlacklistRepository(openDB(t))
	wordCount := 10_000

	words := make([]string, 0, wordCount)
	for i := 0; i < wordCount; i++ {
		words = append(words, fmt.Sprintf("word_%d", i))
	}
	req.NoError(repository.AddWords(words...))

	loaded, err := repository.GetWords()
	req.NoError(err)
	req.Len(loaded, wordCount)
}
