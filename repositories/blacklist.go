package repositories

import (
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const blacklistPrefix = "blacklist:"

// BlacklistRepository stores the censored words, one key per word.
type BlacklistRepository struct {
	db *badger.DB
}

func NewBlacklistRepository(db *badger.DB) BlacklistRepository {
	return BlacklistRepository{db: db}
}

func (r BlacklistRepository) AddWords(words ...string) error {
	wb := r.db.NewWriteBatch()
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if err := wb.Set([]byte(blacklistPrefix+word), nil); err != nil {
			wb.Cancel()
			return err
		}
	}
	return wb.Flush()
}

func (r BlacklistRepository) GetWords() ([]string, error) {
	var words []string
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Words live in the keys
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(blacklistPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			words = append(words, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return words, err
}
