package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/mitchellh/mapstructure"
)

// convertCache remembers finished conversions so batch runs skip inputs
// that have not changed since the last run.
//
// Keys combine the input path, its size, its modification time and the
// target format, so touching the file or asking for a new format
// invalidates the entry. Values hold the output path recorded when the
// conversion finished.
type convertCache struct {
	db *badger.DB
}

// cacheOptions are the badger tuning knobs exposed through the config
// file's free-form cache.options section.
type cacheOptions struct {
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`
}

// openCache opens or creates the cache database at path.
func openCache(path string, options map[string]any) (*convertCache, error) {
	var tuning cacheOptions
	if err := mapstructure.Decode(options, &tuning); err != nil {
		return nil, fmt.Errorf("invalid cache options: %w", err)
	}

	opts := badger.DefaultOptions(path)
	opts = opts.WithLoggingLevel(badger.WARNING)
	if tuning.BlockCacheSizeMB > 0 {
		opts = opts.WithBlockCacheSize(tuning.BlockCacheSizeMB << 20)
	}
	if tuning.IndexCacheSizeMB > 0 {
		opts = opts.WithIndexCacheSize(tuning.IndexCacheSizeMB << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache at %s: %w", path, err)
	}

	return &convertCache{db: db}, nil
}

func (c *convertCache) Close() error {
	return c.db.Close()
}

func cacheKey(inputPath string, info os.FileInfo, format string) []byte {
	parts := []string{
		inputPath,
		strconv.FormatInt(info.Size(), 10),
		strconv.FormatInt(info.ModTime().UnixNano(), 10),
		format,
	}
	return []byte(strings.Join(parts, "|"))
}

// Lookup reports whether this exact input was converted before and the
// output path recorded at the time.
func (c *convertCache) Lookup(inputPath string, info os.FileInfo, format string) (string, bool, error) {
	var output string

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(inputPath, info, format))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		output = string(val)
		return nil
	})
	if err == badger.ErrKeyNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}

	return output, true, nil
}

// Record stores a finished conversion.
func (c *convertCache) Record(inputPath string, info os.FileInfo, format, outputPath string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(inputPath, info, format), []byte(outputPath))
	})
	if err != nil {
		return fmt.Errorf("cache record: %w", err)
	}
	return nil
}
