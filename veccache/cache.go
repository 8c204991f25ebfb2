// Package veccache memoizes encoding results against the content of
// their input file.
package veccache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/exp/mmap"

	"github.com/royalcat/geosdr/cachesaver"
	"github.com/royalcat/geosdr/geomodel"
	"github.com/royalcat/geosdr/kv"
)

// ComputeFunc performs the full encoding pass over the input file.
type ComputeFunc func(ctx context.Context) (geomodel.Batch, error)

// Cache reuses a previously computed batch when the input file and the
// encoder configuration are unchanged. Staleness is detected through a
// verify hash over the file content and the encoder identity, so
// changing one byte of input or one configuration field forces a
// recompute.
//
// The read-recompute-write sequence assumes a single writer per key;
// concurrent writers to the same key are not coordinated.
type Cache struct {
	store kv.KVS[string, cachesaver.Entry]
	log   *slog.Logger
}

func New(store kv.KVS[string, cachesaver.Entry], log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		store: store,
		log:   log.With("component", "veccache"),
	}
}

// Obtain returns the batch for the given input file under the given
// store key. An absent, unreadable or stale entry is a miss: compute
// runs, the fresh entry is persisted and its batch returned. A missing
// input file is an error and leaves the store untouched.
func (c *Cache) Obtain(ctx context.Context, csvPath, key, identity string, compute ComputeFunc) (geomodel.Batch, error) {
	verify, err := HashFile(csvPath, identity)
	if err != nil {
		return geomodel.Batch{}, fmt.Errorf("hashing %s: %w", csvPath, err)
	}

	if entry, ok := c.store.Get(key); ok && entry.Verify == verify {
		c.log.Debug("cache hit", "key", key)
		return entry.Data, nil
	}

	c.log.Info("cache miss, recomputing", "key", key)

	batch, err := compute(ctx)
	if err != nil {
		return geomodel.Batch{}, err
	}

	c.store.Set(key, cachesaver.Entry{Verify: verify, Data: batch})
	if err := c.store.Flush(); err != nil {
		return geomodel.Batch{}, fmt.Errorf("flushing cache store: %w", err)
	}

	return batch, nil
}

// HashFile derives the verify hash: md5 over the full file content
// followed by the encoder identity, so two encoders or two parameter
// sets never share a hash.
func HashFile(path, identity string) (string, error) {
	rd, err := mmap.Open(path)
	if err != nil {
		return "", err
	}
	defer rd.Close()

	h := md5.New()
	if _, err := io.Copy(h, io.NewSectionReader(rd, 0, int64(rd.Len()))); err != nil {
		return "", err
	}
	io.WriteString(h, identity)

	return hex.EncodeToString(h.Sum(nil)), nil
}
