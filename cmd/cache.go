package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/royalcat/geosdr/cachesaver"
	"github.com/royalcat/geosdr/geoencode"
	"github.com/royalcat/geosdr/geomodel"
	"github.com/royalcat/geosdr/kv"
	"github.com/royalcat/geosdr/veccache"
)

// obtainBatch runs compute through the content cache, unless caching is
// disabled.
func obtainBatch(ctx *cli.Context, input string, enc geoencode.Encoder, compute func() (geomodel.Batch, error)) (geomodel.Batch, error) {
	if ctx.Bool("no-cache") {
		return compute()
	}

	store, err := newCacheStore(ctx.String("cache"))
	if err != nil {
		return geomodel.Batch{}, fmt.Errorf("error opening cache store: %w", err)
	}
	defer store.Close()

	cache := veccache.New(store, slog.Default())
	return cache.Obtain(ctx.Context, input, cacheKey(input, enc), enc.Identity(),
		func(_ context.Context) (geomodel.Batch, error) { return compute() })
}

// newCacheStore opens the store named by target: a directory path, or
// leveldb:<path> for an embedded database.
func newCacheStore(target string) (kv.KVS[string, cachesaver.Entry], error) {
	if path, ok := strings.CutPrefix(target, "leveldb:"); ok {
		return kv.OpenLevelDbKV[string, cachesaver.Entry](path)
	}
	return kv.NewDirKVS[string, cachesaver.Entry](target)
}

// cacheKey names the persisted entry for one input file and encoder
// variant. The verify hash inside the entry handles parameter changes.
func cacheKey(input string, enc geoencode.Encoder) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	variant, _, _ := strings.Cut(enc.Identity(), "/")
	return base + "." + variant + ".gsdr"
}

// saveBatch writes the batch (with its verify hash) as a standalone
// artifact for downstream consumption.
func saveBatch(output, input string, enc geoencode.Encoder, batch geomodel.Batch) error {
	verify, err := veccache.HashFile(input, enc.Identity())
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	return cachesaver.Save(f, cachesaver.Entry{Verify: verify, Data: batch})
}
