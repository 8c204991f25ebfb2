package kv

import (
	"log/slog"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDbKVS backs a KVS with an embedded leveldb database.
type LevelDbKVS[K ~string, V ValueBytes[V]] struct {
	db  *leveldb.DB
	log *slog.Logger
}

func NewLevelDbKV[K ~string, V ValueBytes[V]](db *leveldb.DB) *LevelDbKVS[K, V] {
	return &LevelDbKVS[K, V]{
		db:  db,
		log: slog.With("component", "leveldb-kv"),
	}
}

// OpenLevelDbKV opens (creating if needed) a leveldb database at path.
func OpenLevelDbKV[K ~string, V ValueBytes[V]](path string) (*LevelDbKVS[K, V], error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, err
	}
	return NewLevelDbKV[K, V](db), nil
}

var _ KVS[string, noopValue] = (*LevelDbKVS[string, noopValue])(nil)

// Get implements KVS
func (kvs *LevelDbKVS[K, V]) Get(key K) (value V, ok bool) {
	body, err := kvs.db.Get([]byte(key), nil)
	if err != nil {
		return value, false
	}
	return value.FromBytes(body), true
}

// Set implements KVS
func (kvs *LevelDbKVS[K, V]) Set(key K, value V) {
	if err := kvs.db.Put([]byte(key), value.ToBytes(), nil); err != nil {
		kvs.log.Error("failed to set value", "key", string(key), "error", err.Error())
	}
}

func (kvs *LevelDbKVS[K, V]) Range(f func(key K, value V) bool) {
	it := kvs.db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		var v V
		if !f(K(it.Key()), v.FromBytes(it.Value())) {
			return
		}
	}
}

func (kvs *LevelDbKVS[K, V]) Flush() error { return nil }

func (kvs *LevelDbKVS[K, V]) Close() error {
	return kvs.db.Close()
}
