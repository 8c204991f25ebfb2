package kv

import (
	"log/slog"
	"os"
	"path/filepath"
)

// DirKVS persists each value as one file under a root directory, the
// file name being the key. Reading a key that has no file is a plain
// miss, never an error.
type DirKVS[K ~string, V ValueBytes[V]] struct {
	root string
	log  *slog.Logger
}

// NewDirKVS creates the root directory if it does not exist yet;
// creation is idempotent.
func NewDirKVS[K ~string, V ValueBytes[V]](root string) (*DirKVS[K, V], error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DirKVS[K, V]{
		root: root,
		log:  slog.With("component", "dir-kv", "root", root),
	}, nil
}

var _ KVS[string, noopValue] = (*DirKVS[string, noopValue])(nil)

// Get implements KVS
func (s *DirKVS[K, V]) Get(key K) (v V, ok bool) {
	body, err := os.ReadFile(filepath.Join(s.root, string(key)))
	if err != nil {
		return v, false
	}
	return v.FromBytes(body), true
}

// Set implements KVS
func (s *DirKVS[K, V]) Set(key K, value V) {
	path := filepath.Join(s.root, string(key))
	if err := os.WriteFile(path, value.ToBytes(), 0o644); err != nil {
		s.log.Error("failed to write value", "key", string(key), "error", err.Error())
	}
}

func (s *DirKVS[K, V]) Range(f func(key K, value V) bool) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.log.Error("failed to list store", "error", err.Error())
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		v, ok := s.Get(K(entry.Name()))
		if !ok {
			continue
		}
		if !f(K(entry.Name()), v) {
			return
		}
	}
}

func (s *DirKVS[K, V]) Flush() error { return nil }
func (s *DirKVS[K, V]) Close() error { return nil }

// noopValue exists only to state the interface assertion above.
type noopValue struct{}

func (noopValue) ToBytes() []byte { return nil }

func (noopValue) FromBytes([]byte) noopValue { return noopValue{} }
