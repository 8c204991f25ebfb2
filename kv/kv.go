// Package kv provides the key/value store abstraction behind the
// content cache: a persisted blob keyed by a caller-supplied name.
package kv

// KVS is a minimal key/value store. Absence of a key is not an error,
// it is reported through the ok result.
type KVS[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Range(func(key K, value V) bool)
	Flush() error
	Close() error
}

type Byter interface {
	ToBytes() []byte
}

type DeByter[V any] interface {
	FromBytes([]byte) V
}

// ValueBytes is implemented by values that carry their own binary
// serialization, for stores that persist raw bytes.
type ValueBytes[V any] interface {
	Byter
	DeByter[V]
}
