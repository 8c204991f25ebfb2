package kv

import (
	"os"
	"path/filepath"
	"testing"
)

type blob []byte

func (b blob) ToBytes() []byte { return b }

func (blob) FromBytes(d []byte) blob { return blob(d) }

func TestDirKVS(t *testing.T) {
	dir := t.TempDir()

	store, err := NewDirKVS[string, blob](dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := store.Get("absent"); ok {
		t.Fatal("expected miss for absent key")
	}

	store.Set("a", blob("alpha"))
	store.Set("b", blob("beta"))

	v, ok := store.Get("a")
	if !ok || string(v) != "alpha" {
		t.Fatalf("expected alpha, got %q ok=%v", v, ok)
	}

	// overwrite
	store.Set("a", blob("alpha2"))
	v, _ = store.Get("a")
	if string(v) != "alpha2" {
		t.Fatalf("expected overwritten value, got %q", v)
	}

	count := 0
	store.Range(func(key string, value blob) bool {
		count++
		return true
	})
	if count != 2 {
		t.Fatalf("expected 2 entries, got %d", count)
	}
}

func TestDirKVSPersists(t *testing.T) {
	dir := t.TempDir()

	store, err := NewDirKVS[string, blob](dir)
	if err != nil {
		t.Fatal(err)
	}
	store.Set("key", blob("value"))
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewDirKVS[string, blob](dir)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := reopened.Get("key")
	if !ok || string(v) != "value" {
		t.Fatalf("expected persisted value, got %q ok=%v", v, ok)
	}
}

func TestDirKVSCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "cache")

	// creation is idempotent
	for i := 0; i < 2; i++ {
		if _, err := NewDirKVS[string, blob](root); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatal(err)
	}
}

func TestMutexMap(t *testing.T) {
	m := NewMutexMap[string, int]()

	if _, ok := m.Get("x"); ok {
		t.Fatal("expected miss on empty map")
	}
	m.Set("x", 7)
	v, ok := m.Get("x")
	if !ok || v != 7 {
		t.Fatalf("expected 7, got %d ok=%v", v, ok)
	}
}

func TestXMap(t *testing.T) {
	m := NewXMap[string, int]()

	m.Set("x", 3)
	v, ok := m.Get("x")
	if !ok || v != 3 {
		t.Fatalf("expected 3, got %d ok=%v", v, ok)
	}

	seen := 0
	m.Range(func(string, int) bool {
		seen++
		return true
	})
	if seen != 1 {
		t.Fatalf("expected 1 entry, got %d", seen)
	}
}

func TestLevelDbKVS(t *testing.T) {
	store, err := OpenLevelDbKV[string, blob](filepath.Join(t.TempDir(), "level"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, ok := store.Get("absent"); ok {
		t.Fatal("expected miss for absent key")
	}
	store.Set("k", blob("v"))
	v, ok := store.Get("k")
	if !ok || string(v) != "v" {
		t.Fatalf("expected v, got %q ok=%v", v, ok)
	}
}
