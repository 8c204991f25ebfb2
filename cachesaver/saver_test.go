package cachesaver

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/royalcat/geosdr/geomodel"
)

func testEntry() Entry {
	batch := geomodel.NewBatch(3, 4)
	for i := range batch.Data {
		if i%3 == 0 {
			batch.Data[i] = 1
		}
	}
	return Entry{
		Verify: "0bee89b07a248e27c83fc3d5951213c1",
		Data:   batch,
	}
}

func TestSaveLoad(t *testing.T) {
	original := testEntry()

	var buf bytes.Buffer
	if err := Save(&buf, original); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Verify != original.Verify {
		t.Fatalf("verify hash mismatch: %q != %q", loaded.Verify, original.Verify)
	}
	if !loaded.Data.Equal(original.Data) {
		t.Fatalf("batch mismatch: %+v != %+v", loaded.Data, original.Data)
	}
}

func TestSaveLoadLarge(t *testing.T) {
	batch := geomodel.NewBatch(2000, 220)
	for i := range batch.Data {
		if i%7 == 0 {
			batch.Data[i] = 1
		}
	}
	original := Entry{Verify: "large", Data: batch}

	var buf bytes.Buffer
	if err := Save(&buf, original); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Data.Equal(original.Data) {
		t.Fatal("large batch did not round-trip")
	}
}

func TestLoadLegacyGob(t *testing.T) {
	original := testEntry()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(original); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Verify != original.Verify || !loaded.Data.Equal(original.Data) {
		t.Fatal("legacy entry did not round-trip")
	}
}

func TestLoadGarbage(t *testing.T) {
	if _, err := Load(bytes.NewReader([]byte("not a cache entry at all"))); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestLoadTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := Save(&buf, testEntry()); err != nil {
		t.Fatal(err)
	}
	truncated := buf.Bytes()[:buf.Len()/2]

	if _, err := Load(bytes.NewReader(truncated)); err == nil {
		t.Fatal("expected error for truncated input")
	}
}

func TestEntryBytesRoundTrip(t *testing.T) {
	original := testEntry()

	restored := Entry{}.FromBytes(original.ToBytes())
	if restored.Verify != original.Verify || !restored.Data.Equal(original.Data) {
		t.Fatal("byte round-trip lost data")
	}
}

func TestEntryFromCorruptBytes(t *testing.T) {
	restored := Entry{}.FromBytes([]byte{0x01, 0x02})
	if restored.Verify != "" {
		t.Fatalf("corrupt bytes must yield an empty verify hash, got %q", restored.Verify)
	}
}
