package cachesaver

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/royalcat/geosdr/geomodel"
)

// maxVerifyLen guards against reading an absurd length prefix from a
// damaged container.
const maxVerifyLen = 1 << 10

// Load reads an entry written by Save. Input that does not start with
// the magic bytes is decoded as a legacy gob entry.
func Load(r io.Reader) (Entry, error) {
	magic := make([]byte, len(MAGIC_BYTES))
	if _, err := io.ReadFull(r, magic); err != nil {
		return Entry{}, fmt.Errorf("reading magic bytes: %w", err)
	}

	if !bytes.Equal(magic, MAGIC_BYTES) {
		return legacyLoad(io.MultiReader(bytes.NewReader(magic), r))
	}

	var compatibilityLevel uint32
	if err := binary.Read(r, binary.LittleEndian, &compatibilityLevel); err != nil {
		return Entry{}, fmt.Errorf("reading compatibility level: %w", err)
	}

	switch compatibilityLevel {
	case COMPATIBILITY_LEVEL:
		return loadV1(r)
	}

	return Entry{}, fmt.Errorf("unsupported compatibility level: %d", compatibilityLevel)
}

func loadV1(r io.Reader) (Entry, error) {
	var verifyLen uint32
	if err := binary.Read(r, binary.LittleEndian, &verifyLen); err != nil {
		return Entry{}, fmt.Errorf("reading verify length: %w", err)
	}
	if verifyLen > maxVerifyLen {
		return Entry{}, fmt.Errorf("verify hash length %d exceeds limit", verifyLen)
	}

	verify := make([]byte, verifyLen)
	if _, err := io.ReadFull(r, verify); err != nil {
		return Entry{}, fmt.Errorf("reading verify hash: %w", err)
	}

	var rows, cols uint64
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return Entry{}, fmt.Errorf("reading row count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &cols); err != nil {
		return Entry{}, fmt.Errorf("reading column count: %w", err)
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return Entry{}, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer zr.Close()

	data := make([]float32, rows*cols)
	if err := binary.Read(zr, binary.LittleEndian, data); err != nil {
		return Entry{}, fmt.Errorf("reading batch data: %w", err)
	}

	return Entry{
		Verify: string(verify),
		Data: geomodel.Batch{
			Rows: int(rows),
			Cols: int(cols),
			Data: data,
		},
	}, nil
}

func legacyLoad(r io.Reader) (Entry, error) {
	var e Entry
	if err := gob.NewDecoder(r).Decode(&e); err != nil {
		return Entry{}, fmt.Errorf("decoding legacy entry: %w", err)
	}
	return e, nil
}
