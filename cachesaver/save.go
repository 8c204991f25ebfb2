package cachesaver

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
)

// Save writes the entry as magic bytes, a little-endian compatibility
// level and the v1 payload: the verify string, the batch dimensions and
// the zstd-compressed row-major float32 data.
func Save(w io.Writer, e Entry) error {
	if _, err := w.Write(MAGIC_BYTES); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, COMPATIBILITY_LEVEL); err != nil {
		return err
	}

	verify := []byte(e.Verify)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(verify))); err != nil {
		return err
	}
	if _, err := w.Write(verify); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(e.Data.Rows)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(e.Data.Cols)); err != nil {
		return err
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	buf := make([]byte, 4)
	for _, v := range e.Data.Data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := zw.Write(buf); err != nil {
			zw.Close()
			return err
		}
	}

	return zw.Close()
}
