// Package cachesaver persists encoded vector batches together with the
// content hash they were derived from.
package cachesaver

import (
	"bytes"

	"github.com/royalcat/geosdr/geomodel"
)

var MAGIC_BYTES = []byte("GSDR")

// COMPATIBILITY_LEVEL is bumped on breaking changes of the v1 layout.
const COMPATIBILITY_LEVEL uint32 = 1

// Entry pairs the verify hash of an input file (plus encoder identity)
// with the batch computed from it. An entry lives until it is overwritten
// by a run whose verify hash differs.
type Entry struct {
	Verify string
	Data   geomodel.Batch
}

// ToBytes serializes the entry in the current container format.
func (e Entry) ToBytes() []byte {
	var buf bytes.Buffer
	if err := Save(&buf, e); err != nil {
		// writes to a bytes.Buffer cannot fail
		panic(err)
	}
	return buf.Bytes()
}

// FromBytes deserializes an entry. Undecodable bytes yield the zero
// entry, whose empty verify hash never matches a real content hash, so a
// corrupt blob degrades to a cache miss.
func (Entry) FromBytes(body []byte) Entry {
	e, err := Load(bytes.NewReader(body))
	if err != nil {
		return Entry{}
	}
	return e
}
