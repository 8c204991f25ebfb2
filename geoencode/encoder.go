// Package geoencode turns raw geospatial telemetry records into
// fixed-length binary feature vectors.
//
// Two encoders are provided: NumentaEncoder maps a record onto a sparse
// n-length vector through deterministic pseudo-random neighbor selection
// on a Mercator grid, and AltGeoEncoder one-hot encodes the decimal
// digits of the scaled inputs. Both are deterministic: the same record
// and configuration always produce the same vector.
package geoencode

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"
	"github.com/sourcegraph/conc/pool"

	"github.com/royalcat/geosdr/geomodel"
)

// Encoder is the strategy interface shared by all encoding variants.
// One instance carries one fixed encoding policy; there is no runtime
// reconfiguration.
type Encoder interface {
	// Encode produces the vector for a single record.
	Encode(rec geomodel.Record) ([]float32, error)
	// Width is the length of every vector this encoder produces.
	Width() int
	// Identity uniquely describes the encoder variant and its
	// configuration. Two encoders with different parameters never share
	// an identity.
	Identity() string
}

// EncodeBatch encodes records into a batch, one row per record, output
// row i corresponding to input row i. Records are independent, so the
// pass fans out over up to threads goroutines; each result lands in its
// preassigned row, keeping the original order. The first record error
// aborts the batch.
func EncodeBatch(ctx context.Context, enc Encoder, records []geomodel.Record, threads int) (geomodel.Batch, error) {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	batch := geomodel.NewBatch(len(records), enc.Width())

	bar := pb.Start64(int64(len(records)))
	bar.Set("prefix", "encoding records")
	bar.SetRefreshRate(time.Second)
	if w, err := termutil.TerminalWidth(); w == 0 || err != nil {
		bar.SetTemplateString(`{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}{{with string . "suffix"}} {{.}}{{end}}` + "\n")
	}
	defer bar.Finish()

	p := pool.New().WithMaxGoroutines(threads).WithErrors().WithContext(ctx)
	for i, rec := range records {
		p.Go(func(ctx context.Context) error {
			v, err := enc.Encode(rec)
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			batch.SetRow(i, v)
			bar.Increment()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return geomodel.Batch{}, err
	}

	return batch, nil
}
