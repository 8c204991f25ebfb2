package geoencode

import (
	"fmt"

	"github.com/royalcat/geosdr/geomodel"
)

// NumentaConfig fixes the policy of a NumentaEncoder.
type NumentaConfig struct {
	// Scale is the grid cell size in projected meters.
	Scale int
	// W is the number of neighbor cells contributing active bits.
	W int
	// N is the output vector length.
	N int
	// Timestep scales speed into a neighbor search radius.
	Timestep int
}

func NumentaConfigDefault() NumentaConfig {
	return NumentaConfig{
		Scale:    5,
		W:        21,
		N:        1000,
		Timestep: 10,
	}
}

// NumentaEncoder encodes a record as a sparse binary vector: the record's
// coordinate is projected onto a Mercator grid, the w highest-ranked
// cells within a speed-dependent window are selected, and each selected
// cell sets one deterministic bit of the n-length output.
//
// Described in http://chetansurpur.com/slides/2014/8/5/geospatial-encoder.html
type NumentaEncoder struct {
	cfg NumentaConfig
}

func NewNumentaEncoder(cfg NumentaConfig) (*NumentaEncoder, error) {
	if cfg.Scale <= 0 || cfg.W <= 0 || cfg.N <= 0 || cfg.Timestep <= 0 {
		return nil, fmt.Errorf("numenta encoder: all parameters must be positive, got %+v", cfg)
	}
	if cfg.W > cfg.N {
		return nil, fmt.Errorf("numenta encoder: w (%d) must not exceed n (%d)", cfg.W, cfg.N)
	}
	return &NumentaEncoder{cfg: cfg}, nil
}

func (e *NumentaEncoder) Width() int {
	return e.cfg.N
}

func (e *NumentaEncoder) Identity() string {
	return fmt.Sprintf("numenta/scale=%d,w=%d,n=%d,timestep=%d",
		e.cfg.Scale, e.cfg.W, e.cfg.N, e.cfg.Timestep)
}

// Encode returns an n-length vector with at most w active bits.
// Duplicate bit assignments collapse, never clearing a set bit.
func (e *NumentaEncoder) Encode(rec geomodel.Record) ([]float32, error) {
	center := cellOf(rec.Latitude, rec.Longitude, e.cfg.Scale)
	radius := radiusFor(rec.Speed, e.cfg.Timestep, e.cfg.Scale, e.cfg.W)

	out := make([]float32, e.cfg.N)
	for _, cell := range selectTop(neighbors(center, radius), e.cfg.W) {
		out[bitIndex(cell, e.cfg.N)] = 1
	}
	return out, nil
}
