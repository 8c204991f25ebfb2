package geoencode

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/royalcat/geosdr/geomodel"
)

// ErrDigitOverflow reports a scaled value that does not fit the digit
// width precomputed from the encoder configuration.
var ErrDigitOverflow = errors.New("scaled value out of digit range")

// AltGeoConfig fixes the policy of an AltGeoEncoder.
type AltGeoConfig struct {
	// GeoPrecision is the number of decimal places kept for latitude and
	// longitude before digit encoding.
	GeoPrecision int
	// SpeedPrecision is the number of decimal places kept for speed.
	SpeedPrecision int
	// SpeedMax bounds the representable speed and sizes its digit block.
	SpeedMax float64
}

func AltGeoConfigDefault() AltGeoConfig {
	return AltGeoConfig{
		GeoPrecision:   6,
		SpeedPrecision: 1,
		SpeedMax:       140,
	}
}

// AltGeoEncoder shifts and scales latitude, longitude and speed into
// non-negative integers, renders each as a zero-padded decimal digit
// string, and one-hot encodes every digit into a 10-wide block. The
// blocks are concatenated latitude first, then longitude, then speed.
type AltGeoEncoder struct {
	cfg AltGeoConfig

	geoConst   float64
	speedConst float64
	geoDigits  int
	spdDigits  int
}

func NewAltGeoEncoder(cfg AltGeoConfig) (*AltGeoEncoder, error) {
	if cfg.GeoPrecision < 0 || cfg.SpeedPrecision < 0 {
		return nil, fmt.Errorf("altgeo encoder: precisions must be non-negative, got %+v", cfg)
	}
	if cfg.SpeedMax <= 0 {
		return nil, fmt.Errorf("altgeo encoder: speed max must be positive, got %v", cfg.SpeedMax)
	}

	geoConst := math.Pow(10, float64(cfg.GeoPrecision))
	speedConst := math.Pow(10, float64(cfg.SpeedPrecision))

	return &AltGeoEncoder{
		cfg:        cfg,
		geoConst:   geoConst,
		speedConst: speedConst,
		geoDigits:  len(strconv.Itoa(int(360 * geoConst))),
		spdDigits:  len(strconv.Itoa(int(cfg.SpeedMax * speedConst))),
	}, nil
}

func (e *AltGeoEncoder) Width() int {
	return e.geoDigits*10 + e.geoDigits*10 + e.spdDigits*10
}

func (e *AltGeoEncoder) Identity() string {
	return fmt.Sprintf("altgeo/g_prec=%d,s_prec=%d,s_max=%v",
		e.cfg.GeoPrecision, e.cfg.SpeedPrecision, e.cfg.SpeedMax)
}

func (e *AltGeoEncoder) Encode(rec geomodel.Record) ([]float32, error) {
	lat := int(math.Floor((rec.Latitude + 90) * e.geoConst))
	lon := int(math.Floor((rec.Longitude + 180) * e.geoConst))
	spd := int(math.Floor(rec.Speed * e.speedConst))

	out := make([]float32, e.Width())

	block := 0
	for _, v := range []struct {
		name   string
		value  int
		digits int
	}{
		{"latitude", lat, e.geoDigits},
		{"longitude", lon, e.geoDigits},
		{"speed", spd, e.spdDigits},
	} {
		if err := encodeDigits(out, block, v.value, v.digits); err != nil {
			return nil, fmt.Errorf("%s %v: %w", v.name, v.value, err)
		}
		block += v.digits
	}

	return out, nil
}

// encodeDigits one-hot encodes value as a zero-padded digit string of the
// given width, starting at digit block. Every block gets exactly one
// active position; a value too wide (or negative) is an error rather
// than a silent misalignment of the remaining blocks.
func encodeDigits(out []float32, block, value, width int) error {
	if value < 0 {
		return fmt.Errorf("%w: negative", ErrDigitOverflow)
	}
	s := strconv.Itoa(value)
	if len(s) > width {
		return fmt.Errorf("%w: %d digits, block holds %d", ErrDigitOverflow, len(s), width)
	}

	pad := width - len(s)
	for i, c := range s {
		out[(block+pad+i)*10+int(c-'0')] = 1
	}
	// leading zero digits
	for i := 0; i < pad; i++ {
		out[(block+i)*10] = 1
	}
	return nil
}
