package geoencode

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

func TestProjectionOrigin(t *testing.T) {
	cell := cellOf(0, 0, 5)
	if cell.Lat != 0 || cell.Lon != 0 {
		t.Fatalf("expected origin cell, got %+v", cell)
	}
}

func TestProjectionAntimeridian(t *testing.T) {
	// spherical Mercator: x(180°) = R*pi with R = 6378137
	p := project.WGS84.ToMercator(orb.Point{180, 0})
	want := 6378137 * math.Pi
	if math.Abs(p[0]-want) > 1 {
		t.Fatalf("expected x ≈ %f, got %f", want, p[0])
	}
}

func TestCellTruncatesTowardZero(t *testing.T) {
	east := cellOf(0, 0.00001, 1000)
	west := cellOf(0, -0.00001, 1000)

	// ~1.1m east and west of the prime meridian land in the same cell
	// when quantization truncates instead of flooring
	if east.Lon != 0 || west.Lon != 0 {
		t.Fatalf("expected lon cell 0 on both sides, got east %d west %d", east.Lon, west.Lon)
	}
}

func TestCellScaleMonotonic(t *testing.T) {
	coarse := cellOf(40.0, -73.0, 500)
	fine := cellOf(40.0, -73.0, 5)

	if abs(fine.Lat) < abs(coarse.Lat) || abs(fine.Lon) < abs(coarse.Lon) {
		t.Fatalf("finer scale must not shrink cell magnitude: fine %+v coarse %+v", fine, coarse)
	}
}

func TestCellDeterminism(t *testing.T) {
	a := cellOf(40.0, -73.0, 5)
	b := cellOf(40.0, -73.0, 5)
	if a != b {
		t.Fatalf("projection not deterministic: %+v != %+v", a, b)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
