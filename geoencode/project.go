package geoencode

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// cellOf projects a WGS84 coordinate onto spherical Mercator meters and
// quantizes it to an integer grid cell. The division truncates toward
// zero, so cells straddle the origin symmetrically.
func cellOf(lat, lon float64, scale int) OrderKey {
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return OrderKey{
		Lat: int(p[1] / float64(scale)),
		Lon: int(p[0] / float64(scale)),
	}
}
