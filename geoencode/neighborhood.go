package geoencode

import (
	"math"
	"sort"
)

// overlap widens the speed-derived search window so consecutive encodings
// of a moving record share active cells.
const overlap = 1.5

// radiusFor returns the half-width of the square neighbor window for a
// given speed, floored so the window always holds at least w cells.
func radiusFor(speed float64, timestep, scale, w int) int {
	cells := speed * float64(timestep) / float64(scale)
	radius := int(math.Round(cells / 2 * overlap))
	minRadius := int(math.Ceil((math.Sqrt(float64(w)) - 1) / 2))
	if radius < minRadius {
		radius = minRadius
	}
	return radius
}

// neighbors enumerates the (2*radius+1)² window around center in
// row-major order: latitude-major, longitude-minor, both ascending.
func neighbors(center OrderKey, radius int) []OrderKey {
	side := 2*radius + 1
	cells := make([]OrderKey, 0, side*side)
	for lat := center.Lat - radius; lat <= center.Lat+radius; lat++ {
		for lon := center.Lon - radius; lon <= center.Lon+radius; lon++ {
			cells = append(cells, OrderKey{Lat: lat, Lon: lon})
		}
	}
	return cells
}

// selectTop keeps the w cells with the highest order values. The sort is
// stable over the generation order, so equal ranks keep enumeration order.
func selectTop(cells []OrderKey, w int) []OrderKey {
	ranked := make([]struct {
		cell  OrderKey
		order uint64
	}, len(cells))
	for i, c := range cells {
		ranked[i].cell = c
		ranked[i].order = orderValue(c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].order < ranked[j].order
	})

	if len(ranked) > w {
		ranked = ranked[len(ranked)-w:]
	}

	top := make([]OrderKey, len(ranked))
	for i, r := range ranked {
		top[i] = r.cell
	}
	return top
}
