package test

import (
	"fmt"
	"math"
	"os"
	"strings"
)

const (
	// roughly the Moscow ring road, dense enough that neighboring rows
	// share grid cells
	trackOriginLat = 55.7558
	trackOriginLon = 37.6173

	trackStepDeg = 0.0005
)

// writeTrackCSV generates a synthetic drive of n telemetry rows along a
// circular track and writes it as a CSV file.
func writeTrackCSV(fileName string, n int) error {
	var sb strings.Builder
	sb.WriteString("speed,latitude,longitude\n")
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		lat := trackOriginLat + trackStepDeg*float64(n)*math.Sin(angle)/100
		lon := trackOriginLon + trackStepDeg*float64(n)*math.Cos(angle)/100
		speed := 20 + 15*math.Sin(angle*3)
		fmt.Fprintf(&sb, "%.2f,%.6f,%.6f\n", speed, lat, lon)
	}
	return os.WriteFile(fileName, []byte(sb.String()), 0644)
}
