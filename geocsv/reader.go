// Package geocsv reads raw telemetry CSV files into records.
package geocsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"

	"github.com/royalcat/geosdr/geomodel"
)

// Required header columns. Column order is free and extra columns are
// ignored.
const (
	columnSpeed     = "speed"
	columnLatitude  = "latitude"
	columnLongitude = "longitude"
)

var ErrMissingColumn = errors.New("geocsv: missing required column")

// ReadFile reads a telemetry CSV from disk with a progress bar over the
// file size. A missing file surfaces as the os.Open error.
func ReadFile(path string) ([]geomodel.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	bar := pb.Start64(stat.Size())
	bar.Set("prefix", "reading "+path)
	bar.Set(pb.Bytes, true)
	bar.SetRefreshRate(time.Second)
	if w, err := termutil.TerminalWidth(); w == 0 || err != nil {
		bar.SetTemplateString(`{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{percent . }}{{with string . "suffix"}} {{.}}{{end}}` + "\n")
	}
	defer bar.Finish()

	return Read(bar.NewProxyReader(file))
}

// Read parses telemetry records from tabular text. The header row is
// required and must name the speed, latitude and longitude columns.
func Read(r io.Reader) ([]geomodel.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("geocsv: reading header: %w", err)
	}

	speedIdx, latIdx, lonIdx := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case columnSpeed:
			speedIdx = i
		case columnLatitude:
			latIdx = i
		case columnLongitude:
			lonIdx = i
		}
	}
	for _, col := range []struct {
		name string
		idx  int
	}{
		{columnSpeed, speedIdx},
		{columnLatitude, latIdx},
		{columnLongitude, lonIdx},
	} {
		if col.idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col.name)
		}
	}

	var records []geomodel.Record
	for row := 1; ; row++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("geocsv: row %d: %w", row, err)
		}

		var rec geomodel.Record
		if rec.Speed, err = parseField(fields, speedIdx); err != nil {
			return nil, fmt.Errorf("geocsv: row %d, column %s: %w", row, columnSpeed, err)
		}
		if rec.Latitude, err = parseField(fields, latIdx); err != nil {
			return nil, fmt.Errorf("geocsv: row %d, column %s: %w", row, columnLatitude, err)
		}
		if rec.Longitude, err = parseField(fields, lonIdx); err != nil {
			return nil, fmt.Errorf("geocsv: row %d, column %s: %w", row, columnLongitude, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseField(fields []string, idx int) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(fields[idx]), 64)
}
