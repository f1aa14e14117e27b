/*
timeseries.go CSV ingestion for the driving time series (price, load, PV,
temperature). The core never reads files; these helpers exist for the
instance generator, which consumes plain numeric sequences aligned to the
time window.
*/

package scenario

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// ReadSeries reads one named column of a headed CSV file as a float series.
func ReadSeries(path string, column string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("scenario: %s has no data rows", path)
	}

	col := -1
	for i, name := range records[0] {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("scenario: column %q not found in %s", column, path)
	}

	series := make([]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		v, err := strconv.ParseFloat(record[col], 64)
		if err != nil {
			return nil, fmt.Errorf("scenario: %s row %d column %q: %v", path, i+1, column, err)
		}
		series = append(series, v)
	}
	return series, nil
}

// Normalize divides a series by its mean, so the result has mean 1.
func Normalize(series []float64) ([]float64, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("scenario: cannot normalize an empty series")
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	if sum == 0 {
		return nil, fmt.Errorf("scenario: cannot normalize a zero-mean series")
	}
	mean := sum / float64(len(series))

	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = v / mean
	}
	return out, nil
}

// Window slices a series to [begin, begin+horizon).
func Window(series []float64, begin int, horizon int) ([]float64, error) {
	if begin < 0 || horizon < 1 || begin+horizon > len(series) {
		return nil, fmt.Errorf("scenario: window [%d, %d) outside series of length %d", begin, begin+horizon, len(series))
	}
	out := make([]float64, horizon)
	copy(out, series[begin:begin+horizon])
	return out, nil
}
