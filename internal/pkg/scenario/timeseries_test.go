package scenario

import (
	"path/filepath"
	"testing"

	"gotest.tools/assert"
)

func testDataPath() string {
	return filepath.Join("testdata", "timeseries_test_data.csv")
}

func TestReadSeries(t *testing.T) {
	series, err := ReadSeries(testDataPath(), "load")
	assert.NilError(t, err)
	assert.Equal(t, len(series), 6)
	assert.Equal(t, series[0], 2.0)
	assert.Equal(t, series[4], 3.0)

	temp, err := ReadSeries(testDataPath(), "temperature")
	assert.NilError(t, err)
	assert.Equal(t, temp[3], 10.5)
}

func TestReadSeriesMissingColumn(t *testing.T) {
	_, err := ReadSeries(testDataPath(), "price")
	assert.Assert(t, err != nil)
}

func TestReadSeriesMissingFile(t *testing.T) {
	_, err := ReadSeries(filepath.Join("testdata", "nope.csv"), "load")
	assert.Assert(t, err != nil)
}

func TestNormalize(t *testing.T) {
	series, err := Normalize([]float64{1, 2, 3})
	assert.NilError(t, err)
	assert.Equal(t, series[0], 0.5)
	assert.Equal(t, series[1], 1.0)
	assert.Equal(t, series[2], 1.5)

	sum := 0.0
	for _, v := range series {
		sum += v
	}
	assert.Equal(t, sum/float64(len(series)), 1.0)
}

func TestNormalizeRejectsDegenerate(t *testing.T) {
	_, err := Normalize(nil)
	assert.Assert(t, err != nil)

	_, err = Normalize([]float64{1, -1})
	assert.Assert(t, err != nil)
}

func TestWindow(t *testing.T) {
	series := []float64{0, 1, 2, 3, 4, 5}

	out, err := Window(series, 2, 3)
	assert.NilError(t, err)
	assert.Equal(t, len(out), 3)
	assert.Equal(t, out[0], 2.0)
	assert.Equal(t, out[2], 4.0)

	// the window is a copy
	out[0] = 99
	assert.Equal(t, series[2], 2.0)
}

func TestWindowOutOfRange(t *testing.T) {
	series := []float64{0, 1, 2}

	_, err := Window(series, -1, 2)
	assert.Assert(t, err != nil)

	_, err = Window(series, 2, 2)
	assert.Assert(t, err != nil)

	_, err = Window(series, 0, 0)
	assert.Assert(t, err != nil)
}
