// Package interp provides bilinear sampling of regular lat/lon grids, with a
// circular variant for phase lags. Grids may carry NaN cells over land;
// sampling renormalizes the corner weights around them.
package interp

import (
	"fmt"
	"math"
	"sort"
)

// Grid is a regular 2D grid. Values is row-major with one row per latitude:
// Values[i*len(Lon)+j] is the value at (Lat[i], Lon[j]). NaN marks a masked
// cell.
type Grid struct {
	Lat    []float64
	Lon    []float64
	Values []float64
}

// Validate checks axis ordering and the value count.
func (g *Grid) Validate() error {
	if len(g.Lat) < 2 || len(g.Lon) < 2 {
		return fmt.Errorf("grid needs at least 2x2 points, got %dx%d", len(g.Lat), len(g.Lon))
	}
	if len(g.Values) != len(g.Lat)*len(g.Lon) {
		return fmt.Errorf("grid has %d values, want %d", len(g.Values), len(g.Lat)*len(g.Lon))
	}
	if !sort.Float64sAreSorted(g.Lat) || !sort.Float64sAreSorted(g.Lon) {
		return fmt.Errorf("grid axes must be ascending")
	}
	return nil
}

func (g *Grid) at(i, j int) float64 {
	return g.Values[i*len(g.Lon)+j]
}

func axisCell(axis []float64, v float64, name string) (int, error) {
	if v < axis[0] || v > axis[len(axis)-1] {
		return 0, fmt.Errorf("%s %.4f outside grid range [%.4f, %.4f]", name, v, axis[0], axis[len(axis)-1])
	}
	idx := sort.SearchFloat64s(axis, v)
	if idx > 0 {
		idx--
	}
	return idx, nil
}

// Sample bilinearly interpolates the grid at (lat, lon). NaN corners are
// dropped and the remaining weights renormalized; a cell with no usable
// corner yields an error.
func (g *Grid) Sample(lat, lon float64) (float64, error) {
	corners, weights, err := g.sampleCell(lat, lon)
	if err != nil {
		return 0, err
	}

	var sum, wsum float64
	for k := range corners {
		if math.IsNaN(corners[k]) {
			continue
		}
		sum += weights[k] * corners[k]
		wsum += weights[k]
	}
	if wsum == 0 {
		return 0, fmt.Errorf("no data at (%.4f, %.4f): all cell corners masked", lat, lon)
	}
	return sum / wsum, nil
}

// SamplePhase interpolates an angle grid in degrees. Corners are averaged on
// the unit circle so a cell straddling the 0/360 wrap interpolates correctly.
func (g *Grid) SamplePhase(lat, lon float64) (float64, error) {
	corners, weights, err := g.sampleCell(lat, lon)
	if err != nil {
		return 0, err
	}

	var x, y, wsum float64
	for k := range corners {
		if math.IsNaN(corners[k]) {
			continue
		}
		rad := corners[k] * math.Pi / 180
		x += weights[k] * math.Cos(rad)
		y += weights[k] * math.Sin(rad)
		wsum += weights[k]
	}
	if wsum == 0 {
		return 0, fmt.Errorf("no data at (%.4f, %.4f): all cell corners masked", lat, lon)
	}
	deg := math.Atan2(y, x) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg, nil
}

// sampleCell locates the cell containing (lat, lon) and returns its corner
// values and bilinear weights in the order (i,j), (i,j+1), (i+1,j), (i+1,j+1).
func (g *Grid) sampleCell(lat, lon float64) (corners, weights [4]float64, err error) {
	if err = g.Validate(); err != nil {
		return corners, weights, err
	}

	i, err := axisCell(g.Lat, lat, "latitude")
	if err != nil {
		return corners, weights, err
	}
	j, err := axisCell(g.Lon, lon, "longitude")
	if err != nil {
		return corners, weights, err
	}

	u := (lat - g.Lat[i]) / (g.Lat[i+1] - g.Lat[i])
	t := (lon - g.Lon[j]) / (g.Lon[j+1] - g.Lon[j])
	u = math.Max(0, math.Min(1, u))
	t = math.Max(0, math.Min(1, t))

	corners = [4]float64{g.at(i, j), g.at(i, j+1), g.at(i+1, j), g.at(i+1, j+1)}
	weights = [4]float64{(1 - u) * (1 - t), (1 - u) * t, u * (1 - t), u * t}
	return corners, weights, nil
}
