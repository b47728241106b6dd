/*
Copyright © 2019 the GeoData authors.
This file is part of GeoData.

GeoData is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GeoData is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GeoData.  If not, see <http://www.gnu.org/licenses/>.
*/

package areastats

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
	"github.com/spatialmodel/geodata"
	"gonum.org/v1/gonum/stat"
)

// Record is the axis of the results of variables that only have
// horizontal axes.
var Record = geodata.NewAxis("record", "1", []float64{0})

// FluxUnits gives the dimensions of the flux units that Total can
// integrate.
var FluxUnits = map[string]unit.Dimensions{
	"kg/m^2/s": {unit.MassDim: 1, unit.LengthDim: -2, unit.TimeDim: -1},
	"W/m^2":    {unit.MassDim: 1, unit.TimeDim: -3},
}

// records returns the positions of the grid axes of v and the axes
// remaining once they are removed.
func records(v *geodata.Variable, m *Mask) (kx, ky int, rest []*geodata.Axis, err error) {
	kx, ky = v.AxisIndex(m.Grid.XAxis().Name), v.AxisIndex(m.Grid.YAxis().Name)
	if kx < 0 || ky < 0 {
		return -1, -1, nil, fmt.Errorf("areastats: variable %s is not on grid %s", v.Name, m.Grid.Name)
	}
	for _, k := range []int{kx, ky} {
		if a := v.Axes[k]; a != m.Grid.XAxis() && a != m.Grid.YAxis() {
			return -1, -1, nil, &geodata.AxisConsistencyError{Variable: v.Name, Axis: a.Name,
				Reason: fmt.Sprintf("not an axis of the grid of mask %s", m.Name)}
		}
	}
	for k, a := range v.Axes {
		if k != kx && k != ky {
			rest = append(rest, a)
		}
	}
	if len(rest) == 0 {
		rest = []*geodata.Axis{Record}
	}
	return kx, ky, rest, nil
}

// reduce calls f with the valid values of v inside m for each record,
// and returns the results as a variable along the non-horizontal axes
// of v.
func reduce(v *geodata.Variable, m *Mask, units string, f func(vals, areas []float64) float64) (*geodata.Variable, error) {
	kx, ky, rest, err := records(v, m)
	if err != nil {
		return nil, err
	}
	shape := make([]int, len(rest))
	for k, a := range rest {
		shape[k] = a.Len()
	}
	out := sparse.ZerosDense(shape...)
	index := make([]int, len(v.Axes))
	vals := make([]float64, 0, m.Len())
	areas := make([]float64, 0, m.Len())
	for r := range out.Elements {
		outIndex := out.IndexNd(r)
		n := 0
		for k := range index {
			if k == kx || k == ky {
				continue
			}
			index[k] = outIndex[n]
			n++
		}
		vals, areas = vals[:0], areas[:0]
		for _, c := range m.Cells {
			index[kx], index[ky] = c[0], c[1]
			val := v.Data.Get(index...)
			if v.IsMissing(val) {
				continue
			}
			vals = append(vals, val)
			areas = append(areas, m.Grid.CellArea(c[0], c[1]))
		}
		if len(vals) == 0 {
			out.Elements[r] = math.NaN()
			continue
		}
		out.Elements[r] = f(vals, areas)
	}
	nv, err := geodata.NewVariable(v.Name, units, out, rest...)
	if err != nil {
		return nil, err
	}
	nv.Atts["region"] = m.Name
	return nv, nil
}

// Mean returns the mean of v over the cells of m for each combination
// of the non-horizontal indices of v. Missing values are excluded, and
// records without valid values are NaN. Cells are weighted equally.
func Mean(v *geodata.Variable, m *Mask) (*geodata.Variable, error) {
	return reduce(v, m, v.Units, func(vals, _ []float64) float64 {
		return stat.Mean(vals, nil)
	})
}

// Total integrates the flux v over the area of the cells of m for each
// record, in the same order as the elements of the result of Mean.
// Missing values are excluded; records without valid values are NaN.
func Total(v *geodata.Variable, m *Mask) ([]*unit.Unit, error) {
	dims, ok := FluxUnits[v.Units]
	if !ok {
		return nil, fmt.Errorf("areastats: cannot integrate %s with units %q", v.Name, v.Units)
	}
	sums, err := reduce(v, m, v.Units, func(vals, areas []float64) float64 {
		var sum float64
		for i, val := range vals {
			sum += val * areas[i]
		}
		return sum
	})
	if err != nil {
		return nil, err
	}
	area := unit.New(1, unit.Dimensions{unit.LengthDim: 2})
	totals := make([]*unit.Unit, len(sums.Data.Elements))
	for i, s := range sums.Data.Elements {
		totals[i] = unit.Mul(unit.New(s, dims), area)
	}
	return totals, nil
}
