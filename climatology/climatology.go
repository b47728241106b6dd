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

// Package climatology computes monthly climatologies from monthly
// time series and resamples them onto other grids.
package climatology

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
	"github.com/spatialmodel/geodata"
	"github.com/spatialmodel/geodata/wrf"
)

// Origin is the year in which the monthly time series of the WRF
// experiments begin. Their time axis counts months since January of
// that year.
const Origin = 1979

// DaysPerMonth is the average length of each month, including 97 leap
// days every 400 years.
var DaysPerMonth = [12]float64{31, 28.2425, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// MonthNames are the names of the months.
var MonthNames = [12]string{"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

// TimeAxis is the name of the time axis.
const TimeAxis = "time"

// LengthOfMonth is the name of the variable that holds DaysPerMonth in
// climatologies.
const LengthOfMonth = "length_of_month"

// Average computes the 12-month climatology of the monthly time series in
// ds over period, where the time axis of ds counts months since January of
// the year origin. Missing values are excluded from the averages; a
// month without any valid values is missing in the result. Variables
// without a time axis are copied unchanged. The result shares the grid
// and all non-time axes of ds.
func Average(ds *geodata.Dataset, period wrf.Period, origin int) (*geodata.Dataset, error) {
	years := period.Years()
	if years < 1 {
		return nil, fmt.Errorf("climatology: invalid period %v", period)
	}
	time, ok := ds.Axes[TimeAxis]
	if !ok {
		return nil, fmt.Errorf("climatology: dataset %s has no %s axis", ds.Name, TimeAxis)
	}
	offset := time.Index(float64((period.Start - origin) * 12))
	if offset < 0 {
		return nil, fmt.Errorf("climatology: dataset %s does not include January %d", ds.Name, period.Start)
	}
	if offset+12*years > time.Len() {
		return nil, fmt.Errorf("climatology: dataset %s has %d months after January %d; period %v needs %d",
			ds.Name, time.Len()-offset, period.Start, period, 12*years)
	}

	out := geodata.NewDataset(ds.Name)
	for k, v := range ds.Atts {
		out.Atts[k] = v
	}
	out.Atts["period"] = period.String()
	months := geodata.NewAxis(TimeAxis, "month", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	months.LongName = "month of the year"
	if err := out.AddAxis(months); err != nil {
		return nil, err
	}
	for _, name := range ds.VariableNames() {
		v := ds.Variables[name]
		var nv *geodata.Variable
		var err error
		if k := v.AxisIndex(TimeAxis); k < 0 {
			nv, err = copyVariable(v, v.Axes, v.Data.Copy())
		} else {
			nv, err = average(v, k, months, offset, years)
		}
		if err != nil {
			return nil, err
		}
		if err := out.AddVariable(nv); err != nil {
			return nil, err
		}
	}
	lom := sparse.ZerosDense(12)
	copy(lom.Elements, DaysPerMonth[:])
	v, err := geodata.NewVariable(LengthOfMonth, "days", lom, months)
	if err != nil {
		return nil, err
	}
	v.Atts["long_name"] = "Length of Month"
	if err := out.AddVariable(v); err != nil {
		return nil, err
	}
	if ds.Grid != nil {
		out.AttachGrid(ds.Grid)
		if err := out.CheckAxes(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// copyVariable returns a copy of v with the given axes and data.
func copyVariable(v *geodata.Variable, axes []*geodata.Axis, data *sparse.DenseArray) (*geodata.Variable, error) {
	nv, err := geodata.NewVariable(v.Name, v.Units, data, axes...)
	if err != nil {
		return nil, err
	}
	for k, a := range v.Atts {
		nv.Atts[k] = a
	}
	nv.FillValue, nv.HasFillValue = v.FillValue, v.HasFillValue
	return nv, nil
}

// average averages v, whose time axis is at position k, over years
// years beginning at time index offset.
func average(v *geodata.Variable, k int, months *geodata.Axis, offset, years int) (*geodata.Variable, error) {
	axes := append([]*geodata.Axis(nil), v.Axes...)
	axes[k] = months
	shape := append([]int(nil), v.Data.Shape...)
	shape[k] = 12
	data := sparse.ZerosDense(shape...)
	fill := math.NaN()
	if v.HasFillValue {
		fill = v.FillValue
	}
	for i := range data.Elements {
		index := data.IndexNd(i)
		month := index[k]
		var sum float64
		var n int
		for y := 0; y < years; y++ {
			index[k] = offset + 12*y + month
			val := v.Data.Get(index...)
			if v.IsMissing(val) {
				continue
			}
			sum += val
			n++
		}
		if n == 0 {
			data.Elements[i] = fill
		} else {
			data.Elements[i] = sum / float64(n)
		}
	}
	return copyVariable(v, axes, data)
}

var (
	precipFlux   = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -2, unit.TimeDim: -1}
	waterDensity = unit.New(1000, unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -3})
)

// PrecipUnits are the units of precipitation totals.
const PrecipUnits = "mm/month"

// PrecipTotal converts the precipitation flux v (kg/m^2/s) into monthly
// totals (mm/month), using DaysPerMonth. The time axis of v must cover
// whole years starting in January.
func PrecipTotal(v *geodata.Variable) (*geodata.Variable, error) {
	if v.Units != "kg/m^2/s" {
		return nil, fmt.Errorf("climatology: %s has units %q, not a precipitation flux", v.Name, v.Units)
	}
	k := v.AxisIndex(TimeAxis)
	if k < 0 {
		return nil, fmt.Errorf("climatology: %s has no %s axis", v.Name, TimeAxis)
	}
	if v.Data.Shape[k]%12 != 0 {
		return nil, fmt.Errorf("climatology: %s: the record has to start and end at a full year", v.Name)
	}

	// factors converts a flux of 1 kg/m^2/s into the depth of water in
	// millimetres that falls in each month.
	var factors [12]float64
	for m, days := range DaysPerMonth {
		seconds := unit.New(days*86400, unit.Dimensions{unit.TimeDim: 1})
		depth := unit.Div(unit.Mul(unit.New(1, precipFlux), seconds), waterDensity)
		if err := depth.Check(unit.Dimensions{unit.LengthDim: 1}); err != nil {
			return nil, fmt.Errorf("climatology: precipitation total: %v", err)
		}
		factors[m] = depth.Value() * 1000
	}

	data := v.Data.Copy()
	for i, val := range data.Elements {
		if v.IsMissing(val) {
			continue
		}
		month := data.IndexNd(i)[k] % 12
		data.Elements[i] = val * factors[month]
	}
	nv, err := copyVariable(v, v.Axes, data)
	if err != nil {
		return nil, err
	}
	nv.Units = PrecipUnits
	return nv, nil
}
