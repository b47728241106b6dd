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

package climatology

import (
	"math"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/geodata"
	"github.com/spatialmodel/geodata/wrf"
	"gonum.org/v1/gonum/floats"
)

// monthlyDataset returns a dataset with years of monthly data starting
// in January 1979 on a 2x1 grid. T2 in cell (i, 0) and month m of
// year y is 100*i + 10*y + m.
func monthlyDataset(t *testing.T, years int) *geodata.Dataset {
	grid := geodata.NewGridDefinition("test", nil, geodata.NewGeotransform(0, 1, 0, 1), 2, 1)
	n := 12 * years
	tc := make([]float64, n)
	for i := range tc {
		tc[i] = float64(i)
	}
	time := geodata.NewAxis("time", "month", tc)
	data := sparse.ZerosDense(n, 1, 2)
	for m := 0; m < n; m++ {
		for i := 0; i < 2; i++ {
			data.Set(float64(100*i+10*(m/12)+m%12), m, 0, i)
		}
	}
	ds := geodata.NewDataset("test")
	ds.AttachGrid(grid)
	v, err := geodata.NewVariable("T2", "K", data, time, grid.YAxis(), grid.XAxis())
	if err != nil {
		t.Fatal(err)
	}
	v.FillValue, v.HasFillValue = -999, true
	if err := ds.AddVariable(v); err != nil {
		t.Fatal(err)
	}
	zs, err := geodata.NewVariable("zs", "m", sparse.ZerosDense(1, 2), grid.YAxis(), grid.XAxis())
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.AddVariable(zs); err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestAverage(t *testing.T) {
	ds := monthlyDataset(t, 4)
	// A missing value in March 1980 is excluded from the average.
	ds.Variables["T2"].Data.Set(-999, 14, 0, 1)

	clim, err := Average(ds, wrf.Period{Start: 1980, End: 1982}, Origin)
	if err != nil {
		t.Fatal(err)
	}
	T2 := clim.Variables["T2"]
	if T2.Axes[0].Len() != 12 || T2.Axes[1] != ds.Grid.YAxis() || T2.Axes[2] != ds.Grid.XAxis() {
		t.Fatalf("axes %v", T2.Axes)
	}
	// Years 1 and 2 average to 15 in cell 0.
	for m := 0; m < 12; m++ {
		if have, want := T2.Data.Get(m, 0, 0), float64(15+m); have != want {
			t.Errorf("month %d cell 0: have %g, want %g", m, have, want)
		}
	}
	if have := T2.Data.Get(2, 0, 1); have != 122 {
		t.Errorf("March cell 1: have %g, want 122", have)
	}
	if have := T2.Data.Get(3, 0, 1); have != 118 {
		t.Errorf("April cell 1: have %g, want 118", have)
	}
	if !floats.Equal(clim.Variables[LengthOfMonth].Data.Elements, DaysPerMonth[:]) {
		t.Errorf("length of month %v", clim.Variables[LengthOfMonth].Data.Elements)
	}
	if clim.Atts["period"] != "1980-1982" {
		t.Errorf("period %v", clim.Atts["period"])
	}
	if clim.Variables["zs"] == ds.Variables["zs"] || clim.Variables["zs"].Axes[1] != ds.Grid.XAxis() {
		t.Error("zs should be copied along the grid axes")
	}
	if err := clim.CheckAxes(); err != nil {
		t.Error(err)
	}
}

func TestAverageAllMissing(t *testing.T) {
	ds := monthlyDataset(t, 1)
	ds.Variables["T2"].Data.Set(-999, 0, 0, 0)
	clim, err := Average(ds, wrf.Period{Start: 1979, End: 1980}, Origin)
	if err != nil {
		t.Fatal(err)
	}
	if v := clim.Variables["T2"]; !v.IsMissing(v.Data.Get(0, 0, 0)) {
		t.Errorf("have %g, want missing", v.Data.Get(0, 0, 0))
	}
}

func TestAverageErrors(t *testing.T) {
	ds := monthlyDataset(t, 2)
	for _, p := range []wrf.Period{
		{Start: 1978, End: 1980},
		{Start: 1979, End: 1982},
		{Start: 1980, End: 1980},
	} {
		if _, err := Average(ds, p, Origin); err == nil {
			t.Errorf("period %v: want an error", p)
		}
	}
}

func TestPrecipTotal(t *testing.T) {
	time := geodata.NewAxis("time", "month", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	data := sparse.ZerosDense(12)
	for i := range data.Elements {
		data.Elements[i] = 1e-5
	}
	data.Elements[5] = -999
	v, err := geodata.NewVariable("precip", "kg/m^2/s", data, time)
	if err != nil {
		t.Fatal(err)
	}
	v.FillValue, v.HasFillValue = -999, true
	total, err := PrecipTotal(v)
	if err != nil {
		t.Fatal(err)
	}
	if total.Units != PrecipUnits {
		t.Errorf("units %q", total.Units)
	}
	// 1e-5 kg/m^2/s over 31 days is 26.784 mm.
	if have := total.Data.Elements[0]; math.Abs(have-26.784) > 1e-9 {
		t.Errorf("January: have %g, want 26.784", have)
	}
	if have, want := total.Data.Elements[1], 1e-5*28.2425*86400; math.Abs(have-want) > 1e-9 {
		t.Errorf("February: have %g, want %g", have, want)
	}
	if total.Data.Elements[5] != -999 {
		t.Errorf("missing values should be kept")
	}
	if data.Elements[0] != 1e-5 {
		t.Error("the input should not change")
	}

	v.Units = "K"
	if _, err := PrecipTotal(v); err == nil {
		t.Error("want an error for the wrong units")
	}
}
