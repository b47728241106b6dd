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

package wrf

import (
	"reflect"
	"testing"

	"github.com/kr/pretty"
)

func TestTranslate(t *testing.T) {
	for _, test := range []struct {
		targets    []string
		categories []FileCategory
		want       []string
	}{
		{targets: []string{"precip"}, categories: []FileCategory{Srfc}, want: []string{"RAIN"}},
		{targets: []string{"unknownvar"}, categories: []FileCategory{Srfc}, want: []string{"unknownvar"}},
		{targets: []string{"T2", "precip", "T2"}, categories: []FileCategory{Srfc, Hydro}, want: []string{"RAIN", "T2"}},
		{targets: []string{"T", "p"}, categories: []FileCategory{Plev3D, Axes}, want: []string{"T_PL", "num_press_levels_stag"}},
		{targets: []string{"x"}, categories: []FileCategory{Axes}, want: []string{"west_east", "x"}},
		{targets: nil, categories: []FileCategory{Srfc}, want: []string{}},
	} {
		have := Translate(test.targets, test.categories...)
		if !reflect.DeepEqual(have, test.want) {
			t.Errorf("Translate(%v, %v): %v", test.targets, test.categories, pretty.Diff(have, test.want))
		}
	}
}

func TestFileNames(t *testing.T) {
	period := Period{Start: 1979, End: 1989}
	for _, test := range []struct {
		c        FileCategory
		domain   int
		grid     string
		ts, clim string
	}{
		{c: Const, domain: 1, grid: "", ts: "wrfconst_d01.nc", clim: "wrfconst_d01.nc"},
		{c: Const, domain: 2, grid: "ARB_small_05", ts: "wrfconst_d02.nc", clim: "wrfconst_d02_arb_small_05.nc"},
		{c: Srfc, domain: 2, grid: "WRF", ts: "wrfsrfc_d02_monthly.nc", clim: "wrfsrfc_d02_clim_1979-1989.nc"},
		{c: Hydro, domain: 1, grid: "", ts: "wrfhydro_d01_monthly.nc", clim: "wrfhydro_d01_clim_1979-1989.nc"},
		{c: Xtrm, domain: 1, grid: "arb2", ts: "wrfxtrm_d01_monthly.nc", clim: "wrfxtrm_d01_arb2_clim_1979-1989.nc"},
		{c: Plev3D, domain: 12, grid: "", ts: "wrfplev3d_d12_monthly.nc", clim: "wrfplev3d_d12_clim_1979-1989.nc"},
	} {
		ts, ok := test.c.TimeSeriesFile(test.domain)
		if !ok || ts != test.ts {
			t.Errorf("%v: time series file %q, want %q", test.c, ts, test.ts)
		}
		clim, ok := test.c.ClimatologyFile(test.domain, GridSuffix(test.grid), period.Suffix())
		if !ok || clim != test.clim {
			t.Errorf("%v: climatology file %q, want %q", test.c, clim, test.clim)
		}
	}
	if _, ok := Axes.TimeSeriesFile(1); ok {
		t.Error("axes should have no time series file")
	}
	if _, ok := Axes.ClimatologyFile(1, "", ""); ok {
		t.Error("axes should have no climatology file")
	}
	if s := (Period{}).Suffix(); s != "" {
		t.Errorf("zero period suffix %q", s)
	}
	if y := period.Years(); y != 10 {
		t.Errorf("years: %d", y)
	}
}

func TestAttributesAreCopies(t *testing.T) {
	a := Srfc.Attributes()
	a["RAIN"] = VarAtts{Name: "changed"}
	delete(a, "T2")
	b := Srfc.Attributes()
	if b["RAIN"].Name != "precip" {
		t.Errorf("registry was modified: %+v", b["RAIN"])
	}
	if _, ok := b["T2"]; !ok {
		t.Error("registry lost T2")
	}
	if tpl := Plev3D.Attributes()["T_PL"]; !tpl.HasFillValue || tpl.FillValue != -999 {
		t.Errorf("pressure-level fill value: %+v", tpl)
	}
}

func TestParseFileCategory(t *testing.T) {
	for _, c := range Categories {
		have, err := ParseFileCategory(c.String())
		if err != nil {
			t.Fatal(err)
		}
		if have != c {
			t.Errorf("have %v, want %v", have, c)
		}
	}
	if c, err := ParseFileCategory("PLEV3D"); err != nil || c != Plev3D {
		t.Errorf("case insensitive parse: %v, %v", c, err)
	}
	if _, err := ParseFileCategory("rad"); err == nil {
		t.Error("want an error")
	}
}
