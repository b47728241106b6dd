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
	"os"
	"sort"
	"testing"

	"github.com/ctessum/cdf"
)

// ncVar is a variable in a test NetCDF file.
type ncVar struct {
	dims []string
	data []float32
	atts map[string]interface{}
}

// writeTestNCF writes a NetCDF file with the given dimensions, global
// attributes and variables.
func writeTestNCF(t *testing.T, path string, dims []string, lengths []int, globals map[string]interface{}, vars map[string]ncVar) {
	h := cdf.NewHeader(dims, lengths)
	var keys []string
	for k := range globals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.AddAttribute("", k, globals[k])
	}
	var names []string
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		v := vars[n]
		h.AddVariable(n, v.dims, []float32{0})
		for k, a := range v.atts {
			h.AddAttribute(n, k, a)
		}
	}
	h.Define()

	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	f, err := cdf.Create(w, h)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		end := f.Header.Lengths(n)
		wr := f.Writer(n, make([]int, len(end)), end)
		if _, err := wr.Write(vars[n].data); err != nil {
			t.Fatalf("writing %s: %v", n, err)
		}
	}
	if err := cdf.UpdateNumRecs(w); err != nil {
		t.Fatal(err)
	}
}

// seq returns n values starting at start.
func seq(start float32, n int) []float32 {
	o := make([]float32, n)
	for i := range o {
		o[i] = start + float32(i)
	}
	return o
}

// lccGlobals returns the global attributes of a WRF domain on a
// Lambert Conformal Conic projection.
func lccGlobals(dx float32, grid, parent, iStart, jStart int32) map[string]interface{} {
	return map[string]interface{}{
		"MAP_PROJ":       []int32{1},
		"TRUELAT1":       []float32{30},
		"TRUELAT2":       []float32{60},
		"CEN_LAT":        []float32{45},
		"CEN_LON":        []float32{-120},
		"DX":             []float32{dx},
		"DY":             []float32{dx},
		"GRID_ID":        []int32{grid},
		"PARENT_ID":      []int32{parent},
		"I_PARENT_START": []int32{iStart},
		"J_PARENT_START": []int32{jStart},
		"TITLE":          "OUTPUT FROM WRF V3.4 MODEL",
	}
}
