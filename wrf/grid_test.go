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
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/geodata"
)

func testSources() []MetadataSource {
	return []MetadataSource{
		&StaticMetadata{
			Name: "d01",
			Attributes: map[string]float64{
				"MAP_PROJ": 1, "TRUELAT1": 30, "TRUELAT2": 60, "CEN_LAT": 45, "CEN_LON": -120,
				"DX": 10000, "DY": 10000,
			},
			Dimensions: map[string]int{"west_east": 100, "south_north": 80, "Time": 1},
		},
		&StaticMetadata{
			Name: "d02",
			Attributes: map[string]float64{
				"MAP_PROJ": 1, "DX": 10000. / 3, "DY": 10000. / 3,
				"GRID_ID": 2, "PARENT_ID": 1, "I_PARENT_START": 20, "J_PARENT_START": 10,
			},
			Dimensions: map[string]int{"x": 90, "y": 60},
		},
	}
}

// withAttribute returns a copy of the source of domain d with attribute
// name set to val.
func withAttribute(sources []MetadataSource, d int, name string, val float64) []MetadataSource {
	out := append([]MetadataSource(nil), sources...)
	m := *out[d-1].(*StaticMetadata)
	m.Attributes = make(map[string]float64)
	for k, v := range out[d-1].(*StaticMetadata).Attributes {
		m.Attributes[k] = v
	}
	m.Attributes[name] = val
	out[d-1] = &m
	return out
}

func TestInferGrids(t *testing.T) {
	grids, err := InferGrids("test", testSources(), 2, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(grids) != 2 {
		t.Fatalf("have %d grids, want 2", len(grids))
	}
	for i, want := range []struct {
		name           string
		x0, dx, y0, dy float64
		nx, ny         int
	}{
		{name: "test_d01", x0: 500000, dx: 10000, y0: 400000, dy: 10000, nx: 100, ny: 80},
		{name: "test_d02", x0: 700000, dx: 10000. / 3, y0: 500000, dy: 10000. / 3, nx: 90, ny: 60},
	} {
		g := grids[i]
		if g.Name != want.name {
			t.Errorf("grid %d: name %s, want %s", i, g.Name, want.name)
		}
		wantGT := geodata.NewGeotransform(want.x0, want.dx, want.y0, want.dy)
		if g.Geotransform != wantGT {
			t.Errorf("%s: geotransform %v, want %v", g.Name, g.Geotransform, wantGT)
		}
		if g.Nx != want.nx || g.Ny != want.ny {
			t.Errorf("%s: size (%d, %d), want (%d, %d)", g.Name, g.Nx, g.Ny, want.nx, want.ny)
		}
		if g.Projection == nil || g.Projection.Lat1 != 30 || g.Projection.Lat2 != 60 ||
			g.Projection.Lat0 != 45 || g.Projection.Lon0 != -120 {
			t.Errorf("%s: projection %+v", g.Name, g.Projection)
		}
	}
}

func TestInferGridsNestedOnly(t *testing.T) {
	grids, err := InferGrids("test", testSources(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(grids) != 1 || grids[0].Name != "test_d02" {
		t.Fatalf("have %v", grids)
	}
	if x0, y0 := grids[0].Geotransform.Origin(); x0 != 700000 || y0 != 500000 {
		t.Errorf("origin (%g, %g), want (700000, 500000)", x0, y0)
	}
}

func TestInferGridsErrors(t *testing.T) {
	sources := testSources()
	noDims := append([]MetadataSource(nil), sources...)
	noDims[1] = &StaticMetadata{Name: "d02", Attributes: sources[1].(*StaticMetadata).Attributes}

	t.Run("projection", func(t *testing.T) {
		_, err := InferGrids("test", withAttribute(sources, 1, "MAP_PROJ", 3), 1)
		var pe *UnsupportedProjectionError
		if !errors.As(err, &pe) {
			t.Fatalf("have %v, want UnsupportedProjectionError", err)
		}
		if pe.Code != 3 {
			t.Errorf("code %d, want 3", pe.Code)
		}
	})
	t.Run("missing parent", func(t *testing.T) {
		_, err := InferGrids("test", []MetadataSource{nil, sources[1]}, 2)
		var me *MissingDependencyError
		if !errors.As(err, &me) {
			t.Fatalf("have %v, want MissingDependencyError", err)
		}
		if me.Domain != 1 || me.Requested {
			t.Errorf("have %+v", me)
		}
	})
	t.Run("missing requested", func(t *testing.T) {
		_, err := InferGrids("test", sources[:1], 1, 2)
		var me *MissingDependencyError
		if !errors.As(err, &me) || me.Domain != 2 || !me.Requested {
			t.Fatalf("have %v", err)
		}
	})
	t.Run("unreadable file", func(t *testing.T) {
		_, err := InferGrids("test", []MetadataSource{ConstantsFile("does/not/exist.nc")}, 1)
		var me *MissingDependencyError
		if !errors.As(err, &me) {
			t.Fatalf("have %v, want MissingDependencyError", err)
		}
		if !os.IsNotExist(errors.Unwrap(me)) {
			t.Errorf("cause: %v", me.Err)
		}
	})
	t.Run("horizontal axes", func(t *testing.T) {
		_, err := InferGrids("test", noDims, 2)
		var he *NoHorizontalAxisError
		if !errors.As(err, &he) || he.Domain != 2 {
			t.Fatalf("have %v, want NoHorizontalAxisError", err)
		}
	})
	for _, test := range []struct {
		attribute string
		value     float64
	}{
		{"GRID_ID", 3},
		{"PARENT_ID", 2},
		{"PARENT_ID", 0},
	} {
		t.Run(test.attribute, func(t *testing.T) {
			_, err := InferGrids("test", withAttribute(sources, 2, test.attribute, test.value), 2)
			var ie *InconsistentDomainIDError
			if !errors.As(err, &ie) {
				t.Fatalf("have %v, want InconsistentDomainIDError", err)
			}
			if ie.Attribute != test.attribute || ie.Declared != int(test.value) {
				t.Errorf("have %+v", ie)
			}
		})
	}
	t.Run("no domains", func(t *testing.T) {
		if _, err := InferGrids("test", sources); err == nil {
			t.Error("want an error")
		}
		if _, err := InferGrids("test", sources, 0); err == nil {
			t.Error("want an error")
		}
	})
}

func TestInferGridsNetCDF(t *testing.T) {
	dir, err := ioutil.TempDir("", "wrf")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	writeTestNCF(t, filepath.Join(dir, "wrfconst_d01.nc"),
		[]string{"Time", "south_north", "west_east"}, []int{1, 3, 4},
		lccGlobals(10000, 1, 1, 1, 1),
		map[string]ncVar{"HGT": {dims: []string{"Time", "south_north", "west_east"}, data: seq(0, 12)}})
	writeTestNCF(t, filepath.Join(dir, "wrfconst_d02.nc"),
		[]string{"Time", "south_north", "west_east"}, []int{1, 3, 3},
		lccGlobals(5000, 2, 1, 1, 1),
		map[string]ncVar{"HGT": {dims: []string{"Time", "south_north", "west_east"}, data: seq(0, 9)}})

	grids, err := InferGrids("ncf", ConstantsFiles(dir, Const, 2), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []geodata.Geotransform{
		geodata.NewGeotransform(20000, 10000, 15000, 10000),
		geodata.NewGeotransform(30000, 5000, 25000, 5000),
	}
	for i, g := range grids {
		if g.Geotransform != want[i] {
			t.Errorf("%s: have %v, want %v", g.Name, g.Geotransform, want[i])
		}
	}
	if !strings.HasSuffix(ConstantsFiles(dir, Const, 1)[0].String(), "wrfconst_d01.nc") {
		t.Errorf("source name: %s", ConstantsFiles(dir, Const, 1)[0])
	}
	if ConstantsFiles(dir, Axes, 1) != nil {
		t.Error("axes have no files")
	}
}
