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
	"context"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
	goshp "github.com/jonas-p/go-shp"
	"github.com/kr/pretty"
	"github.com/spatialmodel/geodata"
	"gonum.org/v1/gonum/floats"
)

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}}
}

var (
	basinA = square(0.2, 0.2, 2.2, 1.8)
	basinB = square(2.2, 2.2, 3.8, 3.8)
)

func testGrid() *geodata.GridDefinition {
	return geodata.NewGridDefinition("test", nil, geodata.NewGeotransform(0, 1, 0, 1), 4, 4)
}

// writeBasins writes basinA and basinB to a shapefile in dir, with their
// names in the NAME field.
func writeBasins(t *testing.T, dir string) string {
	path := filepath.Join(dir, "basins.shp")
	e, err := shp.NewEncoderFromFields(path, goshp.POLYGON, goshp.StringField("NAME", 20))
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range []struct {
		name string
		p    geom.Polygon
	}{{"A", basinA}, {"B", basinB}} {
		if err := e.EncodeFields(b.p, b.name); err != nil {
			t.Fatal(err)
		}
	}
	e.Close()
	if err := ioutil.WriteFile(filepath.Join(dir, "basins.prj"), []byte("+proj=longlat"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewMask(t *testing.T) {
	m, err := NewMask("A", testGrid(), []geom.Polygonal{basinA}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	if !reflect.DeepEqual(m.Cells, want) {
		t.Errorf("cells: %v", pretty.Diff(m.Cells, want))
	}
}

func TestNewMaskProjected(t *testing.T) {
	p := &geodata.Projection{Kind: geodata.LambertConformalConic, Lat1: 30, Lat2: 60, Lat0: 45, Lon0: -120}
	grid := geodata.NewGridDefinition("lcc", p, geodata.NewGeotransform(-20000, 10000, -20000, 10000), 4, 4)
	lonlat, err := (*geodata.Projection)(nil).SR()
	if err != nil {
		t.Fatal(err)
	}
	// About 15 km by 21 km around the projection origin.
	m, err := NewMask("origin", grid, []geom.Polygonal{square(-120.1, 44.9, -119.9, 45.1)}, lonlat)
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{1, 1}, {2, 1}, {1, 2}, {2, 2}}
	if !reflect.DeepEqual(m.Cells, want) {
		t.Errorf("cells: %v", pretty.Diff(m.Cells, want))
	}
}

func TestMaskFromShapefile(t *testing.T) {
	dir, err := ioutil.TempDir("", "areastats")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := writeBasins(t, dir)
	grid := testGrid()

	m, err := MaskFromShapefile(grid, path, "NAME", "B")
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{2, 2}, {3, 2}, {2, 3}, {3, 3}}
	if m.Name != "B" || !reflect.DeepEqual(m.Cells, want) {
		t.Errorf("mask %s: %v", m.Name, pretty.Diff(m.Cells, want))
	}

	all, err := MaskFromShapefile(grid, path, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if all.Name != "basins" || all.Len() != 8 {
		t.Errorf("mask %s has %d cells", all.Name, all.Len())
	}

	if _, err := MaskFromShapefile(grid, path, "NAME", "C"); err == nil {
		t.Error("want an error for a missing shape")
	}
	if _, err := MaskFromShapefile(grid, filepath.Join(dir, "nope.shp"), "", ""); err == nil {
		t.Error("want an error for a missing file")
	}

	c := NewMaskCache(2)
	m1, err := c.Mask(context.Background(), grid, path, "NAME", "A")
	if err != nil {
		t.Fatal(err)
	}
	m2, err := c.Mask(context.Background(), grid, path, "NAME", "A")
	if err != nil {
		t.Fatal(err)
	}
	if m1 != m2 || m1.Len() != 4 {
		t.Error("the cache should return the same mask")
	}
}

func TestMean(t *testing.T) {
	grid := testGrid()
	m, err := NewMask("A", grid, []geom.Polygonal{basinA}, nil)
	if err != nil {
		t.Fatal(err)
	}
	time := geodata.NewAxis("time", "month", []float64{1, 2})
	data := sparse.ZerosDense(2, 4, 4)
	for i := range data.Elements {
		index := data.IndexNd(i)
		data.Elements[i] = float64(100*index[0] + 10*index[1] + index[2])
	}
	data.Set(-1, 1, 1, 1)
	v, err := geodata.NewVariable("T2", "K", data, time, grid.YAxis(), grid.XAxis())
	if err != nil {
		t.Fatal(err)
	}
	v.FillValue, v.HasFillValue = -1, true

	mean, err := Mean(v, m)
	if err != nil {
		t.Fatal(err)
	}
	if mean.Axes[0] != time || mean.Units != "K" || mean.Atts["region"] != "A" {
		t.Errorf("mean: %# v", pretty.Formatter(mean))
	}
	want := []float64{5.5, 311. / 3}
	if !floats.EqualApprox(mean.Data.Elements, want, 1e-12) {
		t.Errorf("have %v, want %v", mean.Data.Elements, want)
	}

	other := geodata.NewGridDefinition("other", nil, geodata.NewGeotransform(0, 1, 0, 1), 4, 4)
	if _, err := Mean(v, &Mask{Name: "A", Grid: other}); err == nil {
		t.Error("want an error for a mask on a different grid")
	}
}

func TestTotal(t *testing.T) {
	p := &geodata.Projection{Kind: geodata.LambertConformalConic, Lat1: 30, Lat2: 60, Lat0: 45, Lon0: -120}
	grid := geodata.NewGridDefinition("lcc", p, geodata.NewGeotransform(0, 1000, 0, 1000), 4, 4)
	m, err := NewMask("A", grid, []geom.Polygonal{square(200, 200, 2200, 1800)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	data := sparse.ZerosDense(4, 4)
	for i := range data.Elements {
		data.Elements[i] = 2
	}
	data.Set(math.NaN(), 0, 0)
	v, err := geodata.NewVariable("precip", "kg/m^2/s", data, grid.YAxis(), grid.XAxis())
	if err != nil {
		t.Fatal(err)
	}
	totals, err := Total(v, m)
	if err != nil {
		t.Fatal(err)
	}
	if len(totals) != 1 || totals[0].Value() != 6e6 {
		t.Fatalf("totals %v", totals)
	}
	if err := totals[0].Check(unit.Dimensions{unit.MassDim: 1, unit.TimeDim: -1}); err != nil {
		t.Error(err)
	}

	corner, err := NewMask("corner", grid, []geom.Polygonal{square(0, 0, 1000, 1000)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	empty, err := Total(v, corner)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 1 || !math.IsNaN(empty[0].Value()) {
		t.Errorf("a region without valid values should have a NaN total, not %v", empty)
	}

	v.Units = "K"
	if _, err := Total(v, m); err == nil {
		t.Error("want an error for a variable that is not a flux")
	}
}
