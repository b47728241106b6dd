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

package geodata

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
)

func init() {
	gob.Register(&GridDefinition{})
}

// EarthRadius is the radius of the sphere used for map projections
// and cell areas [m].
const EarthRadius = 6370997.

// ProjectionKind identifies a map projection family. Values match the
// WRF MAP_PROJ codes.
type ProjectionKind int

// LambertConformalConic is the only projection family inferred from
// model metadata.
const LambertConformalConic ProjectionKind = 1

func (k ProjectionKind) String() string {
	switch k {
	case LambertConformalConic:
		return "lcc"
	default:
		return fmt.Sprintf("ProjectionKind(%d)", int(k))
	}
}

// Projection describes a map projection. A nil *Projection stands for
// geographic longitude/latitude coordinates.
type Projection struct {
	Kind ProjectionKind

	// Lat1 and Lat2 are the standard parallels; Lat0 and Lon0 the origin.
	Lat1, Lat2 float64
	Lat0, Lon0 float64
}

// Proj4 returns a proj4 string describing p.
func (p *Projection) Proj4() string {
	if p == nil {
		return "+proj=longlat"
	}
	return fmt.Sprintf("+proj=%s +lat_1=%f +lat_2=%f +lat_0=%f +lon_0=%f +x_0=0 +y_0=0 +a=%f +b=%f +to_meter=1",
		p.Kind, p.Lat1, p.Lat2, p.Lat0, p.Lon0, EarthRadius, EarthRadius)
}

// SR returns the spatial reference of p.
func (p *Projection) SR() (*proj.SR, error) {
	if p == nil {
		return proj.Parse("+proj=longlat")
	}
	if p.Kind != LambertConformalConic {
		return nil, fmt.Errorf("geodata: unsupported projection %v", p.Kind)
	}
	// The parser converts the angles to radians.
	return proj.Parse(p.Proj4())
}

// Geotransform is an affine mapping from cell indices to coordinates:
// (x origin, x cell size, 0, y origin, 0, y cell size).
type Geotransform [6]float64

// NewGeotransform returns a geotransform with no rotation.
func NewGeotransform(x0, dx, y0, dy float64) Geotransform {
	return Geotransform{x0, dx, 0, y0, 0, dy}
}

// Origin returns the coordinates of the grid origin.
func (g Geotransform) Origin() (x0, y0 float64) { return g[0], g[3] }

// CellSize returns the cell edge lengths.
func (g Geotransform) CellSize() (dx, dy float64) { return g[1], g[5] }

// GridDefinition places a regular grid on the earth.
type GridDefinition struct {
	Name         string
	Projection   *Projection
	Geotransform Geotransform
	Nx, Ny       int

	x, y *Axis
}

// NewGridDefinition creates a new grid definition. Its horizontal axes
// hold the cell-centre coordinates.
func NewGridDefinition(name string, p *Projection, gt Geotransform, nx, ny int) *GridDefinition {
	g := &GridDefinition{
		Name:         name,
		Projection:   p,
		Geotransform: gt,
		Nx:           nx,
		Ny:           ny,
	}
	g.setAxes()
	return g
}

func (g *GridDefinition) setAxes() {
	x0, y0 := g.Geotransform.Origin()
	dx, dy := g.Geotransform.CellSize()
	xc := make([]float64, g.Nx)
	for i := range xc {
		xc[i] = x0 + (float64(i)+0.5)*dx
	}
	yc := make([]float64, g.Ny)
	for j := range yc {
		yc[j] = y0 + (float64(j)+0.5)*dy
	}
	if g.Geographic() {
		g.x = &Axis{Name: "lon", Units: "deg E", LongName: "longitude", Coord: xc}
		g.y = &Axis{Name: "lat", Units: "deg N", LongName: "latitude", Coord: yc}
	} else {
		g.x = &Axis{Name: "x", Units: "m", LongName: "easting", Coord: xc}
		g.y = &Axis{Name: "y", Units: "m", LongName: "northing", Coord: yc}
	}
}

// Geographic reports whether g is a longitude/latitude grid.
func (g *GridDefinition) Geographic() bool { return g.Projection == nil }

// XAxis returns the west-east axis shared by all datasets on g.
func (g *GridDefinition) XAxis() *Axis { return g.x }

// YAxis returns the south-north axis shared by all datasets on g.
func (g *GridDefinition) YAxis() *Axis { return g.y }

// SR returns the spatial reference of g.
func (g *GridDefinition) SR() (*proj.SR, error) { return g.Projection.SR() }

// Cell returns the outline of cell (i, j), where i is the
// west-east index.
func (g *GridDefinition) Cell(i, j int) geom.Polygon {
	x0, y0 := g.Geotransform.Origin()
	dx, dy := g.Geotransform.CellSize()
	x := x0 + float64(i)*dx
	y := y0 + float64(j)*dy
	return geom.Polygon{{
		{X: x, Y: y}, {X: x + dx, Y: y},
		{X: x + dx, Y: y + dy}, {X: x, Y: y + dy}, {X: x, Y: y}}}
}

// Center returns the centre of cell (i, j).
func (g *GridDefinition) Center(i, j int) geom.Point {
	return geom.Point{X: g.x.Coord[i], Y: g.y.Coord[j]}
}

// Index returns the indices of the cell containing (x, y).
// ok is false if the point is outside of the grid.
func (g *GridDefinition) Index(x, y float64) (i, j int, ok bool) {
	x0, y0 := g.Geotransform.Origin()
	dx, dy := g.Geotransform.CellSize()
	fi := math.Floor((x - x0) / dx)
	fj := math.Floor((y - y0) / dy)
	if fi < 0 || fj < 0 || fi >= float64(g.Nx) || fj >= float64(g.Ny) {
		return -1, -1, false
	}
	return int(fi), int(fj), true
}

// Bounds returns the extent of g in its own coordinates.
func (g *GridDefinition) Bounds() *geom.Bounds {
	b := g.Cell(0, 0).Bounds()
	b.Extend(g.Cell(g.Nx-1, g.Ny-1).Bounds())
	return b
}

// CellArea returns the area of cell (i, j) [m²]. Cells of geographic
// grids are treated as patches of a sphere of radius EarthRadius.
func (g *GridDefinition) CellArea(i, j int) float64 {
	dx, dy := g.Geotransform.CellSize()
	if !g.Geographic() {
		return math.Abs(dx * dy)
	}
	const deg = math.Pi / 180
	_, y0 := g.Geotransform.Origin()
	lat1 := (y0 + float64(j)*dy) * deg
	lat2 := lat1 + dy*deg
	return math.Abs(EarthRadius * EarthRadius * dx * deg * (math.Sin(lat2) - math.Sin(lat1)))
}

// WriteToShp writes the cells of g to the shapefile at path, with
// the row and column of each cell as attributes.
func (g *GridDefinition) WriteToShp(path string) error {
	base := strings.TrimSuffix(path, ".shp")
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(base + ext)
	}
	fields := []goshp.Field{goshp.NumberField("row", 10), goshp.NumberField("col", 10)}
	e, err := shp.NewEncoderFromFields(base+".shp", goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("geodata: writing grid %s to shapefile: %v", g.Name, err)
	}
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			if err = e.EncodeFields(g.Cell(i, j), j, i); err != nil {
				e.Close()
				return fmt.Errorf("geodata: writing grid %s to shapefile: %v", g.Name, err)
			}
		}
	}
	e.Close()
	return nil
}

// gridDefinitionGob holds the persisted fields of a GridDefinition.
// The axes are derived and are rebuilt on decoding.
type gridDefinitionGob struct {
	Name         string
	Projection   *Projection
	Geotransform Geotransform
	Nx, Ny       int
}

// GobEncode implements gob.GobEncoder.
func (g *GridDefinition) GobEncode() ([]byte, error) {
	var b bytes.Buffer
	err := gob.NewEncoder(&b).Encode(gridDefinitionGob{
		Name:         g.Name,
		Projection:   g.Projection,
		Geotransform: g.Geotransform,
		Nx:           g.Nx,
		Ny:           g.Ny,
	})
	return b.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (g *GridDefinition) GobDecode(b []byte) error {
	var gg gridDefinitionGob
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&gg); err != nil {
		return err
	}
	g.Name = gg.Name
	g.Projection = gg.Projection
	g.Geotransform = gg.Geotransform
	g.Nx, g.Ny = gg.Nx, gg.Ny
	g.setAxes()
	return nil
}

// WriteGob writes g to w.
func (g *GridDefinition) WriteGob(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(g); err != nil {
		return fmt.Errorf("geodata: saving grid %s: %v", g.Name, err)
	}
	return nil
}

// ReadGridDefinition reads a grid definition written by WriteGob.
func ReadGridDefinition(r io.Reader) (*GridDefinition, error) {
	g := new(GridDefinition)
	if err := gob.NewDecoder(r).Decode(g); err != nil {
		return nil, fmt.Errorf("geodata: loading grid definition: %v", err)
	}
	return g, nil
}
