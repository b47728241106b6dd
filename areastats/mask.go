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

// Package areastats computes statistics of gridded fields over regions,
// such as river basins, that are read from shapefiles.
package areastats

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/geodata"
	"github.com/spatialmodel/geodata/internal/hash"
)

// Mask is the set of cells of a grid whose centres lie inside a region.
type Mask struct {
	Name string
	Grid *geodata.GridDefinition

	// Cells holds the (i, j) indices of the selected cells, in
	// row-major order.
	Cells [][2]int
}

// Len returns the number of selected cells.
func (m *Mask) Len() int { return len(m.Cells) }

// gridCell is the polygon of cell (i, j) as stored in the search tree.
type gridCell struct {
	geom.Polygon
	i, j int
}

// NewMask returns the cells of grid whose centres lie inside or on the
// edge of any of polygons, which are in spatial reference sr.
// If sr is nil the polygons are assumed to be in the grid's own
// coordinates.
func NewMask(name string, grid *geodata.GridDefinition, polygons []geom.Polygonal, sr *proj.SR) (*Mask, error) {
	if sr != nil {
		gridSR, err := grid.SR()
		if err != nil {
			return nil, err
		}
		tr, err := sr.NewTransform(gridSR)
		if err != nil {
			return nil, fmt.Errorf("areastats: mask %s: %v", name, err)
		}
		transformed := make([]geom.Polygonal, len(polygons))
		for i, p := range polygons {
			g, err := p.Transform(tr)
			if err != nil {
				return nil, fmt.Errorf("areastats: mask %s: %v", name, err)
			}
			transformed[i] = g.(geom.Polygonal)
		}
		polygons = transformed
	}

	tree := rtree.NewTree(25, 50)
	for j := 0; j < grid.Ny; j++ {
		for i := 0; i < grid.Nx; i++ {
			tree.Insert(&gridCell{Polygon: grid.Cell(i, j), i: i, j: j})
		}
	}
	selected := make([]bool, grid.Nx*grid.Ny)
	for _, p := range polygons {
		for _, s := range tree.SearchIntersect(p.Bounds()) {
			c := s.(*gridCell)
			if selected[c.j*grid.Nx+c.i] {
				continue
			}
			if grid.Center(c.i, c.j).Within(p) != geom.Outside {
				selected[c.j*grid.Nx+c.i] = true
			}
		}
	}

	m := &Mask{Name: name, Grid: grid}
	for k, ok := range selected {
		if ok {
			m.Cells = append(m.Cells, [2]int{k % grid.Nx, k / grid.Nx})
		}
	}
	return m, nil
}

// MaskFromShapefile creates a mask on grid from the shapes in the
// shapefile at path whose attribute field equals value. If field is
// empty all shapes are used. The spatial reference is read from the
// accompanying .prj file.
func MaskFromShapefile(grid *geodata.GridDefinition, path, field, value string) (*Mask, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("areastats: opening shapefile: %v", err)
	}
	defer d.Close()
	sr, err := d.SR()
	if err != nil {
		return nil, fmt.Errorf("areastats: reading spatial reference of %s: %v", path, err)
	}

	var fields []string
	if field != "" {
		fields = []string{field}
	}
	var polygons []geom.Polygonal
	for {
		g, vals, more := d.DecodeRowFields(fields...)
		if !more || d.Error() != nil {
			break
		}
		if field != "" && strings.Trim(vals[field], " \x00") != value {
			continue
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("areastats: %s: shapes need to be polygons, not %T", path, g)
		}
		polygons = append(polygons, p)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("areastats: reading %s: %v", path, err)
	}
	if len(polygons) == 0 {
		return nil, fmt.Errorf("areastats: %s has no shapes with %s = %q", path, field, value)
	}

	name := value
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".shp")
	}
	return NewMask(name, grid, polygons, sr)
}

// MaskCache holds recently used shapefile masks in memory.
// It is safe for concurrent use.
type MaskCache struct {
	cache *requestcache.Cache
}

type maskRequest struct {
	grid               *geodata.GridDefinition
	path, field, value string
}

// NewMaskCache returns a cache holding up to size masks.
func NewMaskCache(size int) *MaskCache {
	return &MaskCache{
		cache: requestcache.NewCache(func(_ context.Context, payload interface{}) (interface{}, error) {
			r := payload.(maskRequest)
			return MaskFromShapefile(r.grid, r.path, r.field, r.value)
		}, 1, requestcache.Memory(size)),
	}
}

// Mask returns the mask MaskFromShapefile would create, reusing a
// cached one if the same request was made before.
func (c *MaskCache) Mask(ctx context.Context, grid *geodata.GridDefinition, path, field, value string) (*Mask, error) {
	key := hash.Key(grid, path, field, value)
	r := c.cache.NewRequest(ctx, maskRequest{grid: grid, path: path, field: field, value: value}, key)
	result, err := r.Result()
	if err != nil {
		return nil, err
	}
	return result.(*Mask), nil
}
