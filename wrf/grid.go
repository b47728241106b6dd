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
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spatialmodel/geodata"
)

// domain holds the metadata of one nested domain that is needed to
// place it on the earth.
type domain struct {
	id, parent     int
	nx, ny         int
	dx, dy         float64
	iStart, jStart float64
	geotransform   geodata.Geotransform
}

// GridName returns the name of the grid of domain d of an experiment.
func GridName(experiment string, d int) string {
	return fmt.Sprintf("%s_d%02d", experiment, d)
}

// ConstantsFiles returns one metadata source per domain, from 1 to
// maxDomain, using the files of category c in folder.
func ConstantsFiles(folder string, c FileCategory, maxDomain int) []MetadataSource {
	var sources []MetadataSource
	for d := 1; d <= maxDomain; d++ {
		name, ok := c.TimeSeriesFile(d)
		if !ok {
			return nil
		}
		sources = append(sources, ConstantsFile(filepath.Join(folder, name)))
	}
	return sources
}

// InferGrids infers the grid definitions of the requested domains of a
// nested WRF configuration. sources[i] holds the metadata of domain i+1;
// all domains up to the largest requested one are needed because each
// nest is placed relative to its parent. The projection is read from
// domain 1. The returned grids are named by GridName and ordered by
// domain.
func InferGrids(experiment string, sources []MetadataSource, domains ...int) ([]*geodata.GridDefinition, error) {
	if len(domains) == 0 {
		return nil, fmt.Errorf("wrf: no domains requested")
	}
	requested := make(map[int]bool)
	maxDom := 0
	for _, d := range domains {
		if d < 1 {
			return nil, fmt.Errorf("wrf: invalid domain %d", d)
		}
		requested[d] = true
		if d > maxDom {
			maxDom = d
		}
	}
	for d := 1; d <= maxDom; d++ {
		if d > len(sources) || sources[d-1] == nil {
			return nil, &MissingDependencyError{Domain: d, Requested: requested[d]}
		}
	}

	// arena holds the domains by id; index 0 is unused.
	arena := make([]domain, maxDom+1)
	var proj *geodata.Projection
	for n := 1; n <= maxDom; n++ {
		src := sources[n-1]
		md, err := src.Open()
		if err != nil {
			return nil, &MissingDependencyError{Domain: n, Source: src.String(), Requested: requested[n], Err: err}
		}
		if n == 1 {
			proj, err = projection(md)
			if err != nil {
				md.Close()
				return nil, err
			}
		}
		err = readDomain(md, n, src.String(), arena)
		if cerr := md.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
	}

	ids := make([]int, 0, len(requested))
	for d := range requested {
		ids = append(ids, d)
	}
	sort.Ints(ids)
	grids := make([]*geodata.GridDefinition, len(ids))
	for i, d := range ids {
		dom := arena[d]
		grids[i] = geodata.NewGridDefinition(GridName(experiment, d), proj, dom.geotransform, dom.nx, dom.ny)
	}
	return grids, nil
}

// projection reads the map projection from the metadata of domain 1.
func projection(md Metadata) (*geodata.Projection, error) {
	code, err := md.Attribute("MAP_PROJ")
	if err != nil {
		return nil, err
	}
	if int(code) != int(geodata.LambertConformalConic) {
		return nil, &UnsupportedProjectionError{Code: int(code)}
	}
	p := &geodata.Projection{Kind: geodata.LambertConformalConic}
	for _, a := range []struct {
		name string
		v    *float64
	}{
		{"TRUELAT1", &p.Lat1},
		{"TRUELAT2", &p.Lat2},
		{"CEN_LAT", &p.Lat0},
		{"CEN_LON", &p.Lon0},
	} {
		if *a.v, err = md.Attribute(a.name); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// horizontalSize returns the number of grid cells in each direction.
func horizontalSize(md Metadata) (nx, ny int, ok bool) {
	for _, names := range [][2]string{{"west_east", "south_north"}, {"x", "y"}} {
		nx, okx := md.DimensionLength(names[0])
		ny, oky := md.DimensionLength(names[1])
		if okx && oky {
			return nx, ny, true
		}
	}
	return 0, 0, false
}

// readDomain reads domain n from md and computes its geotransform,
// which depends on the already computed geotransform of its parent.
func readDomain(md Metadata, n int, source string, arena []domain) error {
	d := domain{id: n}
	var ok bool
	d.nx, d.ny, ok = horizontalSize(md)
	if !ok {
		return &NoHorizontalAxisError{Domain: n, Source: source}
	}
	var err error
	if d.dx, err = md.Attribute("DX"); err != nil {
		return err
	}
	if d.dy, err = md.Attribute("DY"); err != nil {
		return err
	}
	if n == 1 {
		// The first domain is centred on the projection origin.
		d.geotransform = geodata.NewGeotransform(float64(d.nx)*d.dx/2, d.dx, float64(d.ny)*d.dy/2, d.dy)
		arena[n] = d
		return nil
	}

	id, err := md.Attribute("GRID_ID")
	if err != nil {
		return err
	}
	if int(id) != n {
		return &InconsistentDomainIDError{Domain: n, Attribute: "GRID_ID", Declared: int(id)}
	}
	parent, err := md.Attribute("PARENT_ID")
	if err != nil {
		return err
	}
	d.parent = int(parent)
	if d.parent < 1 || d.parent >= n {
		return &InconsistentDomainIDError{Domain: n, Attribute: "PARENT_ID", Declared: d.parent}
	}
	if d.iStart, err = md.Attribute("I_PARENT_START"); err != nil {
		return err
	}
	if d.jStart, err = md.Attribute("J_PARENT_START"); err != nil {
		return err
	}
	px0, py0 := arena[d.parent].geotransform.Origin()
	pdx, pdy := arena[d.parent].geotransform.CellSize()
	d.geotransform = geodata.NewGeotransform(px0+d.iStart*pdx, d.dx, py0+d.jStart*pdy, d.dy)
	arena[n] = d
	return nil
}
