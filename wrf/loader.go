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
	"os"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/geodata"
)

// NetCDFLoader is the default Loader. It reads each file in turn;
// a variable that has already been loaded from an earlier file is
// skipped. Dimensions of length one that are not horizontal are
// removed. Coordinates are read from coordinate variables where the
// files have them and are otherwise set to the index along the
// dimension. The global attributes of the first file become the
// attributes of the dataset. Variables that are already stored under
// their target names, as in files written by geodata, are also found.
func NetCDFLoader(name string, files, varlist []string, atts map[string]VarAtts, grid *geodata.GridDefinition) (*geodata.Dataset, error) {
	ds := geodata.NewDataset(name)
	ds.AttachGrid(grid)
	var want map[string]bool
	if varlist != nil {
		want = make(map[string]bool)
		for _, v := range varlist {
			want[v] = true
		}
	}
	lookup := make(map[string]VarAtts, len(atts))
	for native, va := range atts {
		lookup[native] = va
	}
	for native, va := range atts {
		if _, ok := atts[va.Name]; !ok {
			lookup[va.Name] = va
		}
		if want != nil && want[native] {
			want[va.Name] = true
		}
	}
	for i, path := range files {
		if err := loadFile(ds, path, i == 0, want, lookup, grid); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func loadFile(ds *geodata.Dataset, path string, first bool, want map[string]bool, atts map[string]VarAtts, grid *geodata.GridDefinition) error {
	f, ff, err := geodata.OpenNCF(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &MissingFileError{Path: path, Err: err}
		}
		return err
	}
	defer f.Close()
	nrec, err := geodata.NumRecs(f, ff)
	if err != nil {
		return err
	}
	if first {
		for _, a := range ff.Header.Attributes("") {
			ds.Atts[a] = ff.Header.GetAttribute("", a)
		}
	}
	isDim := make(map[string]bool)
	for _, d := range ff.Header.Dimensions("") {
		isDim[d] = true
	}

	for _, native := range ff.Header.Variables() {
		if isDim[native] || (want != nil && !want[native]) {
			continue
		}
		target, units := native, ""
		va, ok := atts[native]
		if ok {
			target, units = va.Name, va.Units
		} else {
			units, _ = geodata.StringAttribute(ff, native, "units")
		}
		if _, dup := ds.Variables[target]; dup {
			continue
		}
		data, err := geodata.ReadVariable(ff, native, nrec)
		if err != nil {
			return err
		}
		var axes []*geodata.Axis
		var shape []int
		for k, dim := range ff.Header.Dimensions(native) {
			a, err := datasetAxis(ds, ff, dim, data.Shape[k], nrec, atts, grid)
			if err != nil {
				return err
			}
			if a == nil {
				continue
			}
			axes = append(axes, a)
			shape = append(shape, data.Shape[k])
		}
		data.Shape = shape
		data.Fix()
		v, err := geodata.NewVariable(target, units, data, axes...)
		if err != nil {
			return err
		}
		setFillValue(v, ff, native, va, ok)
		for _, a := range ff.Header.Attributes(native) {
			if s, isString := ff.Header.GetAttribute(native, a).(string); isString && a != "units" {
				v.Atts[a] = s
			}
		}
		if err := ds.AddVariable(v); err != nil {
			return err
		}
	}
	return nil
}

// setFillValue sets the fill value of v from its attributes if it has
// one, or otherwise from the file.
func setFillValue(v *geodata.Variable, ff *cdf.File, native string, va VarAtts, ok bool) {
	if ok && va.HasFillValue {
		v.FillValue, v.HasFillValue = va.FillValue, true
		return
	}
	if fill, err := geodata.Attribute(ff, native, "_FillValue"); err == nil {
		v.FillValue, v.HasFillValue = fill, true
	}
}

// datasetAxis returns the axis of ds for dimension dim of length n,
// creating it if necessary. It returns nil for dimensions that are
// squeezed out.
func datasetAxis(ds *geodata.Dataset, ff *cdf.File, dim string, n, nrec int, atts map[string]VarAtts, grid *geodata.GridDefinition) (*geodata.Axis, error) {
	name, units := dim, ""
	if a, ok := atts[dim]; ok {
		name, units = a.Name, a.Units
	}
	for _, ga := range []*geodata.Axis{grid.XAxis(), grid.YAxis()} {
		if name != ga.Name {
			continue
		}
		if n != ga.Len() {
			return nil, &AxisConsistencyError{Dataset: ds.Name, Axis: name,
				Reason: fmt.Sprintf("dimension %s has length %d but grid %s has length %d", dim, n, grid.Name, ga.Len())}
		}
		return ga, nil
	}
	if n == 1 {
		return nil, nil
	}
	if a, ok := ds.Axes[name]; ok {
		if a.Len() != n {
			return nil, fmt.Errorf("wrf: dataset %s: dimension %s has length %d but axis %s has length %d",
				ds.Name, dim, n, name, a.Len())
		}
		return a, nil
	}
	coord := make([]float64, n)
	if dims := ff.Header.Dimensions(dim); len(dims) == 1 && dims[0] == dim {
		c, err := geodata.ReadVariable(ff, dim, nrec)
		if err != nil {
			return nil, err
		}
		copy(coord, c.Elements)
		if units == "" {
			units, _ = geodata.StringAttribute(ff, dim, "units")
		}
	} else {
		for i := range coord {
			coord[i] = float64(i)
		}
	}
	a := geodata.NewAxis(name, units, coord)
	if err := ds.AddAxis(a); err != nil {
		return nil, err
	}
	return a, nil
}
