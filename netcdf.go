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
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// OpenNCF opens the NetCDF file at path for reading. The caller is
// responsible for closing f.
func OpenNCF(path string) (f *os.File, ff *cdf.File, err error) {
	f, err = os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	ff, err = cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("geodata: opening netcdf file %s: %v", path, err)
	}
	return f, ff, nil
}

// NumRecs returns the number of records in the NetCDF file ff, which is
// stored in f.
func NumRecs(f *os.File, ff *cdf.File) (int, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return int(ff.Header.NumRecs(fi.Size())), nil
}

// HasVariable reports whether ff contains variable v.
func HasVariable(ff *cdf.File, v string) bool {
	return ff.Header.Dimensions(v) != nil
}

// Attribute returns the first value of the numeric attribute a of
// variable v, or of the global attribute a if v is empty.
func Attribute(ff *cdf.File, v, a string) (float64, error) {
	switch t := ff.Header.GetAttribute(v, a).(type) {
	case nil:
		return 0, fmt.Errorf("geodata: netcdf attribute %s not found", attName(v, a))
	case []float64:
		if len(t) > 0 {
			return t[0], nil
		}
	case []float32:
		if len(t) > 0 {
			return float64(t[0]), nil
		}
	case []int32:
		if len(t) > 0 {
			return float64(t[0]), nil
		}
	case []int16:
		if len(t) > 0 {
			return float64(t[0]), nil
		}
	case []uint8:
		if len(t) > 0 {
			return float64(t[0]), nil
		}
	default:
		return 0, fmt.Errorf("geodata: netcdf attribute %s has non-numeric type %T", attName(v, a), t)
	}
	return 0, fmt.Errorf("geodata: netcdf attribute %s is empty", attName(v, a))
}

// StringAttribute returns the text attribute a of variable v, or of the
// global attribute a if v is empty.
func StringAttribute(ff *cdf.File, v, a string) (string, bool) {
	s, ok := ff.Header.GetAttribute(v, a).(string)
	return s, ok
}

func attName(v, a string) string {
	if v == "" {
		return a
	}
	return v + ":" + a
}

// ReadVariable reads all of variable v from ff. numRecs is the length
// of the record dimension for record variables.
func ReadVariable(ff *cdf.File, v string, numRecs int) (*sparse.DenseArray, error) {
	if !HasVariable(ff, v) {
		return nil, fmt.Errorf("geodata: read netcdf: variable %v not in file", v)
	}
	dims := append([]int(nil), ff.Header.Lengths(v)...)
	if ff.Header.IsRecordVariable(v) {
		dims[0] = numRecs
	}
	data := sparse.ZerosDense(dims...)
	if len(data.Elements) == 0 {
		return data, nil
	}
	var end []int
	if len(dims) > 0 {
		end = dims
	}
	r := ff.Reader(v, nil, end)
	buf := r.Zero(len(data.Elements))
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("geodata: read netcdf variable %s: %v", v, err)
	}
	switch t := buf.(type) {
	case []float32:
		for i, val := range t {
			data.Elements[i] = float64(val)
		}
	case []float64:
		copy(data.Elements, t)
	case []int32:
		for i, val := range t {
			data.Elements[i] = float64(val)
		}
	case []int16:
		for i, val := range t {
			data.Elements[i] = float64(val)
		}
	case []uint8:
		for i, val := range t {
			data.Elements[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("geodata: read netcdf variable %s: unsupported type %T", v, buf)
	}
	return data, nil
}

// Write writes d to w as a NetCDF file. Each axis becomes a dimension
// and a coordinate variable. Variables are stored as float32. The grid,
// if any, is stored as global attributes.
func (d *Dataset) Write(w *os.File) error {
	axisNames := make([]string, 0, len(d.Axes))
	for n := range d.Axes {
		axisNames = append(axisNames, n)
	}
	sort.Strings(axisNames)
	lengths := make([]int, len(axisNames))
	for i, n := range axisNames {
		lengths[i] = d.Axes[n].Len()
		if lengths[i] == 0 {
			return fmt.Errorf("geodata: writing dataset %s: axis %s is empty", d.Name, n)
		}
		if _, ok := d.Variables[n]; ok {
			return fmt.Errorf("geodata: writing dataset %s: variable %s has the same name as an axis", d.Name, n)
		}
	}
	h := cdf.NewHeader(axisNames, lengths)

	atts := make(map[string]interface{})
	for k, v := range d.Atts {
		atts[k] = v
	}
	// Attributes copied from an earlier file may describe another grid.
	if d.Grid != nil {
		atts["grid"] = d.Grid.Name
		atts["geotransform"] = d.Grid.Geotransform[:]
		atts["projection"] = d.Grid.Projection.Proj4()
	}
	attNames := make([]string, 0, len(atts))
	for k := range atts {
		attNames = append(attNames, k)
	}
	sort.Strings(attNames)
	for _, k := range attNames {
		if v, ok := ncfAttribute(atts[k]); ok {
			h.AddAttribute("", k, v)
		}
	}

	for _, n := range axisNames {
		a := d.Axes[n]
		h.AddVariable(n, []string{n}, []float64{0})
		h.AddAttribute(n, "units", a.Units)
		if a.LongName != "" {
			h.AddAttribute(n, "long_name", a.LongName)
		}
	}

	// Sort the names so they write in the same order every time.
	names := d.VariableNames()
	for _, name := range names {
		v := d.Variables[name]
		dims := make([]string, len(v.Axes))
		for i, a := range v.Axes {
			if d.Axes[a.Name] != a {
				return fmt.Errorf("geodata: writing dataset %s: variable %s axis %s is not a dataset axis",
					d.Name, name, a.Name)
			}
			dims[i] = a.Name
		}
		h.AddVariable(name, dims, []float32{0})
		h.AddAttribute(name, "units", v.Units)
		if v.HasFillValue {
			h.AddAttribute(name, "_FillValue", []float32{float32(v.FillValue)})
		}
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	for _, n := range axisNames {
		a := d.Axes[n]
		wr := f.Writer(n, []int{0}, []int{a.Len()})
		if _, err = wr.Write(a.Coord); err != nil {
			return fmt.Errorf("geodata: writing axis %s to netcdf file: %v", n, err)
		}
	}
	for _, name := range names {
		if err = writeNCF(f, name, d.Variables[name].Data); err != nil {
			return fmt.Errorf("geodata: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// ncfAttribute converts v to a type that can be stored as a NetCDF
// attribute.
func ncfAttribute(v interface{}) (interface{}, bool) {
	switch t := v.(type) {
	case string, []float64, []float32, []int32, []int16, []uint8:
		return t, true
	case float64:
		return []float64{t}, true
	case float32:
		return []float32{t}, true
	case int:
		return []int32{int32(t)}, true
	case int32:
		return []int32{t}, true
	case []int:
		o := make([]int32, len(t))
		for i, x := range t {
			o[i] = int32(x)
		}
		return o, true
	default:
		return nil, false
	}
}

func writeNCF(f *cdf.File, v string, data *sparse.DenseArray) error {
	// Check that data matches dimensions.
	n := 1
	for _, s := range data.Shape {
		n *= s
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(v)
	start := make([]int, len(end))
	w := f.Writer(v, start, end)
	_, err := w.Write(data32)
	return err
}
