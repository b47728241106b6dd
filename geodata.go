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

// Package geodata holds the common data model for gridded climate data:
// coordinate axes, variables and datasets, together with the grid
// definitions (projection, geotransform and size) that place a dataset
// on the surface of the earth. Subpackages load model output into this
// data model (wrf) and derive products from it (climatology, areastats).
package geodata

import (
	"fmt"
	"sort"

	"github.com/ctessum/sparse"
)

// Version gives the version number.
const Version = "0.3.0"

// Axis is a coordinate axis. Axes are shared by reference: two variables
// lie along the same axis only if they hold the same *Axis.
type Axis struct {
	Name     string
	Units    string
	LongName string
	Coord    []float64
}

// NewAxis returns a new axis with the given coordinate values.
func NewAxis(name, units string, coord []float64) *Axis {
	return &Axis{Name: name, Units: units, Coord: coord}
}

// Len returns the number of coordinate values.
func (a *Axis) Len() int { return len(a.Coord) }

// Equal reports whether a and b have the same name, units and
// coordinate values. It does not check whether they are the same object.
func (a *Axis) Equal(b *Axis) bool {
	if a.Name != b.Name || a.Units != b.Units || len(a.Coord) != len(b.Coord) {
		return false
	}
	for i, c := range a.Coord {
		if c != b.Coord[i] {
			return false
		}
	}
	return true
}

// UpdateCoord replaces the coordinate values of a. The number of values
// cannot change.
func (a *Axis) UpdateCoord(coord []float64) error {
	if len(coord) != len(a.Coord) {
		return fmt.Errorf("geodata: axis %s has %d coordinates; cannot update with %d values",
			a.Name, len(a.Coord), len(coord))
	}
	a.Coord = append([]float64(nil), coord...)
	return nil
}

// Index returns the index of the coordinate equal to v, or -1.
func (a *Axis) Index(v float64) int {
	for i, c := range a.Coord {
		if c == v {
			return i
		}
	}
	return -1
}

// Variable is a named array of data laid out along a set of axes.
type Variable struct {
	Name  string
	Units string

	// Atts holds any additional attributes.
	Atts map[string]interface{}

	// Axes are ordered as the dimensions of Data.
	Axes []*Axis
	Data *sparse.DenseArray

	FillValue    float64
	HasFillValue bool
}

// NewVariable creates a new variable, checking that data is shaped
// to match axes.
func NewVariable(name, units string, data *sparse.DenseArray, axes ...*Axis) (*Variable, error) {
	if len(data.Shape) != len(axes) {
		return nil, fmt.Errorf("geodata: variable %s has %d dimensions but %d axes", name, len(data.Shape), len(axes))
	}
	for i, a := range axes {
		if a.Len() != data.Shape[i] {
			return nil, fmt.Errorf("geodata: variable %s dimension %d has length %d but axis %s has length %d",
				name, i, data.Shape[i], a.Name, a.Len())
		}
	}
	return &Variable{
		Name:  name,
		Units: units,
		Atts:  make(map[string]interface{}),
		Axes:  axes,
		Data:  data,
	}, nil
}

// AxisIndex returns the position of the axis called name, or -1.
func (v *Variable) AxisIndex(name string) int {
	for i, a := range v.Axes {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// Axis returns the axis called name, or nil.
func (v *Variable) Axis(name string) *Axis {
	if i := v.AxisIndex(name); i >= 0 {
		return v.Axes[i]
	}
	return nil
}

// IsMissing reports whether val is the fill value of v or not a number.
func (v *Variable) IsMissing(val float64) bool {
	return val != val || (v.HasFillValue && val == v.FillValue)
}

// Dataset is a collection of variables that share a set of axes and,
// optionally, a grid.
type Dataset struct {
	Name      string
	Atts      map[string]interface{}
	Axes      map[string]*Axis
	Variables map[string]*Variable

	// Grid places the dataset on the earth. It is nil
	// until AttachGrid is called.
	Grid *GridDefinition
}

// NewDataset returns an empty dataset.
func NewDataset(name string) *Dataset {
	return &Dataset{
		Name:      name,
		Atts:      make(map[string]interface{}),
		Axes:      make(map[string]*Axis),
		Variables: make(map[string]*Variable),
	}
}

// AddAxis registers a with d. It is an error to register a different
// axis object under a name that is already in use.
func (d *Dataset) AddAxis(a *Axis) error {
	if old, ok := d.Axes[a.Name]; ok && old != a {
		return fmt.Errorf("geodata: dataset %s already has an axis named %s", d.Name, a.Name)
	}
	d.Axes[a.Name] = a
	return nil
}

// AddVariable adds v to d, registering any of its axes that d does not
// know about yet. Axis identity is verified by CheckAxes.
func (d *Dataset) AddVariable(v *Variable) error {
	if _, ok := d.Variables[v.Name]; ok {
		return fmt.Errorf("geodata: dataset %s already has a variable named %s", d.Name, v.Name)
	}
	for _, a := range v.Axes {
		if _, ok := d.Axes[a.Name]; !ok {
			d.Axes[a.Name] = a
		}
	}
	d.Variables[v.Name] = v
	return nil
}

// VariableNames returns the names of the variables in d in sorted order.
func (d *Dataset) VariableNames() []string {
	names := make([]string, 0, len(d.Variables))
	for n := range d.Variables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AttachGrid sets the grid of d and registers the grid's horizontal axes
// with d if no axes of the same names are present.
func (d *Dataset) AttachGrid(g *GridDefinition) {
	d.Grid = g
	for _, a := range []*Axis{g.XAxis(), g.YAxis()} {
		if _, ok := d.Axes[a.Name]; !ok {
			d.Axes[a.Name] = a
		}
	}
}

// AxisConsistencyError reports a horizontal axis that is not the object
// carried by the dataset's grid.
type AxisConsistencyError struct {
	Dataset  string
	Variable string // empty if the dataset axis itself is inconsistent
	Axis     string
	Reason   string
}

func (e *AxisConsistencyError) Error() string {
	if e.Variable == "" {
		return fmt.Sprintf("geodata: dataset %s: axis %s: %s", e.Dataset, e.Axis, e.Reason)
	}
	return fmt.Sprintf("geodata: dataset %s: variable %s: axis %s: %s", e.Dataset, e.Variable, e.Axis, e.Reason)
}

// CheckAxes verifies that the horizontal axes of d, and those of every
// variable in d, are the very axis objects held by d.Grid. Equal but
// distinct axes are rejected.
func (d *Dataset) CheckAxes() error {
	if d.Grid == nil {
		return fmt.Errorf("geodata: dataset %s has no grid", d.Name)
	}
	for _, ga := range []*Axis{d.Grid.XAxis(), d.Grid.YAxis()} {
		if a, ok := d.Axes[ga.Name]; !ok {
			return &AxisConsistencyError{Dataset: d.Name, Axis: ga.Name, Reason: "missing"}
		} else if a != ga {
			return &AxisConsistencyError{Dataset: d.Name, Axis: ga.Name, Reason: "not the grid axis"}
		}
		for _, name := range d.VariableNames() {
			v := d.Variables[name]
			i := v.AxisIndex(ga.Name)
			if i < 0 {
				continue
			}
			if v.Axes[i] != ga {
				return &AxisConsistencyError{Dataset: d.Name, Variable: name, Axis: ga.Name,
					Reason: "not the grid axis"}
			}
			if v.Data != nil && v.Data.Shape[i] != ga.Len() {
				return &AxisConsistencyError{Dataset: d.Name, Variable: name, Axis: ga.Name,
					Reason: fmt.Sprintf("length %d does not match grid length %d", v.Data.Shape[i], ga.Len())}
			}
		}
	}
	return nil
}
