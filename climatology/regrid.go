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

package climatology

import (
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/geodata"
)

// DefaultFillValue marks missing values of regridded variables that
// have no fill value of their own.
const DefaultFillValue = -9999.

// Regrid resamples ds onto target by nearest neighbour: each target
// cell takes the value of the source cell that contains its centre.
// Target cells whose centre is outside the source grid are set to the
// fill value. Variables without horizontal axes are copied unchanged.
func Regrid(ds *geodata.Dataset, target *geodata.GridDefinition) (*geodata.Dataset, error) {
	src := ds.Grid
	if src == nil {
		return nil, fmt.Errorf("climatology: dataset %s has no grid", ds.Name)
	}
	cells, err := nearestCells(src, target)
	if err != nil {
		return nil, err
	}

	out := geodata.NewDataset(ds.Name)
	for k, v := range ds.Atts {
		out.Atts[k] = v
	}
	out.Atts["source_grid"] = src.Name
	out.AttachGrid(target)
	for _, name := range ds.VariableNames() {
		v := ds.Variables[name]
		kx, ky := v.AxisIndex(src.XAxis().Name), v.AxisIndex(src.YAxis().Name)
		var nv *geodata.Variable
		if kx < 0 && ky < 0 {
			nv, err = copyVariable(v, v.Axes, v.Data.Copy())
		} else if kx < 0 || ky < 0 {
			return nil, fmt.Errorf("climatology: variable %s has only one horizontal axis", name)
		} else {
			nv, err = regridVariable(v, kx, ky, cells, src, target)
		}
		if err != nil {
			return nil, err
		}
		if err := out.AddVariable(nv); err != nil {
			return nil, err
		}
	}
	if err := out.CheckAxes(); err != nil {
		return nil, err
	}
	return out, nil
}

// nearestCells returns, for each target cell (in row-major order with
// x varying fastest), the flat index j*nx+i of the source cell containing
// its centre, or -1.
func nearestCells(src, target *geodata.GridDefinition) ([]int, error) {
	targetSR, err := target.SR()
	if err != nil {
		return nil, err
	}
	srcSR, err := src.SR()
	if err != nil {
		return nil, err
	}
	tr, err := targetSR.NewTransform(srcSR)
	if err != nil {
		return nil, fmt.Errorf("climatology: regridding from %s to %s: %v", src.Name, target.Name, err)
	}
	cells := make([]int, target.Nx*target.Ny)
	for j := 0; j < target.Ny; j++ {
		for i := 0; i < target.Nx; i++ {
			c := target.Center(i, j)
			x, y, err := tr(c.X, c.Y)
			if err != nil {
				return nil, fmt.Errorf("climatology: regridding from %s to %s: %v", src.Name, target.Name, err)
			}
			si, sj, ok := src.Index(x, y)
			if !ok {
				cells[j*target.Nx+i] = -1
				continue
			}
			cells[j*target.Nx+i] = sj*src.Nx + si
		}
	}
	return cells, nil
}

func regridVariable(v *geodata.Variable, kx, ky int, cells []int, src, target *geodata.GridDefinition) (*geodata.Variable, error) {
	axes := append([]*geodata.Axis(nil), v.Axes...)
	axes[kx], axes[ky] = target.XAxis(), target.YAxis()
	shape := append([]int(nil), v.Data.Shape...)
	shape[kx], shape[ky] = target.Nx, target.Ny
	data := sparse.ZerosDense(shape...)
	fill := DefaultFillValue
	if v.HasFillValue {
		fill = v.FillValue
	}
	for i := range data.Elements {
		index := data.IndexNd(i)
		c := cells[index[ky]*target.Nx+index[kx]]
		if c < 0 {
			data.Elements[i] = fill
			continue
		}
		index[kx], index[ky] = c%src.Nx, c/src.Nx
		data.Elements[i] = v.Data.Get(index...)
	}
	nv, err := copyVariable(v, axes, data)
	if err != nil {
		return nil, err
	}
	nv.FillValue, nv.HasFillValue = fill, true
	return nv, nil
}
