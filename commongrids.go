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
	"math"
	"sort"
	"strings"
)

// commonGridExtents holds the west, south, east and north edges
// of the common geographic grids.
var commonGridExtents = map[string][4]float64{
	"ARB_small": {-160.25, 32.75, -90.25, 72.75},
	"ARB_large": {-179.75, 3.75, -69.75, 83.75},
}

// commonGridResolutions maps resolution codes to cell sizes in degrees.
var commonGridResolutions = map[string]float64{
	"025": 0.25,
	"05":  0.5,
	"10":  1.0,
	"25":  2.5,
}

// DefaultResolution is used by CommonGrid when no resolution is given.
const DefaultResolution = "025"

// CommonGridNames returns the names of the available common grids.
func CommonGridNames() []string {
	var names []string
	for n := range commonGridExtents {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CommonResolutions returns the available resolution codes.
func CommonResolutions() []string {
	var res []string
	for r := range commonGridResolutions {
		res = append(res, r)
	}
	sort.Strings(res)
	return res
}

// CommonGrid returns the geographic grid called name at resolution res,
// e.g. CommonGrid("ARB_small", "05"). The grid is named
// "{name}_{res}".
func CommonGrid(name, res string) (*GridDefinition, error) {
	ext, ok := commonGridExtents[name]
	if !ok {
		return nil, fmt.Errorf("geodata: unknown common grid %q", name)
	}
	if res == "" {
		res = DefaultResolution
	}
	d, ok := commonGridResolutions[res]
	if !ok {
		return nil, fmt.Errorf("geodata: unknown resolution %q for grid %s", res, name)
	}
	nx := (ext[2] - ext[0]) / d
	ny := (ext[3] - ext[1]) / d
	if nx != math.Trunc(nx) || ny != math.Trunc(ny) {
		return nil, fmt.Errorf("geodata: grid %s is not a whole number of %g° cells", name, d)
	}
	gt := NewGeotransform(ext[0], d, ext[1], d)
	return NewGridDefinition(fmt.Sprintf("%s_%s", name, res), nil, gt, int(nx), int(ny)), nil
}

// LookupCommonGrid returns the common grid with the full name
// "{name}_{res}" as returned by GridDefinition.Name, e.g. "ARB_small_05".
func LookupCommonGrid(fullName string) (*GridDefinition, error) {
	i := strings.LastIndex(fullName, "_")
	if i < 0 {
		return nil, fmt.Errorf("geodata: %q is not a common grid name", fullName)
	}
	return CommonGrid(fullName[:i], fullName[i+1:])
}
