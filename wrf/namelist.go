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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// wpsNamelist holds the domain configuration from a WPS namelist.
type wpsNamelist struct {
	maxDom          int
	mapProj         string
	refLat, refLon  float64
	trueLat1        float64
	trueLat2        float64
	dx, dy          float64
	parentID        []int
	parentGridRatio []float64
	iParentStart    []int
	jParentStart    []int
	eWE, eSN        []int
}

// mapProjCodes maps WPS map_proj names to WRF MAP_PROJ codes.
var mapProjCodes = map[string]float64{
	"lambert":  1,
	"polar":    2,
	"mercator": 3,
	"lat-lon":  6,
}

// NamelistSources reads a WPS namelist (namelist.wps) from r and returns
// the metadata that WRF would write to the output files of each domain,
// so grids can be inferred before the model has been run.
func NamelistSources(r io.Reader) ([]MetadataSource, error) {
	e := new(errCat)
	n := parseWPSNamelist(r, e)
	if err := e.convertToError(); err != nil {
		return nil, err
	}
	if n.maxDom < 1 {
		return nil, fmt.Errorf("wrf: namelist: max_dom must be at least 1")
	}
	code, ok := mapProjCodes[n.mapProj]
	if !ok {
		return nil, fmt.Errorf("wrf: namelist: unknown map_proj %q", n.mapProj)
	}
	for name, l := range map[string]int{
		"parent_id":         len(n.parentID),
		"parent_grid_ratio": len(n.parentGridRatio),
		"i_parent_start":    len(n.iParentStart),
		"j_parent_start":    len(n.jParentStart),
		"e_we":              len(n.eWE),
		"e_sn":              len(n.eSN),
	} {
		if l < n.maxDom {
			e.Add(fmt.Errorf("wrf: namelist: %s has %d values but max_dom is %d", name, l, n.maxDom))
		}
	}
	if err := e.convertToError(); err != nil {
		return nil, err
	}

	dx := make([]float64, n.maxDom)
	dy := make([]float64, n.maxDom)
	sources := make([]MetadataSource, n.maxDom)
	for i := 0; i < n.maxDom; i++ {
		if i == 0 {
			dx[i], dy[i] = n.dx, n.dy
		} else {
			p := n.parentID[i] - 1
			if p < 0 || p >= i {
				return nil, &InconsistentDomainIDError{Domain: i + 1, Attribute: "PARENT_ID", Declared: n.parentID[i]}
			}
			dx[i] = dx[p] / n.parentGridRatio[i]
			dy[i] = dy[p] / n.parentGridRatio[i]
		}
		sources[i] = &StaticMetadata{
			Name: fmt.Sprintf("namelist d%02d", i+1),
			Attributes: map[string]float64{
				"MAP_PROJ":       code,
				"TRUELAT1":       n.trueLat1,
				"TRUELAT2":       n.trueLat2,
				"CEN_LAT":        n.refLat,
				"CEN_LON":        n.refLon,
				"DX":             dx[i],
				"DY":             dy[i],
				"GRID_ID":        float64(i + 1),
				"PARENT_ID":      float64(n.parentID[i]),
				"I_PARENT_START": float64(n.iParentStart[i]),
				"J_PARENT_START": float64(n.jParentStart[i]),
			},
			Dimensions: map[string]int{
				"west_east":   n.eWE[i] - 1,
				"south_north": n.eSN[i] - 1,
			},
		}
	}
	return sources, nil
}

func parseWPSNamelist(r io.Reader, e *errCat) *wpsNamelist {
	d := new(wpsNamelist)
	f := bufio.NewReader(r)
	for {
		line, err := f.ReadString('\n')
		if err != nil && err != io.EOF {
			e.Add(err)
			break
		}
		if i := strings.Index(line, "="); i != -1 {
			name := strings.Trim(line[:i], " \t,")
			val := strings.Trim(line[i+1:], " \t,\r\n")
			switch name {
			case "max_dom":
				d.maxDom = namelistInt(val, e)
			case "map_proj":
				d.mapProj = strings.Trim(val, " '\"")
			case "ref_lat":
				d.refLat = namelistFloat(val, e)
			case "ref_lon":
				d.refLon = namelistFloat(val, e)
			case "truelat1":
				d.trueLat1 = namelistFloat(val, e)
			case "truelat2":
				d.trueLat2 = namelistFloat(val, e)
			case "parent_id":
				d.parentID = namelistIntList(val, e)
			case "parent_grid_ratio":
				d.parentGridRatio = namelistFloatList(val, e)
			case "i_parent_start":
				d.iParentStart = namelistIntList(val, e)
			case "j_parent_start":
				d.jParentStart = namelistIntList(val, e)
			case "e_we":
				d.eWE = namelistIntList(val, e)
			case "e_sn":
				d.eSN = namelistIntList(val, e)
			case "dx":
				d.dx = namelistFloat(val, e)
			case "dy":
				d.dy = namelistFloat(val, e)
			}
		}
		if err == io.EOF {
			break
		}
	}
	return d
}

func namelistInt(str string, e *errCat) int {
	out, err := strconv.Atoi(strings.TrimSpace(str))
	e.Add(err)
	return out
}

func namelistIntList(str string, e *errCat) []int {
	var out []int
	for _, ival := range strings.Split(str, ",") {
		out = append(out, namelistInt(ival, e))
	}
	return out
}

func namelistFloat(str string, e *errCat) float64 {
	out, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	e.Add(err)
	return out
}

func namelistFloatList(str string, e *errCat) []float64 {
	var out []float64
	for _, ival := range strings.Split(str, ",") {
		out = append(out, namelistFloat(ival, e))
	}
	return out
}

// errCat collects errors so that all problems in a namelist can be
// reported at once instead of just the first one.
type errCat struct {
	str string
}

func (e *errCat) Add(err error) {
	if err != nil && !strings.Contains(e.str, err.Error()) {
		e.str += err.Error() + "\n"
	}
}

func (e *errCat) convertToError() error {
	if e.str != "" {
		return errors.New(strings.TrimSuffix(e.str, "\n"))
	}
	return nil
}
