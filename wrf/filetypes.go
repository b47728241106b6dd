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
	"sort"
	"strings"
)

// FileCategory is a group of WRF post-processed output variables that
// are stored in the same file.
type FileCategory int

// The file categories. Axes is a pseudo-category holding coordinate
// dimensions; it has no file of its own.
const (
	Const FileCategory = iota
	Srfc
	Hydro
	Xtrm
	Plev3D
	Axes
)

// Categories lists all file categories.
var Categories = []FileCategory{Const, Srfc, Hydro, Xtrm, Plev3D, Axes}

func (c FileCategory) String() string {
	switch c {
	case Const:
		return "const"
	case Srfc:
		return "srfc"
	case Hydro:
		return "hydro"
	case Xtrm:
		return "xtrm"
	case Plev3D:
		return "plev3d"
	case Axes:
		return "axes"
	default:
		panic(fmt.Errorf("wrf: invalid file category %d", int(c)))
	}
}

// ParseFileCategory returns the category with the given name.
func ParseFileCategory(s string) (FileCategory, error) {
	for _, c := range Categories {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("wrf: unknown file category %q", s)
}

// VarAtts holds the target name and units of a native WRF variable.
type VarAtts struct {
	Name         string
	Units        string
	FillValue    float64
	HasFillValue bool
}

const plevFill = -999

var (
	constAtts = map[string]VarAtts{
		"HGT":   {Name: "zs", Units: "m"},
		"XLONG": {Name: "lon2D", Units: "deg E"},
		"XLAT":  {Name: "lat2D", Units: "deg N"},
	}
	srfcAtts = map[string]VarAtts{
		"T2":     {Name: "T2", Units: "K"},
		"Q2":     {Name: "Q2", Units: "Pa"},
		"RAIN":   {Name: "precip", Units: "kg/m^2/s"},
		"RAINC":  {Name: "preccu", Units: "kg/m^2/s"},
		"RAINNC": {Name: "precnc", Units: "kg/m^2/s"},
		"SNOW":   {Name: "snow", Units: "kg/m^2"},
		"SNOWH":  {Name: "snowh", Units: "m"},
		"PSFC":   {Name: "ps", Units: "Pa"},
	}
	hydroAtts = map[string]VarAtts{
		"T2":     {Name: "T2", Units: "K"},
		"RAIN":   {Name: "precip", Units: "kg/m^2/s"},
		"RAINC":  {Name: "preccu", Units: "kg/m^2/s"},
		"RAINNC": {Name: "precnc", Units: "kg/m^2/s"},
		"SFCEVP": {Name: "evap", Units: "kg/m^2/s"},
		"ACSNOM": {Name: "snwmlt", Units: "kg/m^2/s"},
		"POTEVP": {Name: "pet", Units: "kg/m^2/s"},
	}
	xtrmAtts = map[string]VarAtts{
		"T2MEAN":       {Name: "Tmean", Units: "K"},
		"T2MIN":        {Name: "Tmin", Units: "K"},
		"T2MAX":        {Name: "Tmax", Units: "K"},
		"T2STD":        {Name: "Tstd", Units: "K"},
		"SKINTEMPMEAN": {Name: "TSmean", Units: "K"},
		"SKINTEMPMIN":  {Name: "TSmin", Units: "K"},
		"SKINTEMPMAX":  {Name: "TSmax", Units: "K"},
		"SKINTEMPSTD":  {Name: "TSstd", Units: "K"},
		"Q2MEAN":       {Name: "Qmean", Units: "Pa"},
		"Q2MIN":        {Name: "Qmin", Units: "Pa"},
		"Q2MAX":        {Name: "Qmax", Units: "Pa"},
		"Q2STD":        {Name: "Qstd", Units: "Pa"},
		"SPDUV10MEAN":  {Name: "U10mean", Units: "m/s"},
		"SPDUV10MAX":   {Name: "U10max", Units: "m/s"},
		"SPDUV10STD":   {Name: "U10std", Units: "m/s"},
		"U10MEAN":      {Name: "u10mean", Units: "m/s"},
		"V10MEAN":      {Name: "v10mean", Units: "m/s"},
		"RAINCVMEAN":   {Name: "preccumean", Units: "kg/m^2/s"},
		"RAINCVMAX":    {Name: "preccumax", Units: "kg/m^2/s"},
		"RAINCVSTD":    {Name: "preccustd", Units: "kg/m^2/s"},
		"RAINNCVMEAN":  {Name: "precncmean", Units: "kg/m^2/s"},
		"RAINNCVMAX":   {Name: "precncmax", Units: "kg/m^2/s"},
		"RAINNCVSTD":   {Name: "precncstd", Units: "kg/m^2/s"},
	}
	plev3DAtts = map[string]VarAtts{
		"T_PL":   {Name: "T", Units: "K", FillValue: plevFill, HasFillValue: true},
		"TD_PL":  {Name: "Td", Units: "K", FillValue: plevFill, HasFillValue: true},
		"RH_PL":  {Name: "RH", Units: "", FillValue: plevFill, HasFillValue: true},
		"GHT_PL": {Name: "Z", Units: "m", FillValue: plevFill, HasFillValue: true},
		"S_PL":   {Name: "U", Units: "m/s", FillValue: plevFill, HasFillValue: true},
		"U_PL":   {Name: "u", Units: "m/s", FillValue: plevFill, HasFillValue: true},
		"V_PL":   {Name: "v", Units: "m/s", FillValue: plevFill, HasFillValue: true},
	}
	// The time coordinate counts months since January 1979.
	axesAtts = map[string]VarAtts{
		"Time":                  {Name: "time", Units: "month"},
		"time":                  {Name: "time", Units: "month"},
		"west_east":             {Name: "x", Units: "m"},
		"south_north":           {Name: "y", Units: "m"},
		"x":                     {Name: "x", Units: "m"},
		"y":                     {Name: "y", Units: "m"},
		"num_press_levels_stag": {Name: "p", Units: "Pa"},
		"length_of_month":       {Name: "length_of_month", Units: "days"},
	}
)

func (c FileCategory) atts() map[string]VarAtts {
	switch c {
	case Const:
		return constAtts
	case Srfc:
		return srfcAtts
	case Hydro:
		return hydroAtts
	case Xtrm:
		return xtrmAtts
	case Plev3D:
		return plev3DAtts
	case Axes:
		return axesAtts
	default:
		panic(fmt.Errorf("wrf: invalid file category %d", int(c)))
	}
}

// Attributes returns a copy of the mapping from native variable names
// to their attributes.
func (c FileCategory) Attributes() map[string]VarAtts {
	o := make(map[string]VarAtts)
	for k, v := range c.atts() {
		o[k] = v
	}
	return o
}

// fileStem is the part of the file name that precedes the domain.
func (c FileCategory) fileStem() (string, bool) {
	switch c {
	case Const:
		return "wrfconst", true
	case Srfc:
		return "wrfsrfc", true
	case Hydro:
		return "wrfhydro", true
	case Xtrm:
		return "wrfxtrm", true
	case Plev3D:
		return "wrfplev3d", true
	case Axes:
		return "", false
	default:
		panic(fmt.Errorf("wrf: invalid file category %d", int(c)))
	}
}

// TimeSeriesFile returns the name of the monthly time-series file
// for domain. ok is false for categories without a file.
func (c FileCategory) TimeSeriesFile(domain int) (name string, ok bool) {
	stem, ok := c.fileStem()
	if !ok {
		return "", false
	}
	if c == Const {
		return fmt.Sprintf("%s_d%02d.nc", stem, domain), true
	}
	return fmt.Sprintf("%s_d%02d_monthly.nc", stem, domain), true
}

// ClimatologyFile returns the name of the climatology file for domain,
// where gridSuffix and periodSuffix are as returned by GridSuffix and
// Period.Suffix. Constant fields do not depend on the period, so
// periodSuffix is ignored for Const. ok is false for categories without
// a file.
func (c FileCategory) ClimatologyFile(domain int, gridSuffix, periodSuffix string) (name string, ok bool) {
	stem, ok := c.fileStem()
	if !ok {
		return "", false
	}
	if c == Const {
		return fmt.Sprintf("%s_d%02d%s.nc", stem, domain, gridSuffix), true
	}
	return fmt.Sprintf("%s_d%02d%s_clim%s.nc", stem, domain, gridSuffix, periodSuffix), true
}

// NativeGrid is the grid name that refers to the model's own grid.
const NativeGrid = "WRF"

// GridSuffix returns the file name suffix for grid: empty for the
// native model grid, otherwise "_" followed by the lower-cased grid
// name.
func GridSuffix(grid string) string {
	if grid == "" || strings.EqualFold(grid, NativeGrid) {
		return ""
	}
	return "_" + strings.ToLower(grid)
}

// Period is a range of years. The zero Period means no period.
type Period struct {
	Start, End int
}

// Years returns the number of years in p.
func (p Period) Years() int { return p.End - p.Start }

// Suffix returns the file name suffix for p: empty for the zero
// period, otherwise "_{start}-{end}".
func (p Period) Suffix() string {
	if p == (Period{}) {
		return ""
	}
	return fmt.Sprintf("_%04d-%04d", p.Start, p.End)
}

func (p Period) String() string { return fmt.Sprintf("%04d-%04d", p.Start, p.End) }

// Translate returns the sorted set of native variable names whose
// target names are in targets, searching the attributes of categories.
// Names that are not the target of any native variable are returned
// unchanged, so native names can be requested directly.
func Translate(targets []string, categories ...FileCategory) []string {
	atts := make(map[string]VarAtts)
	for _, c := range categories {
		for native, a := range c.atts() {
			atts[native] = a
		}
	}
	return translate(targets, atts)
}

func translate(targets []string, atts map[string]VarAtts) []string {
	reverse := make(map[string][]string)
	for native, a := range atts {
		reverse[a.Name] = append(reverse[a.Name], native)
	}
	set := make(map[string]struct{})
	for _, t := range targets {
		natives, ok := reverse[t]
		if !ok {
			set[t] = struct{}{}
			continue
		}
		for _, n := range natives {
			set[n] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
