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

	"github.com/spatialmodel/geodata"
)

// MissingDependencyError is returned when the metadata of a domain
// cannot be resolved. Requested is false when the domain was not
// requested itself but is needed to place a nested domain.
type MissingDependencyError struct {
	Domain    int
	Source    string
	Requested bool
	Err       error
}

func (e *MissingDependencyError) Error() string {
	msg := fmt.Sprintf("wrf: metadata for domain %d not found", e.Domain)
	if e.Source != "" {
		msg += fmt.Sprintf(" (%s)", e.Source)
	}
	if !e.Requested {
		msg += "; it is needed to infer the grids of nested domains"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingDependencyError) Unwrap() error { return e.Err }

// UnsupportedProjectionError is returned for any WRF MAP_PROJ other than
// Lambert Conformal Conic (1).
type UnsupportedProjectionError struct {
	Code int
}

func (e *UnsupportedProjectionError) Error() string {
	return fmt.Sprintf("wrf: unsupported projection MAP_PROJ=%d; only Lambert Conformal Conic (1) is supported", e.Code)
}

// NoHorizontalAxisError is returned when neither west_east/south_north
// nor x/y dimensions are present.
type NoHorizontalAxisError struct {
	Domain int
	Source string
}

func (e *NoHorizontalAxisError) Error() string {
	return fmt.Sprintf("wrf: domain %d (%s): no horizontal axis found; need west_east and south_north or x and y dimensions",
		e.Domain, e.Source)
}

// InconsistentDomainIDError is returned when a domain declares a grid or
// parent id that does not fit its position in the nesting.
type InconsistentDomainIDError struct {
	Domain    int
	Attribute string
	Declared  int
}

func (e *InconsistentDomainIDError) Error() string {
	return fmt.Sprintf("wrf: domain %d declares %s=%d", e.Domain, e.Attribute, e.Declared)
}

// MissingFileError is returned when a data file to be assembled does
// not exist.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("wrf: file %s not found: %v", e.Path, e.Err)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

// UnknownDomainError is returned when a domain is requested from an
// Assembler that was not configured for it.
type UnknownDomainError struct {
	Domain    int
	Available []int
}

func (e *UnknownDomainError) Error() string {
	return fmt.Sprintf("wrf: domain %d is not among the requested domains %v", e.Domain, e.Available)
}

// AxisConsistencyError is returned when an assembled dataset does not
// share its horizontal axes with its grid.
type AxisConsistencyError = geodata.AxisConsistencyError
