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

// Metadata gives access to the global attributes and dimensions of
// one WRF domain.
type Metadata interface {
	// Attribute returns the value of a numeric global attribute.
	Attribute(name string) (float64, error)

	// DimensionLength returns the length of a dimension and whether
	// it exists.
	DimensionLength(name string) (int, bool)

	Close() error
}

// MetadataSource opens the metadata of one domain.
type MetadataSource interface {
	Open() (Metadata, error)
	String() string
}

// ConstantsFile is a MetadataSource backed by a WRF NetCDF file,
// usually the constants file of a domain.
type ConstantsFile string

// Open implements MetadataSource.
func (p ConstantsFile) Open() (Metadata, error) {
	f, ff, err := geodata.OpenNCF(string(p))
	if err != nil {
		return nil, err
	}
	return &ncfMetadata{f: f, ff: ff}, nil
}

func (p ConstantsFile) String() string { return string(p) }

type ncfMetadata struct {
	f  *os.File
	ff *cdf.File
}

func (m *ncfMetadata) Attribute(name string) (float64, error) {
	return geodata.Attribute(m.ff, "", name)
}

func (m *ncfMetadata) DimensionLength(name string) (int, bool) {
	dims := m.ff.Header.Dimensions("")
	lengths := m.ff.Header.Lengths("")
	for i, d := range dims {
		if d == name {
			return lengths[i], true
		}
	}
	return 0, false
}

func (m *ncfMetadata) Close() error { return m.f.Close() }

// StaticMetadata is metadata held in memory. It is its own
// MetadataSource.
type StaticMetadata struct {
	Name       string
	Attributes map[string]float64
	Dimensions map[string]int
}

// Open implements MetadataSource.
func (m *StaticMetadata) Open() (Metadata, error) { return m, nil }

func (m *StaticMetadata) String() string { return m.Name }

// Attribute implements Metadata.
func (m *StaticMetadata) Attribute(name string) (float64, error) {
	v, ok := m.Attributes[name]
	if !ok {
		return 0, fmt.Errorf("wrf: %s: attribute %s not found", m.Name, name)
	}
	return v, nil
}

// DimensionLength implements Metadata.
func (m *StaticMetadata) DimensionLength(name string) (int, bool) {
	n, ok := m.Dimensions[name]
	return n, ok
}

// Close implements Metadata.
func (m *StaticMetadata) Close() error { return nil }
