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
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalogFile("testdata/experiments.toml")
	if err != nil {
		t.Fatal(err)
	}
	e, err := c.Experiment("max-ctrl")
	if err != nil {
		t.Fatal(err)
	}
	if e.Title != "Max Control" || e.Domains != 2 {
		t.Errorf("have %+v", e)
	}
	if !reflect.DeepEqual(e.DomainList(), []int{1, 2}) {
		t.Errorf("domains %v", e.DomainList())
	}
	if p := e.Path("/data"); p != filepath.Join("/data", "WRF", "Downscaling", "max-ctrl") {
		t.Errorf("path %s", p)
	}
	kf, err := c.Experiment("max-kf")
	if err != nil {
		t.Fatal(err)
	}
	if p := kf.Path("/data"); p != filepath.Join("/data", "WRF", "kf") {
		t.Errorf("path %s", p)
	}
	set, err := c.Set("cu")
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 2 || set[0].Name != "max-ctrl" || set[1].Name != "max-kf" {
		t.Errorf("set %+v", set)
	}
	if _, err := c.Experiment("nope"); err == nil {
		t.Error("want an error for an unknown experiment")
	}
	if _, err := c.Set("nope"); err == nil {
		t.Error("want an error for an unknown set")
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	for _, test := range []struct {
		name, catalog string
	}{
		{"duplicate", "[[experiment]]\nName = \"a\"\n[[experiment]]\nName = \"a\"\n"},
		{"unnamed", "[[experiment]]\nTitle = \"a\"\n"},
		{"set", "[[experiment]]\nName = \"a\"\n[Sets]\nx = [\"a\", \"b\"]\n"},
		{"syntax", "[[experiment]\n"},
	} {
		t.Run(test.name, func(t *testing.T) {
			if _, err := LoadCatalog(strings.NewReader(test.catalog)); err == nil {
				t.Error("want an error")
			}
		})
	}
}
