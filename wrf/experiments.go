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
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DownscalingFolder is the folder below the data root that holds one
// folder per experiment by default.
const DownscalingFolder = "WRF/Downscaling"

// Experiment describes a WRF experiment.
type Experiment struct {
	Name  string
	Title string

	// Folder holds the post-processed output. If it is empty, the
	// experiment is in a folder of the same name under
	// DownscalingFolder in the data root. Relative folders are
	// relative to the data root.
	Folder string

	// Domains is the number of domains.
	Domains int
}

// Catalog is a collection of experiments.
type Catalog struct {
	Experiments []Experiment `toml:"experiment"`

	// Sets groups experiments that are analysed together.
	Sets map[string][]string
}

// LoadCatalog reads a TOML experiment catalog, for example:
//
//	[[experiment]]
//	Name = "max-ctrl"
//	Title = "Max Control"
//	Domains = 2
//
//	[Sets]
//	cu = ["max-ctrl", "max-kf"]
func LoadCatalog(r io.Reader) (*Catalog, error) {
	c := new(Catalog)
	if _, err := toml.DecodeReader(r, c); err != nil {
		return nil, fmt.Errorf("wrf: reading experiment catalog: %v", err)
	}
	seen := make(map[string]bool)
	for _, e := range c.Experiments {
		if e.Name == "" {
			return nil, fmt.Errorf("wrf: experiment catalog: experiment without a name")
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("wrf: experiment catalog: duplicate experiment %s", e.Name)
		}
		seen[e.Name] = true
	}
	for set, names := range c.Sets {
		for _, n := range names {
			if !seen[n] {
				return nil, fmt.Errorf("wrf: experiment catalog: set %s refers to unknown experiment %s", set, n)
			}
		}
	}
	return c, nil
}

// LoadCatalogFile reads the experiment catalog at path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCatalog(f)
}

// Experiment returns the experiment called name.
func (c *Catalog) Experiment(name string) (Experiment, error) {
	for _, e := range c.Experiments {
		if e.Name == name {
			return e, nil
		}
	}
	return Experiment{}, fmt.Errorf("wrf: unknown experiment %q", name)
}

// Set returns the experiments in the set called name.
func (c *Catalog) Set(name string) ([]Experiment, error) {
	names, ok := c.Sets[name]
	if !ok {
		return nil, fmt.Errorf("wrf: unknown experiment set %q", name)
	}
	out := make([]Experiment, len(names))
	for i, n := range names {
		e, err := c.Experiment(n)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// Path returns the folder of e for the given data root.
func (e Experiment) Path(dataRoot string) string {
	if e.Folder == "" {
		return filepath.Join(dataRoot, DownscalingFolder, e.Name)
	}
	folder := os.ExpandEnv(e.Folder)
	if filepath.IsAbs(folder) {
		return folder
	}
	return filepath.Join(dataRoot, folder)
}

// DomainList returns the domains 1 to e.Domains.
func (e Experiment) DomainList() []int {
	d := make([]int, e.Domains)
	for i := range d {
		d[i] = i + 1
	}
	return d
}
