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

package geodatautil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/geodata"
	"github.com/spatialmodel/geodata/areastats"
	"github.com/spatialmodel/geodata/wrf"
	"github.com/spf13/cast"
)

// Numbers of grids and masks kept in memory.
const (
	gridMemory = 20
	maskMemory = 10
)

// Config holds the settings shared by all commands.
type Config struct {
	// DataRoot is the folder that holds the WRF experiment folders.
	DataRoot string

	// GridFolder is where grid definitions are persisted.
	GridFolder string

	// Catalog describes the known experiments. It is nil if no
	// catalog file was configured, in which case experiments are
	// looked up by folder name under DataRoot.
	Catalog *wrf.Catalog

	Log logrus.FieldLogger

	store *geodata.GridStore
	masks *areastats.MaskCache
}

// NewConfig reads the shared settings from cfg.
func NewConfig(cfg *viper.Viper) (*Config, error) {
	c := &Config{
		DataRoot:   os.ExpandEnv(cfg.GetString("data_root")),
		GridFolder: os.ExpandEnv(cfg.GetString("grid_folder")),
		Log:        logrus.StandardLogger(),
	}
	if c.DataRoot == "" {
		return nil, fmt.Errorf("geodata: the data_root option needs to be set")
	}
	if c.GridFolder == "" {
		c.GridFolder = filepath.Join(c.DataRoot, "grids")
	}
	if path := os.ExpandEnv(cfg.GetString("experiments")); path != "" {
		catalog, err := wrf.LoadCatalogFile(path)
		if err != nil {
			return nil, err
		}
		c.Catalog = catalog
	}
	return c, nil
}

// Store returns the grid store in GridFolder, creating it on first use.
func (c *Config) Store() (*geodata.GridStore, error) {
	if c.store != nil {
		return c.store, nil
	}
	s, err := geodata.NewGridStore(c.GridFolder, gridMemory)
	if err != nil {
		return nil, err
	}
	c.store = s
	return s, nil
}

// Masks returns the cache of region masks.
func (c *Config) Masks() *areastats.MaskCache {
	if c.masks == nil {
		c.masks = areastats.NewMaskCache(maskMemory)
	}
	return c.masks
}

// Experiment returns the experiment called name together with its
// folder and the domains to process: domains if any are given,
// otherwise all domains the catalog lists for it.
func (c *Config) Experiment(name string, domains []int) (e wrf.Experiment, folder string, d []int, err error) {
	if name == "" {
		return e, "", nil, fmt.Errorf("geodata: the experiment option needs to be set")
	}
	e = wrf.Experiment{Name: name}
	if c.Catalog != nil {
		if e, err = c.Catalog.Experiment(name); err != nil {
			return e, "", nil, err
		}
	}
	d = domains
	if len(d) == 0 {
		d = e.DomainList()
	}
	if len(d) == 0 {
		return e, "", nil, fmt.Errorf("geodata: no domains given for experiment %s", name)
	}
	return e, e.Path(c.DataRoot), d, nil
}

// intList converts v into a list of integers. Strings are split
// at commas, so lists can be given in environment variables.
func intList(v interface{}) ([]int, error) {
	if s, ok := v.(string); ok {
		var out []int
		for _, f := range splitList(s) {
			i, err := cast.ToIntE(f)
			if err != nil {
				return nil, err
			}
			out = append(out, i)
		}
		return out, nil
	}
	return cast.ToIntSliceE(v)
}

// stringList converts v into a list of strings, splitting strings
// at commas.
func stringList(v interface{}) ([]string, error) {
	if s, ok := v.(string); ok {
		return splitList(s), nil
	}
	list, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, s := range list {
		out = append(out, splitList(s)...)
	}
	return out, nil
}

// splitList splits s at commas. Enclosing brackets, as in the string
// values of slice flags, are removed.
func splitList(s string) []string {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "["), "]")
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// categories parses a list of file category names.
func categories(v interface{}) ([]wrf.FileCategory, error) {
	names, err := stringList(v)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("geodata: no file types given")
	}
	out := make([]wrf.FileCategory, len(names))
	for i, n := range names {
		if out[i], err = wrf.ParseFileCategory(n); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// period parses a period given as its first and last year, such as
// "1979,1994". An empty value means no period.
func period(v interface{}) (wrf.Period, error) {
	years, err := intList(v)
	if err != nil {
		return wrf.Period{}, err
	}
	switch {
	case len(years) == 0:
		return wrf.Period{}, nil
	case len(years) != 2 || years[1] <= years[0]:
		return wrf.Period{}, fmt.Errorf("geodata: invalid period %v; it should be a start and end year", v)
	}
	return wrf.Period{Start: years[0], End: years[1]}, nil
}
