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

// Package geodatautil holds the command-line interface to the
// geodata packages.
package geodatautil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/geodata"
	"github.com/spatialmodel/geodata/areastats"
	"github.com/spatialmodel/geodata/climatology"
	"github.com/spatialmodel/geodata/wrf"
)

// InferGrids infers the grids of domains of experiment and saves them in
// the grid store. The grids are inferred from the constants files of the
// experiment, or from the WPS namelist file if one is given.
func InferGrids(ctx context.Context, c *Config, experiment string, domains []int, namelist string) ([]*geodata.GridDefinition, error) {
	e, folder, domains, err := c.Experiment(experiment, domains)
	if err != nil {
		return nil, err
	}
	var sources []wrf.MetadataSource
	if namelist != "" {
		f, err := os.Open(namelist)
		if err != nil {
			return nil, fmt.Errorf("geodata: opening namelist: %w", err)
		}
		defer f.Close()
		if sources, err = wrf.NamelistSources(f); err != nil {
			return nil, err
		}
	} else {
		max := 0
		for _, d := range domains {
			if d > max {
				max = d
			}
		}
		sources = wrf.ConstantsFiles(folder, wrf.Const, max)
	}
	grids, err := wrf.InferGrids(e.Name, sources, domains...)
	if err != nil {
		return nil, err
	}
	store, err := c.Store()
	if err != nil {
		return nil, err
	}
	for i, g := range grids {
		if grids[i], err = store.Put(ctx, g); err != nil {
			return nil, err
		}
		c.Log.WithFields(logrus.Fields{
			"grid": g.Name,
			"nx":   g.Nx,
			"ny":   g.Ny,
		}).Info("saved grid")
	}
	return grids, nil
}

// CommonGrid creates the common grid name at resolution res and saves
// it in the grid store.
func CommonGrid(ctx context.Context, c *Config, name, res string) (*geodata.GridDefinition, error) {
	g, err := geodata.CommonGrid(name, res)
	if err != nil {
		return nil, err
	}
	store, err := c.Store()
	if err != nil {
		return nil, err
	}
	return store.Put(ctx, g)
}

// GridShapefile writes the cells of the stored grid name to a shapefile.
func GridShapefile(ctx context.Context, c *Config, name, output string) error {
	if output == "" {
		return fmt.Errorf("geodata: the output option needs to be set")
	}
	g, err := lookupGrid(ctx, c, name)
	if err != nil {
		return err
	}
	return g.WriteToShp(os.ExpandEnv(output))
}

// lookupGrid returns a grid from the store, falling back to the
// common grids.
func lookupGrid(ctx context.Context, c *Config, name string) (*geodata.GridDefinition, error) {
	store, err := c.Store()
	if err != nil {
		return nil, err
	}
	g, err := store.Get(ctx, name)
	if err == nil {
		return g, nil
	}
	if common, cerr := geodata.LookupCommonGrid(name); cerr == nil {
		return store.Put(ctx, common)
	}
	return nil, err
}

// ClimatologyRequest specifies the climatologies to compute.
type ClimatologyRequest struct {
	Experiment string
	Domains    []int
	Categories []wrf.FileCategory
	Period     wrf.Period

	// Grid is the grid to resample the climatologies onto. Empty or
	// wrf.NativeGrid keeps the model grid.
	Grid string

	// OutputDir is where the files are written; the experiment folder
	// by default.
	OutputDir string
}

// Climatology computes the monthly climatology of each file category and
// domain of an experiment over a period and writes them, named as the
// assembler expects climatology files to be named. It returns the paths
// of the files written.
func Climatology(ctx context.Context, c *Config, r ClimatologyRequest) ([]string, error) {
	if r.Period == (wrf.Period{}) {
		return nil, fmt.Errorf("geodata: climatology: the period option needs to be set")
	}
	native := wrf.GridSuffix(r.Grid) == ""
	e, folder, domains, err := c.Experiment(r.Experiment, r.Domains)
	if err != nil {
		return nil, err
	}
	outDir := r.OutputDir
	if outDir == "" {
		outDir = folder
	}
	store, err := c.Store()
	if err != nil {
		return nil, err
	}
	var target *geodata.GridDefinition
	if !native {
		if target, err = lookupGrid(ctx, c, r.Grid); err != nil {
			return nil, err
		}
	}

	var written []string
	for _, cat := range r.Categories {
		if cat == wrf.Axes {
			continue
		}
		if cat == wrf.Const && native {
			// The output would replace the constants file itself.
			return nil, fmt.Errorf("geodata: climatology: the %s file type needs a target grid", cat)
		}
		a, err := wrf.NewAssembler(wrf.AssemblerConfig{
			Experiment: e.Name,
			Folder:     folder,
			Domains:    domains,
			Categories: []wrf.FileCategory{cat},
			Mode:       wrf.TimeSeries,
			Store:      store,
			Log:        c.Log,
		})
		if err != nil {
			return nil, err
		}
		for _, d := range a.Domains() {
			ds, err := a.Assemble(d)
			if err != nil {
				return nil, err
			}
			if _, ok := ds.Axes[climatology.TimeAxis]; ok {
				if ds, err = climatology.Average(ds, r.Period, climatology.Origin); err != nil {
					return nil, err
				}
			}
			if target != nil {
				if ds, err = climatology.Regrid(ds, target); err != nil {
					return nil, err
				}
			}
			name, _ := cat.ClimatologyFile(d, wrf.GridSuffix(r.Grid), r.Period.Suffix())
			path := filepath.Join(outDir, name)
			if err := writeDataset(ds, path); err != nil {
				return nil, err
			}
			c.Log.WithFields(logrus.Fields{
				"file":   path,
				"period": r.Period.String(),
			}).Info("wrote climatology")
			written = append(written, path)
		}
	}
	return written, nil
}

func writeDataset(ds *geodata.Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("geodata: creating output file: %w", err)
	}
	if err := ds.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// AreaStatsRequest specifies the area statistics to compute.
type AreaStatsRequest struct {
	Experiment string
	Domain     int
	Categories []wrf.FileCategory
	Variables  []string

	// Period selects climatology files instead of time series.
	Period wrf.Period

	// Grid is the grid of the climatology files.
	Grid string

	Shapefile, Field, Value string
}

// AreaStats writes to w the mean of each requested variable over the
// region selected from a shapefile, for each record, followed by the
// area total for fluxes.
func AreaStats(ctx context.Context, c *Config, w io.Writer, r AreaStatsRequest) error {
	if len(r.Variables) == 0 {
		return fmt.Errorf("geodata: areastats: the variables option needs to be set")
	}
	e, folder, domains, err := c.Experiment(r.Experiment, []int{r.Domain})
	if err != nil {
		return err
	}
	store, err := c.Store()
	if err != nil {
		return err
	}
	cfg := wrf.AssemblerConfig{
		Experiment: e.Name,
		Folder:     folder,
		Domains:    domains,
		Categories: r.Categories,
		Variables:  r.Variables,
		Mode:       wrf.TimeSeries,
		Store:      store,
		Log:        c.Log,
	}
	if r.Period != (wrf.Period{}) {
		cfg.Mode, cfg.Period, cfg.Grid = wrf.Climatology, r.Period, r.Grid
	}
	a, err := wrf.NewAssembler(cfg)
	if err != nil {
		return err
	}
	ds, err := a.Assemble(domains[0])
	if err != nil {
		return err
	}
	mask, err := c.Masks().Mask(ctx, ds.Grid, os.ExpandEnv(r.Shapefile), r.Field, r.Value)
	if err != nil {
		return err
	}
	if mask.Len() == 0 {
		return fmt.Errorf("geodata: areastats: region %s contains no cells of grid %s", mask.Name, ds.Grid.Name)
	}
	fmt.Fprintf(w, "# %s: %s, %d cells of %s\n", ds.Name, mask.Name, mask.Len(), ds.Grid.Name)
	for _, name := range r.Variables {
		v, ok := ds.Variables[name]
		if !ok {
			return fmt.Errorf("geodata: areastats: dataset %s has no variable %s", ds.Name, name)
		}
		mean, err := areastats.Mean(v, mask)
		if err != nil {
			return err
		}
		var totals []string
		if _, ok := areastats.FluxUnits[v.Units]; ok {
			t, err := areastats.Total(v, mask)
			if err != nil {
				return err
			}
			for _, u := range t {
				totals = append(totals, fmt.Sprintf("%g", u))
			}
		}
		fmt.Fprintf(w, "%s [%s]\n", name, v.Units)
		for i, m := range mean.Data.Elements {
			line := fmt.Sprintf("%s\t%g", recordLabel(mean, i), m)
			if totals != nil {
				line += "\t" + totals[i]
			}
			fmt.Fprintln(w, line)
		}
	}
	return nil
}

// recordLabel describes element i of v by its axis coordinates.
func recordLabel(v *geodata.Variable, i int) string {
	index := v.Data.IndexNd(i)
	parts := make([]string, len(index))
	for k, a := range v.Axes {
		parts[k] = fmt.Sprintf("%s=%g", a.Name, a.Coord[index[k]])
	}
	return strings.Join(parts, " ")
}
