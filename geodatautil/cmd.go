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
	"context"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/geodata"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "data_root",
			usage: `
              data_root is the folder holding the model output. Experiments
              are found in its WRF/Downscaling subfolder unless the experiment
              catalog says otherwise.`,
			defaultVal: "${HOME}/data",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "grid_folder",
			usage: `
              grid_folder is where grid definitions are saved. The default
              is the grids subfolder of data_root.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "experiments",
			usage: `
              experiments is the path to a TOML catalog describing the
              available experiments.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "experiment",
			usage: `
              experiment is the name of the WRF experiment to process.`,
			shorthand:  "e",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{inferCmd.Flags(), climatologyCmd.Flags(), areaStatsCmd.Flags()},
		},
		{
			name: "domains",
			usage: `
              domains lists the WRF domains to process. By default all
              domains listed in the experiment catalog are processed.`,
			shorthand:  "d",
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{inferCmd.Flags(), climatologyCmd.Flags()},
		},
		{
			name: "domain",
			usage: `
              domain is the WRF domain to compute statistics for.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{areaStatsCmd.Flags()},
		},
		{
			name: "namelist",
			usage: `
              namelist is the path to a WPS namelist to infer the grids from
              instead of the constants files.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{inferCmd.Flags()},
		},
		{
			name: "name",
			usage: `
              name is the name of a common grid.`,
			defaultVal: "ARB_small",
			flagsets:   []*pflag.FlagSet{commonCmd.Flags()},
		},
		{
			name: "res",
			usage: `
              res is the resolution code of a common grid.`,
			defaultVal: geodata.DefaultResolution,
			flagsets:   []*pflag.FlagSet{commonCmd.Flags()},
		},
		{
			name: "grid",
			usage: `
              grid is the name of a saved or common grid. For climatologies
              and area statistics it selects the grid of the climatology
              files; WRF means the model grid.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{shpCmd.Flags(), climatologyCmd.Flags(), areaStatsCmd.Flags()},
		},
		{
			name: "output",
			usage: `
              output is the path of the output file.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{shpCmd.Flags()},
		},
		{
			name: "output_dir",
			usage: `
              output_dir is the folder to write climatology files to. The
              default is the experiment folder.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{climatologyCmd.Flags()},
		},
		{
			name: "filetypes",
			usage: `
              filetypes lists the WRF file types to read: const, srfc,
              hydro, xtrm or plev3d.`,
			defaultVal: []string{"srfc"},
			flagsets:   []*pflag.FlagSet{climatologyCmd.Flags(), areaStatsCmd.Flags()},
		},
		{
			name: "period",
			usage: `
              period gives the first and last year of a climatology.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{climatologyCmd.Flags(), areaStatsCmd.Flags()},
		},
		{
			name: "variables",
			usage: `
              variables lists the variables to compute statistics for.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{areaStatsCmd.Flags()},
		},
		{
			name: "shapefile",
			usage: `
              shapefile is the path to a shapefile holding the regions.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{areaStatsCmd.Flags()},
		},
		{
			name: "field",
			usage: `
              field is the shapefile attribute that identifies regions. If
              it is empty all shapes are used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{areaStatsCmd.Flags()},
		},
		{
			name: "value",
			usage: `
              value selects the shapes whose field attribute equals it.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{areaStatsCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GEODATA")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case []int:
				set.IntSliceP(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(gridCmd)
	gridCmd.AddCommand(inferCmd)
	gridCmd.AddCommand(commonCmd)
	gridCmd.AddCommand(shpCmd)
	Root.AddCommand(climatologyCmd)
	Root.AddCommand(areaStatsCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("geodata: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "geodata",
	Short: "Tools for gridded WRF model output.",
	Long: `geodata infers the grids of WRF model domains, assembles model output
into datasets, and computes climatologies and statistics over regions.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GEODATA_var' where 'var' is
the name of the variable to be set. Path options may contain environment
variables.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of geodata.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "geodata v%s\n", geodata.Version)
	},
	DisableAutoGenTag: true,
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Create and export grid definitions.",
	Long: `grid creates grid definitions and saves them in the grid folder, or
exports saved grids. Use the subcommands specified below.`,
	DisableAutoGenTag: true,
}

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Infer the grids of WRF domains.",
	Long: `infer infers the map projection and grid of each requested domain of
an experiment from its constants files, or from a WPS namelist, and saves them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := NewConfig(Cfg)
		if err != nil {
			return err
		}
		domains, err := intList(Cfg.Get("domains"))
		if err != nil {
			return fmt.Errorf("geodata: domains: %v", err)
		}
		grids, err := InferGrids(context.Background(), c, Cfg.GetString("experiment"), domains,
			os.ExpandEnv(Cfg.GetString("namelist")))
		if err != nil {
			return err
		}
		for _, g := range grids {
			x0, y0 := g.Geotransform.Origin()
			dx, dy := g.Geotransform.CellSize()
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d\torigin (%g, %g)\tcell size (%g, %g)\t%s\n",
				g.Name, g.Nx, g.Ny, x0, y0, dx, dy, g.Projection.Proj4())
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var commonCmd = &cobra.Command{
	Use:   "common",
	Short: "Create a common lat/lon grid.",
	Long: `common creates one of the common geographic grids that climatologies
are resampled onto, and saves it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := NewConfig(Cfg)
		if err != nil {
			return err
		}
		g, err := CommonGrid(context.Background(), c, Cfg.GetString("name"), Cfg.GetString("res"))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d\n", g.Name, g.Nx, g.Ny)
		return nil
	},
	DisableAutoGenTag: true,
}

var shpCmd = &cobra.Command{
	Use:   "shp",
	Short: "Write the cells of a grid to a shapefile.",
	Long:  `shp writes the cells of a saved or common grid to a shapefile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := NewConfig(Cfg)
		if err != nil {
			return err
		}
		return GridShapefile(context.Background(), c, Cfg.GetString("grid"), Cfg.GetString("output"))
	},
	DisableAutoGenTag: true,
}

var climatologyCmd = &cobra.Command{
	Use:   "climatology",
	Short: "Compute monthly climatologies.",
	Long: `climatology averages the monthly WRF time series of an experiment
over a period, optionally resamples them onto another grid, and writes
one climatology file per domain and file type.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := NewConfig(Cfg)
		if err != nil {
			return err
		}
		r := ClimatologyRequest{
			Experiment: Cfg.GetString("experiment"),
			Grid:       Cfg.GetString("grid"),
			OutputDir:  os.ExpandEnv(Cfg.GetString("output_dir")),
		}
		if r.Domains, err = intList(Cfg.Get("domains")); err != nil {
			return fmt.Errorf("geodata: domains: %v", err)
		}
		if r.Categories, err = categories(Cfg.Get("filetypes")); err != nil {
			return err
		}
		if r.Period, err = period(Cfg.Get("period")); err != nil {
			return err
		}
		files, err := Climatology(context.Background(), c, r)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var areaStatsCmd = &cobra.Command{
	Use:   "areastats",
	Short: "Compute statistics over regions.",
	Long: `areastats computes the mean of WRF variables over a region read from
a shapefile, such as a river basin, and the area total of fluxes. With a
period, climatology files are read instead of the time series.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := NewConfig(Cfg)
		if err != nil {
			return err
		}
		r := AreaStatsRequest{
			Experiment: Cfg.GetString("experiment"),
			Domain:     Cfg.GetInt("domain"),
			Grid:       Cfg.GetString("grid"),
			Shapefile:  Cfg.GetString("shapefile"),
			Field:      Cfg.GetString("field"),
			Value:      Cfg.GetString("value"),
		}
		if r.Categories, err = categories(Cfg.Get("filetypes")); err != nil {
			return err
		}
		if r.Variables, err = stringList(Cfg.Get("variables")); err != nil {
			return err
		}
		if r.Period, err = period(Cfg.Get("period")); err != nil {
			return err
		}
		return AreaStats(context.Background(), c, cmd.OutOrStdout(), r)
	},
	DisableAutoGenTag: true,
}
