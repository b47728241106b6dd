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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/geodata"
)

// Mode specifies which kind of post-processed files are assembled.
type Mode int

const (
	// TimeSeries selects the monthly time-series files.
	TimeSeries Mode = iota

	// Climatology selects the climatology files of a period,
	// optionally regridded to a named grid.
	Climatology
)

// pressureVar holds the pressure of each level of the pressure-level
// files. It is loaded to fill in the coordinates of the p axis.
const pressureVar = "P_PL"

// AssemblerConfig configures an Assembler.
type AssemblerConfig struct {
	// Experiment is the name of the WRF experiment. Datasets and grids
	// are named after it.
	Experiment string

	// Folder holds the experiment's post-processed files.
	Folder string

	// Domains are the domains to assemble.
	Domains []int

	// Categories are the file categories to load. The Axes category
	// is always included.
	Categories []FileCategory

	// Variables are the target names of the variables to load.
	// All variables are loaded if it is empty.
	Variables []string

	// VarAtts overrides or extends the attributes of native variables.
	VarAtts map[string]VarAtts

	Mode Mode

	// Grid is the grid the climatology files are defined on. Empty or
	// NativeGrid means the model grid.
	Grid string

	// Period is the averaging period of the climatology files.
	Period Period

	// Store, if not nil, is used to look up and persist grid definitions.
	// It is required for named grids that are not common grids.
	Store *geodata.GridStore

	// Loader loads the files of a domain. NetCDFLoader is used if nil.
	Loader Loader

	// Log receives progress messages. The standard logger is used if nil.
	Log logrus.FieldLogger
}

// Loader loads the files of one domain into a dataset called name.
// Only the native variables in varlist are loaded, or all variables if
// varlist is nil. Variables and dimensions are renamed and given units
// according to atts. Horizontal dimensions must use the axes of grid.
type Loader func(name string, files, varlist []string, atts map[string]VarAtts, grid *geodata.GridDefinition) (*geodata.Dataset, error)

// Assembler assembles the post-processed output of a WRF experiment
// into one dataset per domain.
type Assembler struct {
	cfg     AssemblerConfig
	domains []int
	atts    map[string]VarAtts
	varlist []string

	// implicitPressure is true if the pressure variable was
	// added to varlist only to fill in the p axis.
	implicitPressure bool

	grids map[int]*geodata.GridDefinition
	log   logrus.FieldLogger
}

// NewAssembler checks cfg and obtains the grid definitions of the
// requested domains.
func NewAssembler(cfg AssemblerConfig) (*Assembler, error) {
	a := &Assembler{
		cfg:   cfg,
		atts:  make(map[string]VarAtts),
		grids: make(map[int]*geodata.GridDefinition),
		log:   cfg.Log,
	}
	if a.log == nil {
		a.log = logrus.StandardLogger()
	}
	if a.cfg.Loader == nil {
		a.cfg.Loader = NetCDFLoader
	}
	if cfg.Experiment == "" {
		return nil, fmt.Errorf("wrf: an experiment name is required")
	}
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("wrf: experiment %s: no file categories requested", cfg.Experiment)
	}
	if cfg.Mode == Climatology && cfg.Period == (Period{}) {
		return nil, fmt.Errorf("wrf: experiment %s: climatology files need a period", cfg.Experiment)
	}
	var err error
	if a.domains, err = sortDomains(cfg.Domains); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.Folder); err != nil {
		return nil, &MissingFileError{Path: cfg.Folder, Err: err}
	}

	hasPlev := false
	cats := append(append([]FileCategory(nil), cfg.Categories...), Axes)
	for _, c := range cats {
		if c == Plev3D {
			hasPlev = true
		}
		for native, va := range c.atts() {
			a.atts[native] = va
		}
	}
	for native, va := range cfg.VarAtts {
		a.atts[native] = va
	}
	if len(cfg.Variables) == 0 {
		for native := range a.atts {
			a.varlist = append(a.varlist, native)
		}
		sort.Strings(a.varlist)
	} else {
		a.varlist = translate(cfg.Variables, a.atts)
	}
	if hasPlev && !contains(a.varlist, pressureVar) {
		a.varlist = append(a.varlist, pressureVar)
		a.implicitPressure = true
	}

	if err := a.loadGrids(); err != nil {
		return nil, err
	}
	return a, nil
}

// sortDomains returns the sorted set of domains.
func sortDomains(domains []int) ([]int, error) {
	if len(domains) == 0 {
		return nil, fmt.Errorf("wrf: no domains requested")
	}
	set := make(map[int]bool)
	var out []int
	for _, d := range domains {
		if d < 1 {
			return nil, fmt.Errorf("wrf: invalid domain %d", d)
		}
		if !set[d] {
			set[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out, nil
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}

// Domains returns the sorted domains that a assembles.
func (a *Assembler) Domains() []int { return append([]int(nil), a.domains...) }

// Grid returns the grid definition of domain.
func (a *Assembler) Grid(domain int) (*geodata.GridDefinition, error) {
	g, ok := a.grids[domain]
	if !ok {
		return nil, &UnknownDomainError{Domain: domain, Available: a.Domains()}
	}
	return g, nil
}

// fileName returns the name of the file of category c for domain.
func (a *Assembler) fileName(c FileCategory, domain int) (string, bool) {
	if a.cfg.Mode == Climatology {
		return c.ClimatologyFile(domain, GridSuffix(a.cfg.Grid), a.cfg.Period.Suffix())
	}
	return c.TimeSeriesFile(domain)
}

// files returns the paths of the files of domain.
func (a *Assembler) files(domain int) []string {
	var files []string
	for _, c := range a.cfg.Categories {
		if name, ok := a.fileName(c, domain); ok {
			files = append(files, filepath.Join(a.cfg.Folder, name))
		}
	}
	return files
}

// metadataCategory returns the category whose files the grids are
// inferred from: the constants files if they are requested, otherwise
// the first requested category that has files.
func (a *Assembler) metadataCategory() (FileCategory, bool) {
	for _, c := range a.cfg.Categories {
		if c == Const {
			return c, true
		}
	}
	for _, c := range a.cfg.Categories {
		if _, ok := c.TimeSeriesFile(1); ok {
			return c, true
		}
	}
	return 0, false
}

func (a *Assembler) loadGrids() error {
	ctx := context.Background()
	if GridSuffix(a.cfg.Grid) != "" {
		g, err := a.namedGrid(ctx, a.cfg.Grid)
		if err != nil {
			return err
		}
		for _, d := range a.domains {
			a.grids[d] = g
		}
		return nil
	}

	c, ok := a.metadataCategory()
	if !ok {
		return fmt.Errorf("wrf: experiment %s: none of the requested file categories can be used to infer grids",
			a.cfg.Experiment)
	}
	maxDom := a.domains[len(a.domains)-1]
	sources := make([]MetadataSource, maxDom)
	for d := 1; d <= maxDom; d++ {
		name, _ := a.fileName(c, d)
		sources[d-1] = ConstantsFile(filepath.Join(a.cfg.Folder, name))
	}
	var inferred []*geodata.GridDefinition
	infer := func() ([]*geodata.GridDefinition, error) {
		if inferred != nil {
			return inferred, nil
		}
		a.log.WithFields(logrus.Fields{
			"experiment": a.cfg.Experiment,
			"domains":    a.domains,
			"category":   c,
		}).Info("inferring WRF grids")
		gs, err := InferGrids(a.cfg.Experiment, sources, a.domains...)
		if err != nil {
			return nil, err
		}
		inferred = gs
		return gs, nil
	}

	if a.cfg.Store == nil {
		gs, err := infer()
		if err != nil {
			return err
		}
		for i, d := range a.domains {
			a.grids[d] = gs[i]
		}
		return nil
	}
	for i, d := range a.domains {
		i := i
		g, err := a.cfg.Store.Load(ctx, GridName(a.cfg.Experiment, d), func() (*geodata.GridDefinition, error) {
			gs, err := infer()
			if err != nil {
				return nil, err
			}
			return gs[i], nil
		})
		if err != nil {
			return err
		}
		a.grids[d] = g
	}
	return nil
}

// namedGrid returns a grid that is not the model grid, from the store
// or from the common grids.
func (a *Assembler) namedGrid(ctx context.Context, name string) (*geodata.GridDefinition, error) {
	common := func() (*geodata.GridDefinition, error) { return geodata.LookupCommonGrid(name) }
	if a.cfg.Store == nil {
		g, err := common()
		if err != nil {
			return nil, fmt.Errorf("wrf: grid %s: no grid store configured and %v", name, err)
		}
		return g, nil
	}
	if _, err := geodata.LookupCommonGrid(name); err != nil {
		common = nil
	}
	return a.cfg.Store.Load(ctx, name, common)
}

// Assemble loads the dataset of domain. No dataset is returned if any
// part of it cannot be loaded or if its horizontal axes are not those
// of its grid.
func (a *Assembler) Assemble(domain int) (*geodata.Dataset, error) {
	grid, err := a.Grid(domain)
	if err != nil {
		return nil, err
	}
	files := a.files(domain)
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, &MissingFileError{Path: f, Err: err}
		}
	}
	name := GridName(a.cfg.Experiment, domain)
	a.log.WithFields(logrus.Fields{
		"dataset": name,
		"grid":    grid.Name,
		"files":   len(files),
	}).Info("assembling WRF dataset")

	ds, err := a.cfg.Loader(name, files, a.varlist, a.atts, grid)
	if err != nil {
		return nil, err
	}
	if err := a.pressureLevels(ds); err != nil {
		return nil, err
	}
	ds.Atts["experiment"] = a.cfg.Experiment
	ds.Atts["domain"] = domain
	if a.cfg.Mode == Climatology {
		ds.Atts["period"] = a.cfg.Period.String()
	}
	ds.AttachGrid(grid)
	if err := ds.CheckAxes(); err != nil {
		return nil, err
	}
	return ds, nil
}

// pressureLevels fills in the coordinates of the p axis from the first
// record of the pressure variable.
func (a *Assembler) pressureLevels(ds *geodata.Dataset) error {
	pv, ok := ds.Variables[pressureVar]
	if !ok {
		return nil
	}
	if a.implicitPressure {
		defer delete(ds.Variables, pressureVar)
	}
	p, ok := ds.Axes["p"]
	if !ok {
		return nil
	}
	k := pv.AxisIndex("p")
	if k < 0 || pv.Axes[k] != p {
		return fmt.Errorf("wrf: dataset %s: %s does not lie along the p axis", ds.Name, pressureVar)
	}
	coord := make([]float64, p.Len())
	index := make([]int, len(pv.Axes))
	for i := range coord {
		index[k] = i
		coord[i] = pv.Data.Get(index...)
	}
	return p.UpdateCoord(coord)
}

// AssembleAll assembles all domains in ascending order.
func (a *Assembler) AssembleAll() ([]*geodata.Dataset, error) {
	datasets := make([]*geodata.Dataset, len(a.domains))
	for i, d := range a.domains {
		ds, err := a.Assemble(d)
		if err != nil {
			return nil, err
		}
		datasets[i] = ds
	}
	return datasets, nil
}
