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

package geodata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/requestcache"
)

// ErrGridNotFound is returned by GridStore.Get when a grid is neither
// cached nor persisted.
var ErrGridNotFound = errors.New("geodata: grid definition not found")

// GridCreator creates a grid definition that is not yet in a GridStore.
type GridCreator func() (*GridDefinition, error)

// GridStore is a persistent store of grid definitions keyed by grid
// name. Grids are held in memory and written to a folder on disk, so
// that they do not need to be inferred again on the next run.
// It is safe for concurrent use.
type GridStore struct {
	folder string
	cache  *requestcache.Cache
}

type gridRequest struct {
	name   string
	create GridCreator
}

// NewGridStore returns a store that persists grids in folder and keeps
// up to memorySize of them in memory.
func NewGridStore(folder string, memorySize int) (*GridStore, error) {
	if err := os.MkdirAll(folder, os.ModePerm); err != nil {
		return nil, fmt.Errorf("geodata: creating grid store: %v", err)
	}
	s := &GridStore{folder: folder}
	// Requests are not deduplicated because a failed request
	// would keep its key locked.
	s.cache = requestcache.NewCache(s.process, 1,
		requestcache.Memory(memorySize),
		requestcache.Disk(folder, requestcache.MarshalGob, requestcache.UnmarshalGob),
	)
	return s, nil
}

func (s *GridStore) process(_ context.Context, payload interface{}) (interface{}, error) {
	r := payload.(gridRequest)
	if r.create == nil {
		return nil, fmt.Errorf("%w: %s", ErrGridNotFound, r.name)
	}
	g, err := r.create()
	if err != nil {
		return nil, err
	}
	if g.Name != r.name {
		return nil, fmt.Errorf("geodata: grid store: requested grid %s but created %s", r.name, g.Name)
	}
	return g, nil
}

// Load returns the grid called name, calling create and persisting the
// result if it is not in the store.
func (s *GridStore) Load(ctx context.Context, name string, create GridCreator) (*GridDefinition, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("geodata: invalid grid name %q", name)
	}
	r := s.cache.NewRequest(ctx, gridRequest{name: name, create: create}, name)
	result, err := r.Result()
	if err != nil {
		return nil, err
	}
	return result.(*GridDefinition), nil
}

// Get returns the grid called name, which must already be in the store.
func (s *GridStore) Get(ctx context.Context, name string) (*GridDefinition, error) {
	return s.Load(ctx, name, nil)
}

// Put adds g to the store unless a grid of the same name is already
// present, and returns the stored grid.
func (s *GridStore) Put(ctx context.Context, g *GridDefinition) (*GridDefinition, error) {
	return s.Load(ctx, g.Name, func() (*GridDefinition, error) { return g, nil })
}
