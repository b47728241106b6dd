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

// Package hash computes cache keys for request payloads.
package hash

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"io"

	"github.com/davecgh/go-spew/spew"
)

var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Key returns a key identifying the given values, in order.
// Stringers are keyed by their string; values that gob cannot
// encode (e.g. nil) are printed with spew instead.
func Key(values ...interface{}) string {
	h := fnv.New128a()
	for i, v := range values {
		fmt.Fprintf(h, "%d:", i)
		write(h, v)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func write(w io.Writer, v interface{}) {
	if s, ok := v.(fmt.Stringer); ok {
		io.WriteString(w, s.String())
		return
	}
	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(v); err == nil {
		w.Write(b.Bytes())
		return
	}
	printer.Fprintf(w, "%#v", v)
}
