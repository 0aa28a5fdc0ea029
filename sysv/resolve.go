// Copyright 2026 The rkt Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sysv

import (
	"sort"

	"github.com/fallinsky/systemd/facility"
)

// Resolver computes the After= and Wants= sets of descriptors. It needs the
// complete set of descriptors of a run, since priority ordering is relative.
type Resolver struct {
	facilities *facility.Table
	priorities *Priorities
	// headerless scripts take part in priority ordering
	headerless map[string]bool
}

// NewResolver returns a Resolver for descs.
func NewResolver(ft *facility.Table, prio *Priorities, descs []*Descriptor) *Resolver {
	r := &Resolver{
		facilities: ft,
		priorities: prio,
		headerless: make(map[string]bool),
	}
	for _, d := range descs {
		if !d.HasHeader {
			r.headerless[d.Name] = true
		}
	}
	return r
}

// Resolve fills d.After and d.Wants. Scripts with a header are ordered by
// their declared dependencies, the others by their rcN.d start ordinals
// relative to other headerless scripts. Cycles are left to systemd.
func (r *Resolver) Resolve(d *Descriptor) {
	after, wants := unitSet{}, unitSet{}

	if d.HasHeader {
		r.resolveHeader(d, after, wants)
	} else {
		r.resolvePriority(d, after)
	}

	// a unit is never ordered after itself or one of its aliases
	self := []string{d.UnitName()}
	for _, a := range d.Aliases {
		self = append(self, ServiceUnitName(a))
	}
	for _, u := range self {
		delete(after, u)
		delete(wants, u)
	}

	d.After = after.sorted()
	d.Wants = wants.sorted()
}

func (r *Resolver) resolveHeader(d *Descriptor, after, wants unitSet) {
	// Required and Should tokens are treated alike
	for _, tok := range uniq(append(append([]string(nil), d.RequiredStart...), d.ShouldStart...)) {
		if !facility.IsFacility(tok) {
			// forward references to scripts that do not exist are fine
			after.add(ServiceUnitName(ScriptName(tok)))
			continue
		}

		e, ok := r.facilities.Lookup(tok)
		if !ok {
			e = facility.Fallback(tok)
			plog.Debugf("Unknown facility %s in %s, assuming %s", tok, d.Name, e.Unit)
		}

		switch e.Relation {
		case facility.OrderAndPull:
			after.add(e.Unit)
			wants.add(e.Unit)
		case facility.OrderOnly:
			after.add(e.Unit)
		}
	}
}

func (r *Resolver) resolvePriority(d *Descriptor, after unitSet) {
	for rl, ord := range d.Priorities {
		for _, l := range r.priorities.Start(rl) {
			if l.Ordinal >= ord {
				break
			}
			if l.Script == d.Name || !r.headerless[l.Script] {
				continue
			}
			after.add(ServiceUnitName(l.Script))
		}
	}
}

type unitSet map[string]struct{}

func (s unitSet) add(u string) {
	if u != "" {
		s[u] = struct{}{}
	}
}

func (s unitSet) sorted() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for u := range s {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
