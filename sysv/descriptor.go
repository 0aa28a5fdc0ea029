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
	"strconv"
	"strings"

	"github.com/fallinsky/systemd/facility"
	"github.com/fallinsky/systemd/pkg/lsb"
)

// Descriptor is everything needed to emit the unit of one init script. It
// is built once per run and not modified after resolution.
type Descriptor struct {
	Name    string
	Aliases []string

	Description      string
	ShortDescription string

	ScriptPath string

	RequiredStart []string
	RequiredStop  []string
	ShouldStart   []string
	ShouldStop    []string

	// DefaultStart and DefaultStop are the runlevels declared in the header.
	DefaultStart []int
	DefaultStop  []int

	// StartRunlevels are the runlevels the script is installed to start in,
	// i.e. where an rcN.d start link points at it. Enablement follows them.
	StartRunlevels []int

	// Priorities maps runlevel to start ordinal.
	Priorities map[int]int

	// After holds the ordering predecessors, Wants the subset of them that
	// must also be pulled in. Both are sorted unit names.
	After []string
	Wants []string

	HasHeader bool
}

// UnitName returns the name of the canonical service unit.
func (d *Descriptor) UnitName() string {
	return ServiceUnitName(d.Name)
}

// UnitDescription returns the Description= value of the unit.
func (d *Descriptor) UnitDescription() string {
	if !d.HasHeader {
		return "SYSV: " + d.Name
	}
	switch {
	case d.ShortDescription != "":
		return "LSB: " + d.ShortDescription
	case d.Description != "":
		return "LSB: " + d.Description
	}
	return "LSB: " + d.Name
}

// Build creates the descriptor of script from its parsed header and the
// install-time links. Dependencies are left for the Resolver.
func Build(s Script, h *lsb.Header, prio *Priorities) *Descriptor {
	d := &Descriptor{
		Name:           s.Name,
		ScriptPath:     s.Path,
		HasHeader:      h.Present(),
		StartRunlevels: prio.StartRunlevels(s.Name),
		Priorities:     make(map[int]int),
	}

	for _, rl := range d.StartRunlevels {
		ord, _ := prio.StartOrdinal(s.Name, rl)
		d.Priorities[rl] = ord
	}

	if !d.HasHeader {
		return d
	}

	d.Aliases = buildAliases(d.Name, h.Words(lsb.Provides))

	d.RequiredStart = uniq(h.Words(lsb.RequiredStart))
	if h.Has(lsb.RequiredStop) {
		d.RequiredStop = uniq(h.Words(lsb.RequiredStop))
	} else {
		d.RequiredStop = append([]string(nil), d.RequiredStart...)
	}
	d.ShouldStart = uniq(h.Words(lsb.ShouldStart))
	d.ShouldStop = uniq(h.Words(lsb.ShouldStop))

	d.DefaultStart = parseRunlevels(d.Name, lsb.DefaultStart, h.Words(lsb.DefaultStart))
	d.DefaultStop = parseRunlevels(d.Name, lsb.DefaultStop, h.Words(lsb.DefaultStop))

	d.ShortDescription = h.Get(lsb.ShortDescription)
	d.Description = h.Get(lsb.Description)

	return d
}

// buildAliases turns the Provides names into aliases, dropping the
// canonical name, facilities, invalid names and repeats.
func buildAliases(name string, provides []string) []string {
	var aliases []string
	seen := map[string]bool{name: true}
	for _, p := range provides {
		if facility.IsFacility(p) {
			plog.Debugf("%s provides facility %s, ignoring", name, p)
			continue
		}
		a := ScriptName(p)
		if seen[a] {
			continue
		}
		seen[a] = true
		if !ValidServiceName(a) {
			plog.Warningf("%s provides invalid name %q, ignoring", name, p)
			continue
		}
		aliases = append(aliases, a)
	}
	return aliases
}

// parseRunlevels converts runlevel tokens, dropping the ones that are not
// 0-6. "S" (sysinit) is accepted and carries no runlevel.
func parseRunlevels(name string, key lsb.Key, words []string) []int {
	seen := make(map[int]bool)
	var rls []int
	for _, w := range words {
		if strings.EqualFold(w, "S") {
			continue
		}
		rl, err := strconv.Atoi(w)
		if err != nil || rl < 0 || rl > MaxRunlevel {
			plog.Warningf("Invalid runlevel %q in %s of %s, ignoring", w, key, name)
			continue
		}
		if !seen[rl] {
			seen[rl] = true
			rls = append(rls, rl)
		}
	}
	sort.Ints(rls)
	return rls
}

func uniq(words []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
