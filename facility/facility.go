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

// Package facility maps LSB facility names ($network, $named, ...) to the
// systemd units that stand for them.
package facility

import (
	"fmt"
	"sort"
	"strings"
)

// Relation says how a facility is expressed as a dependency.
type Relation int

const (
	// None means the facility is always satisfied on a systemd system.
	None Relation = iota
	// OrderOnly produces an After= edge.
	OrderOnly
	// OrderAndPull produces both After= and Wants= edges.
	OrderAndPull
)

func (r Relation) String() string {
	switch r {
	case None:
		return "none"
	case OrderOnly:
		return "order"
	case OrderAndPull:
		return "pull"
	}
	return fmt.Sprintf("Relation(%d)", int(r))
}

// ParseRelation parses the textual form used in configuration files.
func ParseRelation(s string) (Relation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return None, nil
	case "order", "after":
		return OrderOnly, nil
	case "pull", "wants":
		return OrderAndPull, nil
	}
	return None, fmt.Errorf("unknown facility relation %q", s)
}

// Entry is the translation of one facility.
type Entry struct {
	Unit     string
	Relation Relation
}

// Prefix marks a facility token in LSB headers.
const Prefix = "$"

// IsFacility reports whether token names a facility rather than a service.
func IsFacility(token string) bool {
	return len(token) > len(Prefix) && strings.HasPrefix(token, Prefix)
}

// Table is a facility translation table. The zero value is empty and usable.
type Table struct {
	entries map[string]Entry
}

// Default returns the built-in table.
func Default() *Table {
	t := &Table{}
	t.Set("$local_fs", Entry{Relation: None})
	t.Set("$syslog", Entry{Relation: None})
	// $all cannot be expressed as an ordering edge without a cycle.
	t.Set("$all", Entry{Relation: None})
	t.Set("$network", Entry{Unit: "network-online.target", Relation: OrderAndPull})
	t.Set("$named", Entry{Unit: "nss-lookup.target", Relation: OrderOnly})
	t.Set("$portmap", Entry{Unit: "rpcbind.target", Relation: OrderOnly})
	t.Set("$remote_fs", Entry{Unit: "remote-fs.target", Relation: OrderOnly})
	t.Set("$time", Entry{Unit: "time-sync.target", Relation: OrderOnly})
	return t
}

// Lookup returns the entry registered for token.
func (t *Table) Lookup(token string) (Entry, bool) {
	if t == nil || t.entries == nil {
		return Entry{}, false
	}
	e, ok := t.entries[token]
	return e, ok
}

// Set registers or replaces the entry for name. A missing "$" is added.
func (t *Table) Set(name string, e Entry) {
	if !strings.HasPrefix(name, Prefix) {
		name = Prefix + name
	}
	if t.entries == nil {
		t.entries = make(map[string]Entry)
	}
	t.entries[name] = e
}

// Clone returns an independent copy of t.
func (t *Table) Clone() *Table {
	c := &Table{}
	if t == nil {
		return c
	}
	for k, v := range t.entries {
		c.Set(k, v)
	}
	return c
}

// Names returns the registered facility names, sorted.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.entries))
	for k := range t.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Fallback returns the entry used for a facility missing from the table:
// "$foo" is taken to mean foo.target.
func Fallback(token string) Entry {
	return Entry{
		Unit:     strings.TrimPrefix(token, Prefix) + ".target",
		Relation: OrderOnly,
	}
}
