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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/fallinsky/systemd/pkg/fileutil"
	"github.com/hashicorp/errwrap"
)

// MaxRunlevel is the highest SysV runlevel looked at.
const MaxRunlevel = 6

// LinkKind tells start links from stop links.
type LinkKind int

const (
	StartLink LinkKind = iota
	StopLink
)

func (k LinkKind) String() string {
	if k == StopLink {
		return "K"
	}
	return "S"
}

// Link is one S or K symlink found in an rcN.d directory.
type Link struct {
	Kind     LinkKind
	Runlevel int
	Ordinal  int
	// Script is the service name of the link target.
	Script string
	Path   string
}

// Priorities holds the install-time links of every runlevel, ordered by
// ordinal. A nil *Priorities behaves as an empty one.
type Priorities struct {
	start map[int][]Link
	stop  map[int][]Link
}

func newPriorities() *Priorities {
	return &Priorities{
		start: make(map[int][]Link),
		stop:  make(map[int][]Link),
	}
}

// RcndDirName returns the link directory name of runlevel.
func RcndDirName(runlevel int) string {
	return fmt.Sprintf("rc%d.d", runlevel)
}

// ScanPriorities reads root/rc0.d to root/rc6.d. A missing root or runlevel
// directory is not an error. Unreadable runlevel directories are skipped with
// a warning.
func ScanPriorities(root string) (*Priorities, error) {
	p := newPriorities()

	ok, err := fileutil.DirExists(root)
	if err != nil {
		return p, errwrap.Wrap(errors.New("unable to use runlevel directory root"), err)
	}
	if !ok {
		plog.Debugf("Runlevel directory root %s does not exist", root)
		return p, nil
	}

	for rl := 0; rl <= MaxRunlevel; rl++ {
		dir := filepath.Join(root, RcndDirName(rl))
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				plog.Warningf("Unable to read %s, ignoring: %v", dir, err)
			}
			continue
		}

		for _, e := range entries {
			if e.Type()&fs.ModeSymlink == 0 {
				continue
			}
			kind, ordinal, rest, ok := parseLinkName(e.Name())
			if !ok {
				plog.Debugf("Ignoring %s/%s", dir, e.Name())
				continue
			}

			path := filepath.Join(dir, e.Name())
			l := Link{
				Kind:     kind,
				Runlevel: rl,
				Ordinal:  ordinal,
				Script:   linkScript(path, rest),
				Path:     path,
			}
			if kind == StartLink {
				p.start[rl] = append(p.start[rl], l)
			} else {
				p.stop[rl] = append(p.stop[rl], l)
			}
		}

		p.start[rl] = sortLinks(p.start[rl])
		p.stop[rl] = sortLinks(p.stop[rl])
	}

	return p, nil
}

// parseLinkName splits "S20foo" into its kind, ordinal and name.
func parseLinkName(name string) (LinkKind, int, string, bool) {
	if len(name) < 4 {
		return 0, 0, "", false
	}

	var kind LinkKind
	switch name[0] {
	case 'S':
		kind = StartLink
	case 'K':
		kind = StopLink
	default:
		return 0, 0, "", false
	}

	a, b := name[1], name[2]
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, 0, "", false
	}

	return kind, int(a-'0')*10 + int(b-'0'), name[3:], true
}

// linkScript resolves the script a link points at, falling back to the
// name encoded in the link itself.
func linkScript(path, fallback string) string {
	target, err := os.Readlink(path)
	if err != nil {
		plog.Debugf("Unable to read link %s, using %q: %v", path, fallback, err)
		return ScriptName(fallback)
	}
	return ScriptName(filepath.Base(target))
}

// sortLinks orders links by ordinal then script and keeps only the first
// link of every script.
func sortLinks(links []Link) []Link {
	if len(links) == 0 {
		return nil
	}
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].Ordinal != links[j].Ordinal {
			return links[i].Ordinal < links[j].Ordinal
		}
		return links[i].Script < links[j].Script
	})

	seen := make(map[string]bool)
	out := links[:0]
	for _, l := range links {
		if seen[l.Script] {
			continue
		}
		seen[l.Script] = true
		out = append(out, l)
	}
	return out
}

// Start returns the start links of runlevel, earliest first.
func (p *Priorities) Start(runlevel int) []Link {
	if p == nil {
		return nil
	}
	return p.start[runlevel]
}

// Stop returns the stop links of runlevel, earliest first.
func (p *Priorities) Stop(runlevel int) []Link {
	if p == nil {
		return nil
	}
	return p.stop[runlevel]
}

// StartOrdinal returns the start ordinal of script in runlevel.
func (p *Priorities) StartOrdinal(script string, runlevel int) (int, bool) {
	for _, l := range p.Start(runlevel) {
		if l.Script == script {
			return l.Ordinal, true
		}
	}
	return 0, false
}

// StartRunlevels returns, in ascending order, the runlevels in which script
// has a start link.
func (p *Priorities) StartRunlevels(script string) []int {
	var rls []int
	for rl := 0; rl <= MaxRunlevel; rl++ {
		if _, ok := p.StartOrdinal(script, rl); ok {
			rls = append(rls, rl)
		}
	}
	return rls
}
