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
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fallinsky/systemd/facility"
	"github.com/fallinsky/systemd/pkg/fileutil"
	"github.com/fallinsky/systemd/pkg/lock"
	"github.com/fallinsky/systemd/pkg/log"
	"github.com/fallinsky/systemd/pkg/lsb"
	"github.com/hashicorp/errwrap"
	"golang.org/x/sync/errgroup"
)

// Options configures a generator run. Nothing is read from the environment.
type Options struct {
	SysvInitPath string
	SysvRcndPath string
	// UnitPaths are searched for native units that replace a script.
	UnitPaths []string
	OutputDir string
	// Facilities defaults to facility.Default().
	Facilities *facility.Table
	// Jobs bounds parsing and writing concurrency, defaults to GOMAXPROCS.
	Jobs int
}

// Result describes what a run produced.
type Result struct {
	// Descriptors of the units written, sorted by name.
	Descriptors []*Descriptor
	// Skipped lists scripts for which no unit was written.
	Skipped []string
	// Aliases maps every alias link created to its canonical name.
	Aliases map[string]string
}

// Generator runs the conversion.
type Generator struct {
	opts       Options
	readHeader func(path string) (*lsb.Header, error)
}

// New returns a Generator for opts.
func New(opts Options) *Generator {
	if opts.Facilities == nil {
		opts.Facilities = facility.Default()
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	return &Generator{opts: opts, readHeader: lsb.ParseFile}
}

// Run performs one generation pass. Only conditions that stop the whole pass
// are returned as errors; problems with single scripts are logged and the
// script is skipped.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	out, err := filepath.Abs(g.opts.OutputDir)
	if err != nil {
		return nil, errwrap.Wrap(errors.New("unable to resolve output directory"), err)
	}
	if err := fileutil.EnsureWritableDir(out); err != nil {
		return nil, errwrap.Wrap(errors.New("unable to use output directory"), err)
	}
	l, err := lock.TryExclusiveLock(out)
	if err != nil {
		return nil, errwrap.Wrap(errors.New("unable to lock output directory"), err)
	}
	defer l.Close()

	scripts, err := ScanScripts(g.opts.SysvInitPath)
	if err != nil {
		return nil, err
	}

	prio, err := ScanPriorities(g.opts.SysvRcndPath)
	if err != nil {
		plog.Warning(log.FormatE("Ignoring runlevel links", err))
	}

	headers, err := g.parseHeaders(ctx, scripts)
	if err != nil {
		return nil, err
	}

	res := &Result{Aliases: make(map[string]string)}

	var descs []*Descriptor
	for i, s := range scripts {
		if headers[i] == nil {
			res.Skipped = append(res.Skipped, s.Name)
			continue
		}
		if p, ok := g.nativeUnit(s.Name); ok {
			plog.Debugf("Native unit for %s already exists at %s, skipping", s.Name, p)
			res.Skipped = append(res.Skipped, s.Name)
			continue
		}
		descs = append(descs, Build(s, headers[i], prio))
	}

	r := NewResolver(g.opts.Facilities, prio, descs)
	for _, d := range descs {
		r.Resolve(d)
	}

	written, err := g.writeUnits(ctx, out, descs)
	if err != nil {
		return nil, err
	}

	canonical := make(map[string]bool)
	for i, d := range descs {
		if written[i] {
			canonical[d.Name] = true
		}
	}

	for i, d := range descs {
		if !written[i] {
			res.Skipped = append(res.Skipped, d.Name)
			continue
		}

		g.writeAliases(out, d, canonical, res.Aliases)

		uw := NewUnitWriter(out)
		uw.Enable(d)
		if err := uw.Error(); err != nil {
			plog.Warning(log.FormatE("Unable to enable "+d.UnitName(), err))
		}

		res.Descriptors = append(res.Descriptors, d)
	}

	plog.Infof("Generated %d units from %d init scripts in %s", len(res.Descriptors), len(scripts), g.opts.SysvInitPath)
	return res, nil
}

// parseHeaders reads the LSB header of every script concurrently. A nil
// entry marks a script that could not be read.
func (g *Generator) parseHeaders(ctx context.Context, scripts []Script) ([]*lsb.Header, error) {
	headers := make([]*lsb.Header, len(scripts))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Jobs)
	for i, s := range scripts {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := g.readHeader(s.Path)
			if err != nil {
				plog.Debug(log.FormatE("Unable to read init script "+s.Path+", skipping", err))
				return nil
			}
			if !h.Present() {
				plog.Debugf("%s has no LSB header, using runlevel link priorities", s.Path)
			}
			headers[i] = h
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return headers, nil
}

// writeUnits writes the canonical units concurrently and reports which
// descriptors were written.
func (g *Generator) writeUnits(ctx context.Context, out string, descs []*Descriptor) ([]bool, error) {
	written := make([]bool, len(descs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Jobs)
	for i, d := range descs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			uw := NewUnitWriter(out)
			uw.ServiceUnit(d)
			if err := uw.Error(); err != nil {
				plog.Warning(log.FormatE("Skipping "+d.Name, err))
				return nil
			}
			written[i] = true
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return written, nil
}

// writeAliases links the aliases of d. The first script to claim an alias
// keeps it, and an alias never shadows a canonical or native unit.
func (g *Generator) writeAliases(out string, d *Descriptor, canonical map[string]bool, claimed map[string]string) {
	for _, a := range d.Aliases {
		if canonical[a] {
			plog.Warningf("Alias %s of %s collides with an existing service, not creating it", ServiceUnitName(a), d.Name)
			continue
		}
		if owner, ok := claimed[a]; ok {
			plog.Warningf("Alias %s of %s is already provided by %s, not creating it", ServiceUnitName(a), d.Name, owner)
			continue
		}
		if p, ok := g.nativeUnit(a); ok {
			plog.Debugf("Alias %s of %s shadowed by native unit %s, not creating it", ServiceUnitName(a), d.Name, p)
			continue
		}

		uw := NewUnitWriter(out)
		uw.Alias(d.Name, a)
		if err := uw.Error(); err != nil {
			plog.Warning(log.FormatE("Unable to create alias of "+d.Name, err))
			continue
		}
		claimed[a] = d.Name
	}
}

// nativeUnit returns the path of a native unit named after name.
func (g *Generator) nativeUnit(name string) (string, bool) {
	for _, dir := range g.opts.UnitPaths {
		p := ServiceUnitPath(dir, name)
		if _, err := os.Lstat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
