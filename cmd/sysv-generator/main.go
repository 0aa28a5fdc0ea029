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

// Command sysv-generator translates legacy SysV init scripts into native
// service units. It is invoked as a systemd generator with three output
// directories and writes into the last one.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fallinsky/systemd/common"
	"github.com/fallinsky/systemd/config"
	"github.com/fallinsky/systemd/pkg/log"
	"github.com/fallinsky/systemd/sysv"
	"github.com/spf13/cobra"
)

const (
	cliName        = "sysv-generator"
	cliDescription = "Generate service units for SysV init scripts"

	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

var plog = log.NewPackageLogger("sysv-generator")

type globalFlags struct {
	SysvInitPath    string
	SysvRcndPath    string
	UnitPaths       []string
	LogLevel        string
	LogTarget       string
	SystemConfigDir string
	LocalConfigDir  string
	Jobs            int
}

// cli is the state of one invocation.
type cli struct {
	flags    globalFlags
	stderr   io.Writer
	lookup   func(string) (string, bool)
	exitCode int
}

func newCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           cliName + " [NORMAL_DIR EARLY_DIR] LATE_DIR",
		Short:         cliDescription,
		Args:          outputDirArgs,
		SilenceErrors: true,
		Run:           c.runWrapper(c.runGenerate),
	}

	fs := cmd.Flags()
	fs.StringVar(&c.flags.SysvInitPath, "sysvinit-path", "", "directory holding the init scripts (default "+common.DefaultSysvInitPath+")")
	fs.StringVar(&c.flags.SysvRcndPath, "sysvrcnd-path", "", "directory holding the rcN.d link directories (default "+common.DefaultSysvRcndPath+")")
	fs.StringArrayVar(&c.flags.UnitPaths, "unit-path", nil, "directory searched for native units, may be repeated")
	fs.StringVar(&c.flags.LogLevel, "log-level", "", "log level, a syslog level name or number (default info)")
	fs.StringVar(&c.flags.LogTarget, "log-target", "", "log target: console, journal or auto (default console)")
	fs.StringVar(&c.flags.SystemConfigDir, "system-config", common.DefaultSystemConfigDir, "system configuration directory")
	fs.StringVar(&c.flags.LocalConfigDir, "local-config", common.DefaultLocalConfigDir, "local configuration directory")
	fs.IntVar(&c.flags.Jobs, "jobs", 0, "number of scripts processed in parallel, 0 means one per CPU")

	cmd.SetOut(c.stderr)
	cmd.SetErr(c.stderr)
	return cmd
}

func outputDirArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 1 && len(args) != 3 {
		return fmt.Errorf("expected one or three output directories, got %d", len(args))
	}
	return nil
}

// runWrapper stores the exit code of cf for run to return.
func (c *cli) runWrapper(cf func(cmd *cobra.Command, args []string) (exit int)) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		c.exitCode = cf(cmd, args)
	}
}

func (c *cli) runGenerate(cmd *cobra.Command, args []string) (exit int) {
	env := common.ReadEnvironment(c.lookup)

	level, err := log.ParseLevel(firstNonEmpty(c.flags.LogLevel, env.LogLevel, "info"))
	if err != nil {
		stderr(c.stderr, "%v", err)
		return exitUsage
	}
	if err := log.Setup(c.stderr, level, firstNonEmpty(c.flags.LogTarget, env.LogTarget, log.TargetConsole)); err != nil {
		stderr(c.stderr, "%v", err)
		return exitUsage
	}
	if c.flags.Jobs < 0 {
		stderr(c.stderr, "--jobs must not be negative")
		return exitUsage
	}

	cfg, err := config.GetConfigFrom(c.flags.SystemConfigDir, c.flags.LocalConfigDir)
	if err != nil {
		plog.Error(log.FormatE("Failed to read configuration", err))
		return exitFatal
	}

	opts := sysv.Options{
		SysvInitPath: firstNonEmpty(c.flags.SysvInitPath, env.SysvInitPath, cfg.Paths.SysvInit, common.DefaultSysvInitPath),
		SysvRcndPath: firstNonEmpty(c.flags.SysvRcndPath, env.SysvRcndPath, cfg.Paths.SysvRcnd, common.DefaultSysvRcndPath),
		UnitPaths:    firstNonEmptyList(c.flags.UnitPaths, env.UnitPaths, cfg.Paths.UnitPaths, common.DefaultUnitPaths),
		OutputDir:    args[len(args)-1],
		Facilities:   cfg.FacilityTable(),
		Jobs:         c.flags.Jobs,
	}
	plog.Debugf("Init scripts in %s, links in %s, native units in %s", opts.SysvInitPath, opts.SysvRcndPath, strings.Join(opts.UnitPaths, ":"))

	if _, err := sysv.New(opts).Run(cmd.Context()); err != nil {
		plog.Error(log.FormatE("Failed to generate units", err))
		return exitFatal
	}
	return exitOK
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptyList(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

func stderr(w io.Writer, format string, a ...interface{}) {
	out := fmt.Sprintf(format, a...)
	fmt.Fprintln(w, strings.TrimSuffix(out, "\n"))
}

// run executes one invocation with args, excluding the program name.
func run(args []string, errOut io.Writer, lookup func(string) (string, bool)) int {
	c := &cli{stderr: errOut, lookup: lookup}
	cmd := newCommand(c)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		stderr(errOut, "%v", err)
		stderr(errOut, "%s", cmd.UsageString())
		return exitUsage
	}
	return c.exitCode
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr, os.LookupEnv))
}
