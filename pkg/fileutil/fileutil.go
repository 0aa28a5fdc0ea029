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

package fileutil

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/errwrap"
)

// ErrNotSymlink is returned by Symlink when the link path is taken by
// something that is not a symbolic link.
var ErrNotSymlink = errors.New("path exists and is not a symlink")

// backupSuffixes are left behind by package managers and editors.
var backupSuffixes = []string{
	"~",
	".bak",
	".old",
	".orig",
	".new",
	".rpmnew",
	".rpmsave",
	".rpmorig",
	".dpkg-old",
	".dpkg-new",
	".dpkg-tmp",
	".dpkg-dist",
	".dpkg-bak",
	".dpkg-backup",
	".dpkg-remove",
	".ucf-new",
	".ucf-old",
	".ucf-dist",
	".swp",
}

// IsHiddenOrBackup reports whether name is a dot file or a backup copy that
// must not be treated as a real entry.
func IsHiddenOrBackup(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return true
	}
	for _, s := range backupSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// IsExecutable reports whether fi describes a regular file with any execute
// bit set.
func IsExecutable(fi os.FileInfo) bool {
	return fi.Mode().IsRegular() && fi.Mode().Perm()&0111 != 0
}

// DirExists returns false without error when path does not exist, and an
// error when it exists but is not a directory.
func DirExists(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if !fi.IsDir() {
		return false, fmt.Errorf("expected %q to be a directory", path)
	}
	return true, nil
}

// EnsureWritableDir creates dir if needed and checks that files can be
// created in it.
func EnsureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-")
	if err != nil {
		return errwrap.Wrap(fmt.Errorf("directory %q is not writable", dir), err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// Symlink makes link point at target. An existing symlink with the same
// target is left alone and one with a different target is replaced; any
// other file at link is never touched and ErrNotSymlink is returned.
func Symlink(target, link string) error {
	fi, err := os.Lstat(link)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return err
	case fi.Mode()&os.ModeSymlink == 0:
		return errwrap.Wrap(fmt.Errorf("cannot create symlink %q", link), ErrNotSymlink)
	default:
		old, err := os.Readlink(link)
		if err != nil {
			return err
		}
		if old == target {
			return nil
		}
		if err := os.Remove(link); err != nil {
			return err
		}
	}
	return os.Symlink(target, link)
}
