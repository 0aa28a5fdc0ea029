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

// Package lock takes advisory flock(2) locks on directories.
package lock

import (
	"errors"
	"fmt"

	"github.com/hashicorp/errwrap"
	"golang.org/x/sys/unix"
)

// ErrLocked is returned when a non-blocking lock is held by someone else.
var ErrLocked = errors.New("directory already locked")

// DirLock is a held lock on a directory.
type DirLock struct {
	fd int
}

// TryExclusiveLock takes an exclusive lock on dir without blocking.
func TryExclusiveLock(dir string) (*DirLock, error) {
	return acquire(dir, unix.LOCK_EX|unix.LOCK_NB)
}

func acquire(dir string, how int) (*DirLock, error) {
	fd, err := unix.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errwrap.Wrap(fmt.Errorf("unable to open %q for locking", dir), err)
	}
	for {
		err = unix.Flock(fd, how)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		unix.Close(fd)
		if err == unix.EWOULDBLOCK {
			return nil, ErrLocked
		}
		return nil, errwrap.Wrap(fmt.Errorf("unable to lock %q", dir), err)
	}
	return &DirLock{fd: fd}, nil
}

// Close releases the lock. Closing twice is a no-op.
func (l *DirLock) Close() error {
	if l.fd < 0 {
		return nil
	}
	fd := l.fd
	l.fd = -1
	return unix.Close(fd)
}
