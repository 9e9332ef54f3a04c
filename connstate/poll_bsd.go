// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build darwin || netbsd || freebsd || openbsd || dragonfly
// +build darwin netbsd freebsd openbsd dragonfly

package connstate

import (
	"syscall"
	"time"
)

type kqueue struct {
	fd int
}

func openPoller() (poller, error) {
	fd, err := syscall.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueue{fd: fd}, nil
}

func (p *kqueue) add(fd int) error {
	ev := syscall.Kevent_t{
		Ident:  uint64(fd),
		Filter: syscall.EVFILT_READ,
		Flags:  syscall.EV_ADD | syscall.EV_CLEAR,
	}
	_, err := syscall.Kevent(p.fd, []syscall.Kevent_t{ev}, nil, nil)
	return err
}

func (p *kqueue) del(fd int) error {
	ev := syscall.Kevent_t{
		Ident:  uint64(fd),
		Filter: syscall.EVFILT_READ,
		Flags:  syscall.EV_DELETE,
	}
	_, err := syscall.Kevent(p.fd, []syscall.Kevent_t{ev}, nil, nil)
	return err
}

func (p *kqueue) close() error {
	return syscall.Close(p.fd)
}

// wait blocks in Kevent until a watched fd reports EOF, then marks the
// matching entry in reg. Like the Linux poller, the fd is looked up
// directly through the registry instead of round-tripping an
// unsafe.Pointer through the event's opaque user-data field.
func (p *kqueue) wait(reg *registry) {
	events := make([]syscall.Kevent_t, 128)
	for {
		n, err := syscall.Kevent(p.fd, nil, events, nil)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			if err == syscall.EBADF {
				return
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		for i := 0; i < n; i++ {
			ev := &events[i]
			if ev.Flags&syscall.EV_EOF != 0 {
				reg.markRemoteClosed(int(ev.Ident))
			}
		}
	}
}
