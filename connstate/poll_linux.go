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

package connstate

import (
	"syscall"
	"time"
)

const connEvents = syscall.EPOLLHUP | syscall.EPOLLRDHUP | syscall.EPOLLERR

type epoller struct {
	epfd int
}

func openPoller() (poller, error) {
	epfd, err := syscall.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &epoller{epfd: epfd}, nil
}

func (p *epoller) add(fd int) error {
	ev := syscall.EpollEvent{Events: connEvents, Fd: int32(fd)}
	return syscall.EpollCtl(p.epfd, syscall.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epoller) del(fd int) error {
	return syscall.EpollCtl(p.epfd, syscall.EPOLL_CTL_DEL, fd, &syscall.EpollEvent{})
}

func (p *epoller) close() error {
	return syscall.Close(p.epfd)
}

// wait blocks in EpollWait until a watched fd reports a hangup, error, or
// half-close, then marks the matching entry in reg. fd is carried directly
// in the event's Fd field instead of an unsafe.Pointer tucked into it, since
// the registry can already look a connStater up by fd.
func (p *epoller) wait(reg *registry) {
	events := make([]syscall.EpollEvent, 128)
	for {
		n, err := syscall.EpollWait(p.epfd, events, -1)
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
			if ev.Events&connEvents != 0 {
				reg.markRemoteClosed(int(ev.Fd))
			}
		}
	}
}
