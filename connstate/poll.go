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
	"fmt"
	"sync"
)

// registry maps a watched file descriptor to the connStater tracking it.
// A worker pool draining a ring dequeues a bounded burst of connections
// at a time, never the pool-wide connection counts the teacher's fdOperator
// free-list was built to amortize, so a single mutex-guarded map replaces
// that free-list here.
type registry struct {
	mu sync.Mutex
	m  map[int]*connStater
}

func newRegistry() *registry {
	return &registry{m: make(map[int]*connStater)}
}

func (r *registry) put(cs *connStater) {
	r.mu.Lock()
	r.m[cs.fd] = cs
	r.mu.Unlock()
}

func (r *registry) remove(fd int) {
	r.mu.Lock()
	delete(r.m, fd)
	r.mu.Unlock()
}

func (r *registry) markRemoteClosed(fd int) {
	r.mu.Lock()
	cs := r.m[fd]
	r.mu.Unlock()
	if cs != nil {
		cs.markRemoteClosed()
	}
}

// poller watches a set of file descriptors and reports a remote close by
// calling registry.markRemoteClosed, so a ring consumer can check
// ConnStater.State() instead of issuing a read solely to probe liveness.
type poller interface {
	add(fd int) error
	del(fd int) error
	wait(reg *registry)
	close() error
}

var (
	pollInitOnce sync.Once
	poll         poller
	reg          = newRegistry()
)

func createPoller() {
	p, err := openPoller()
	if err != nil {
		panic(fmt.Sprintf("connstate: openPoller failed: %v", err))
	}
	poll = p
	go poll.wait(reg)
}
