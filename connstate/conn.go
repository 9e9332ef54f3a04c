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
	"errors"
	"net"
	"sync/atomic"
	"syscall"
)

type ConnState uint32

const (
	// StateOK means the connection is normal.
	StateOK ConnState = iota
	// StateRemoteClosed means the remote side has closed the connection.
	StateRemoteClosed
	// StateClosed means the connection has been closed by local side.
	StateClosed
)

// ConnStater is the interface to get the ConnState of a connection.
// Must call Close to release it if you're going to close the connection.
type ConnStater interface {
	Close() error
	State() ConnState
}

type connStater struct {
	fd    int
	state uint32
}

func (c *connStater) markRemoteClosed() {
	atomic.CompareAndSwapUint32(&c.state, uint32(StateOK), uint32(StateRemoteClosed))
}

func (c *connStater) Close() error {
	if atomic.SwapUint32(&c.state, uint32(StateClosed)) == uint32(StateClosed) {
		return nil
	}
	reg.remove(c.fd)
	return poll.del(c.fd)
}

func (c *connStater) State() ConnState {
	return ConnState(atomic.LoadUint32(&c.state))
}

// ListenConnState returns a ConnStater for the given connection. It's
// used by netx.Wrap so a ring worker that dequeues a connection can check
// State() and skip one that already hung up, rather than discovering it
// only after spending a reservation on a doomed read. Conn must be a
// syscall.Conn.
func ListenConnState(conn net.Conn) (ConnStater, error) {
	pollInitOnce.Do(createPoller)
	sysConn, ok := conn.(syscall.Conn)
	if !ok {
		return nil, errors.New("connstate: conn is not a syscall.Conn")
	}
	rawConn, err := sysConn.SyscallConn()
	if err != nil {
		return nil, err
	}

	cs := &connStater{}
	var addErr error
	registered := false
	ctrlErr := rawConn.Control(func(fd uintptr) {
		cs.fd = int(fd)
		reg.put(cs)
		registered = true
		addErr = poll.add(cs.fd)
	})
	if ctrlErr != nil || addErr != nil {
		if registered {
			reg.remove(cs.fd)
			if addErr == nil {
				_ = poll.del(cs.fd)
			}
		}
		if ctrlErr != nil {
			return nil, ctrlErr
		}
		return nil, addErr
	}
	return cs, nil
}
