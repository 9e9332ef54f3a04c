/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package connring hands accepted connections off to a worker pool through
// a ring.Ring, the literal DPDK use case translated to Go: network I/O is
// the producer, compute workers are the consumer, the ring is the
// lock-free hand-off between them.
package connring

import (
	"log"
	"net"
	"sync"

	"github.com/go-ring/ringkit/netx"
	"github.com/go-ring/ringkit/ring"
	"github.com/go-ring/ringkit/ringpool"
)

// Handler processes one accepted, wrapped connection. It owns closing the
// connection when done with it.
type Handler func(conn netx.Conn)

// Option configures a Listener.
type Option struct {
	// RingSize is the ring's storage size; it must be a power of two, and the
	// ring holds at most RingSize-1 pending connections. Defaults to 1024.
	RingSize uint32

	// Workers is the number of goroutines draining accepted connections.
	// Defaults to runtime.GOMAXPROCS(0), via ringpool.DefaultOption.
	Workers int

	// BurstSize bounds how many connections a worker dequeues per poll.
	// Defaults to 64, via ringpool.DefaultOption.
	BurstSize int
}

func (o *Option) ringSize() uint32 {
	if o == nil || o.RingSize == 0 {
		return 1024
	}
	return o.RingSize
}

func (o *Option) poolOption() *ringpool.Option {
	po := ringpool.DefaultOption()
	if o != nil {
		if o.Workers > 0 {
			po.Workers = o.Workers
		}
		if o.BurstSize > 0 {
			po.BurstSize = o.BurstSize
		}
	}
	return po
}

// Listener accepts connections on an underlying net.Listener, wraps each
// via netx.Wrap, and hands the wrapped connection to a ring.Ring[netx.Conn]
// for a bounded worker pool to consume. The accept loop is the ring's sole
// producer (SPEnq); workers share the consumer side.
type Listener struct {
	ln   net.Listener
	r    *ring.Ring[netx.Conn]
	pool *ringpool.Pool[netx.Conn]

	stop chan struct{}
	wg   sync.WaitGroup
}

// Listen builds a Listener over ln. Connections are accepted, wrapped, and
// enqueued by a single internal goroutine; handler runs on pool workers.
func Listen(ln net.Listener, handler Handler, o *Option) (*Listener, error) {
	r, err := ring.New[netx.Conn](o.ringSize(), ring.SPEnq)
	if err != nil {
		return nil, err
	}
	l := &Listener{
		ln:   ln,
		r:    r,
		stop: make(chan struct{}),
	}
	l.pool = ringpool.New[netx.Conn](r, func(batch []netx.Conn) {
		for _, c := range batch {
			handler(c)
		}
	}, o.poolOption())
	return l, nil
}

// Serve starts the worker pool and the accept loop. It returns immediately.
func (l *Listener) Serve() {
	l.pool.Run()
	l.wg.Add(1)
	go l.acceptLoop()
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		cn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.stop:
				return
			default:
			}
			log.Printf("connring: accept error: %v", err)
			continue
		}

		wrapped, err := netx.Wrap(cn)
		if err != nil {
			log.Printf("connring: wrap failed: %v", err)
			_ = cn.Close()
			continue
		}

		if !l.r.Enqueue(wrapped) {
			// Ring full: drop rather than block, matching the ring's
			// no-blocking, no-backpressure contract.
			_ = wrapped.Close()
		}
	}
}

// Close stops accepting, closes the underlying listener, and stops the
// worker pool once the accept loop has exited. Connections already queued
// or in flight are not drained; Close is not quiescence-safe by itself if
// other producers might still be racing it, matching the ring's own
// contract that destruction is the caller's responsibility.
func (l *Listener) Close() error {
	close(l.stop)
	err := l.ln.Close()
	l.wg.Wait()
	l.pool.Stop()
	return err
}
