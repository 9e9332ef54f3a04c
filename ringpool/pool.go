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

// Package ringpool drains a ring.Ring with a bounded set of worker
// goroutines instead of a single consumer loop. It is ambient convenience
// layered outside the ring core: Pool.Run busy-polls DequeueBurst the same
// way any consumer would, it just also owns the goroutines that do so and
// fans batches out to a callback.
package ringpool

import (
	"log"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-ring/ringkit/ring"
)

// Handler processes one drained batch. The slice is reused by the worker
// that produced it; Handler must not retain it past the call.
type Handler[T any] func(batch []T)

// Option configures a Pool.
type Option struct {
	// Workers is the number of poller goroutines draining the ring
	// concurrently. Defaults to runtime.GOMAXPROCS(0).
	Workers int

	// BurstSize bounds how many entries a single DequeueBurst call may
	// drain at a time. Defaults to 64.
	BurstSize int

	// IdleBackoff is slept between poll attempts that found nothing to
	// drain. Zero means yield the processor via runtime.Gosched instead
	// of sleeping, keeping latency lowest at the cost of burning CPU.
	IdleBackoff time.Duration
}

// DefaultOption returns Pool's default configuration.
func DefaultOption() *Option {
	return &Option{
		Workers:   runtime.GOMAXPROCS(0),
		BurstSize: 64,
	}
}

// Pool drains a *ring.Ring[T] with a fixed set of worker goroutines, each
// calling DequeueBurst in a loop and handing the resulting batch to a
// Handler.
type Pool[T any] struct {
	r       *ring.Ring[T]
	handler Handler[T]

	workers     int
	burstSize   int
	idleBackoff time.Duration

	panicHandler func(r interface{})

	running int32 // atomic worker count, for CurrentWorkers
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New builds a Pool that drains r into handler once Run is called.
func New[T any](r *ring.Ring[T], handler Handler[T], o *Option) *Pool[T] {
	if o == nil {
		o = DefaultOption()
	}
	workers := o.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	burstSize := o.BurstSize
	if burstSize <= 0 {
		burstSize = 64
	}
	return &Pool[T]{
		r:           r,
		handler:     handler,
		workers:     workers,
		burstSize:   burstSize,
		idleBackoff: o.IdleBackoff,
		stop:        make(chan struct{}),
	}
}

// SetPanicHandler sets a func invoked, with the value recover() returned,
// when handler panics. By default the panic and its stack are logged
// through the standard log package, matching gopool's default behavior.
func (p *Pool[T]) SetPanicHandler(f func(r interface{})) {
	p.panicHandler = f
}

// CurrentWorkers returns the number of poller goroutines currently running.
func (p *Pool[T]) CurrentWorkers() int {
	return int(atomic.LoadInt32(&p.running))
}

// Run starts the pool's worker goroutines. It returns immediately; call
// Stop to shut them down. Run must not be called more than once per Pool.
func (p *Pool[T]) Run() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker()
	}
}

// Stop signals every worker to exit after its current poll and blocks
// until they have all returned. Stop does not drain whatever remains in
// the ring; quiescence of producers is the caller's responsibility, same
// as with any other ring consumer.
func (p *Pool[T]) Stop() {
	close(p.stop)
	p.wg.Wait()
}

func (p *Pool[T]) runWorker() {
	atomic.AddInt32(&p.running, 1)
	defer atomic.AddInt32(&p.running, -1)
	defer p.wg.Done()

	buf := make([]T, p.burstSize)
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		n := p.r.DequeueBurst(buf)
		if n == 0 {
			if p.idleBackoff > 0 {
				time.Sleep(p.idleBackoff)
			} else {
				runtime.Gosched()
			}
			continue
		}
		p.dispatch(buf[:n])
	}
}

func (p *Pool[T]) dispatch(batch []T) {
	defer func() {
		if r := recover(); r != nil {
			if p.panicHandler != nil {
				p.panicHandler(r)
			} else {
				log.Printf("ringpool: panic in handler: %v: %s", r, debug.Stack())
			}
		}
	}()
	p.handler(batch)
}
