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

package connring

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-ring/ringkit/netx"
)

func TestListenerHandsOffConnections(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	const conns = 20
	var handled int64
	var wg sync.WaitGroup
	wg.Add(conns)

	l, err := Listen(ln, func(c netx.Conn) {
		defer wg.Done()
		defer c.Close()
		r := c.Reader()
		defer r.Release(nil)
		line, err := r.Next(len("ping\n"))
		if err == nil && string(line) == "ping\n" {
			atomic.AddInt64(&handled, 1)
		}
	}, &Option{RingSize: 64, Workers: 4, BurstSize: 4})
	require.NoError(t, err)
	l.Serve()
	defer l.Close()

	for i := 0; i < conns; i++ {
		c, err := net.Dial("tcp", ln.Addr().String())
		require.NoError(t, err)
		_, err = c.Write([]byte("ping\n"))
		require.NoError(t, err)
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("only handled %d/%d connections", atomic.LoadInt64(&handled), conns)
	}
	require.EqualValues(t, conns, atomic.LoadInt64(&handled))
}
