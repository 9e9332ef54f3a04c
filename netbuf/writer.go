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

package netbuf

import (
	"errors"
	"io"
	"net"

	"github.com/bytedance/gopkg/lang/mcache"
)

const (
	minChunkSize    = 8 * 1024
	directWriteSize = 4 * 1024
)

var errNegativeReserve = errors.New("netbuf: negative count")

// FrameWriter batches small writes into pooled chunks and queues large
// ones untouched, so Flush can collapse everything into a single writev
// when the destination supports it.
type FrameWriter interface {
	// Reserve returns n bytes of scratch space to fill in place.
	Reserve(n int) ([]byte, error)

	// Write appends p to the pending output. Buffers at or above the
	// direct-write threshold are queued without copying.
	Write(p []byte) (int, error)

	// Pending reports how many bytes are queued since the last Flush.
	Pending() int

	// Flush writes every pending byte to the underlying writer.
	Flush() error
}

var _ FrameWriter = (*Writer)(nil)

// Writer is the default FrameWriter.
type Writer struct {
	dst    io.Writer
	chunk  []byte
	queued net.Buffers
	toFree [][]byte

	pending int
	err     error
}

// NewWriter returns a Writer that flushes to dst.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{dst: dst}
}

func (w *Writer) reserveChunk(n int) {
	if len(w.chunk)+n <= cap(w.chunk) {
		return
	}
	if len(w.chunk) > 0 {
		w.queued = append(w.queued, w.chunk)
	}
	size := minChunkSize
	for size < n {
		size *= 2
	}
	w.chunk = mcache.Malloc(0, size)
	w.toFree = append(w.toFree, w.chunk)
}

func (w *Writer) Reserve(n int) ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if n < 0 {
		return nil, errNegativeReserve
	}
	w.reserveChunk(n)
	buf := w.chunk[len(w.chunk) : len(w.chunk)+n]
	w.chunk = w.chunk[:len(w.chunk)+n]
	w.pending += n
	return buf, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if len(p) >= directWriteSize {
		if len(w.chunk) > 0 {
			w.queued = append(w.queued, w.chunk)
			w.chunk = nil
		}
		w.queued = append(w.queued, p)
		w.pending += len(p)
		return len(p), nil
	}
	w.reserveChunk(len(p))
	n := copy(w.chunk[len(w.chunk):cap(w.chunk)], p)
	w.chunk = w.chunk[:len(w.chunk)+n]
	w.pending += len(p)
	return len(p), nil
}

func (w *Writer) Pending() int {
	return w.pending
}

func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if len(w.chunk) > 0 {
		w.queued = append(w.queued, w.chunk)
		w.chunk = nil
	}
	if len(w.queued) == 0 {
		return nil
	}
	_, err := w.queued.WriteTo(w.dst)
	if err != nil {
		w.err = err
	}
	for i := range w.queued {
		w.queued[i] = nil
	}
	w.queued = w.queued[:0]
	for i, b := range w.toFree {
		mcache.Free(b)
		w.toFree[i] = nil
	}
	w.toFree = w.toFree[:0]
	w.pending = 0
	return err
}
