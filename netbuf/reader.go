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

// Package netbuf gives a netx.Conn a user-space zero-copy read/write path,
// so a worker pulled off a ring's consumer side can move a connection's
// bytes without an extra copy on top of the one the kernel already paid
// for filling the socket buffer.
package netbuf

import (
	"errors"
	"io"

	"github.com/bytedance/gopkg/lang/mcache"
)

const (
	minBufSize     = 8 * 1024
	directReadSize = 4 * 1024
	skipScratch    = 32 * 1024
)

var errNegativeCount = errors.New("netbuf: negative count")

// FrameReader hands back slices that alias its internal buffer instead of
// copying into one the caller supplies.
type FrameReader interface {
	// Next returns the next n bytes and advances the read position. The
	// slice is only valid until the next call to Next, Skip, or Release.
	Next(n int) ([]byte, error)

	// Peek behaves like Next but leaves the read position unchanged.
	Peek(n int) ([]byte, error)

	// Skip discards the next n bytes without returning them.
	Skip(n int) error

	// ReadFull copies exactly len(p) bytes into p, pulling from the
	// underlying source as needed.
	ReadFull(p []byte) (int, error)

	// Buffered reports how many bytes are already in memory.
	Buffered() int

	// Release returns the internal buffer to the pool. Every slice
	// Next/Peek has returned since the last Release becomes invalid.
	Release(err error) error
}

var _ FrameReader = (*Reader)(nil)

// Reader is the default FrameReader. Its backing buffer is pooled through
// mcache and grows geometrically as larger frames demand it.
type Reader struct {
	src io.Reader
	buf []byte
	pos int

	pinned bool
	toFree [][]byte

	hint int
	err  error
}

// NewReader returns a Reader pulling bytes from src.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: src}
}

// Buffered reports the number of unread bytes currently in memory.
func (r *Reader) Buffered() int {
	return len(r.buf) - r.pos
}

func (r *Reader) grow(need int) error {
	if r.err != nil {
		return r.err
	}
	size := r.hint
	if size < minBufSize {
		size = minBufSize
	}
	for size < need {
		size *= 2
	}
	nb := mcache.Malloc(size)
	live := copy(nb, r.buf[r.pos:])
	nb = nb[:live]
	if cap(r.buf) > 0 {
		if r.pinned {
			r.toFree = append(r.toFree, r.buf)
		} else {
			mcache.Free(r.buf)
		}
	}
	r.buf, r.pos, r.pinned = nb, 0, false
	r.hint = size

	for r.Buffered() < need {
		n, err := r.src.Read(r.buf[len(r.buf):cap(r.buf)])
		r.buf = r.buf[:len(r.buf)+n]
		if n == 0 {
			if err == nil {
				err = io.ErrNoProgress
			} else if err == io.EOF && r.Buffered() < need {
				err = io.ErrUnexpectedEOF
			}
			r.err = err
			return err
		}
	}
	return nil
}

func (r *Reader) Next(n int) ([]byte, error) {
	if n < 0 {
		return nil, errNegativeCount
	}
	if n > r.Buffered() {
		if err := r.grow(n); err != nil {
			return nil, err
		}
	}
	p := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	if n > 0 {
		r.pinned = true
	}
	return p, nil
}

func (r *Reader) Peek(n int) ([]byte, error) {
	if n < 0 {
		return nil, errNegativeCount
	}
	if n > r.Buffered() {
		if err := r.grow(n); err != nil {
			return nil, err
		}
	}
	p := r.buf[r.pos : r.pos+n : r.pos+n]
	if n > 0 {
		r.pinned = true
	}
	return p, nil
}

func (r *Reader) Skip(n int) error {
	if n < 0 {
		return errNegativeCount
	}
	if have := r.Buffered(); n > have {
		r.pos += have
		n -= have
		if !r.pinned && cap(r.buf) > 0 {
			mcache.Free(r.buf)
			r.buf, r.pos = nil, 0
		}
		return skipDirect(r.src, n)
	}
	r.pos += n
	return nil
}

// skipDirect discards exactly n bytes straight from src, bypassing the
// Reader's own buffer entirely for skips too large to be worth pooling.
func skipDirect(src io.Reader, n int) error {
	scratch := mcache.Malloc(skipScratch)
	defer mcache.Free(scratch)
	for n > 0 {
		want := len(scratch)
		if want > n {
			want = n
		}
		read, err := src.Read(scratch[:want])
		n -= read
		if err != nil {
			if err == io.EOF && n > 0 {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}

func (r *Reader) ReadFull(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := copy(p, r.buf[r.pos:])
	r.pos += n
	if n == len(p) {
		return n, nil
	}
	if remain := len(p) - n; remain >= directReadSize {
		m, err := io.ReadFull(r.src, p[n:])
		return n + m, err
	}
	if err := r.grow(len(p) - n); err != nil {
		return n, err
	}
	m := copy(p[n:], r.buf[r.pos:])
	r.pos += m
	return n + m, nil
}

func (r *Reader) Release(e error) error {
	for i, b := range r.toFree {
		mcache.Free(b)
		r.toFree[i] = nil
	}
	r.toFree = r.toFree[:0]
	if r.Buffered() == 0 && cap(r.buf) > 0 {
		mcache.Free(r.buf)
		r.buf, r.pos = nil, 0
	}
	r.pinned = false
	return nil
}
