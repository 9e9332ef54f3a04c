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
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderNextAndPeek(t *testing.T) {
	r := NewReader(strings.NewReader("hello world"))

	peeked, err := r.Peek(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(peeked))
	assert.Equal(t, 11, r.Buffered())

	next, err := r.Next(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(next))
	assert.Equal(t, 6, r.Buffered())

	rest, err := r.Next(6)
	require.NoError(t, err)
	assert.Equal(t, " world", string(rest))

	_, err = r.Next(1)
	assert.Error(t, err)
}

func TestReaderSkip(t *testing.T) {
	r := NewReader(strings.NewReader("0123456789"))
	// nothing is buffered yet, forcing a direct skip on the source.
	require.NoError(t, r.Skip(3))
	got, err := r.Next(3)
	require.NoError(t, err)
	assert.Equal(t, "345", string(got))

	// skip within the buffered content "6789".
	require.NoError(t, r.Skip(2))
	got, err = r.Next(2)
	require.NoError(t, err)
	assert.Equal(t, "89", string(got))
}

func TestReaderReadFullLargePayload(t *testing.T) {
	payload := strings.Repeat("x", 20*1024)
	r := NewReader(strings.NewReader(payload))
	buf := make([]byte, len(payload))
	n, err := r.ReadFull(buf)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, string(buf))
}

func TestReaderReleaseAllowsReuse(t *testing.T) {
	r := NewReader(strings.NewReader("abc"))
	_, err := r.Next(3)
	require.NoError(t, err)
	require.NoError(t, r.Release(nil))
	assert.Zero(t, r.Buffered())
}

func TestWriterBatchesSmallWrites(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	buf, err := w.Reserve(3)
	require.NoError(t, err)
	copy(buf, "def")

	assert.Equal(t, 6, w.Pending())
	require.NoError(t, w.Flush())
	assert.Equal(t, "abcdef", out.String())
	assert.Zero(t, w.Pending())
}

func TestWriterDirectWriteLargePayload(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	large := bytes.Repeat([]byte("y"), directWriteSize+1)
	n, err := w.Write(large)
	require.NoError(t, err)
	assert.Equal(t, len(large), n)
	require.NoError(t, w.Flush())
	assert.Equal(t, large, out.Bytes())
}

func TestWriterFlushErrorSticks(t *testing.T) {
	w := NewWriter(failingWriter{})
	_, err := w.Write([]byte("x"))
	require.NoError(t, err)
	err = w.Flush()
	assert.Error(t, err)

	_, err = w.Write([]byte("y"))
	assert.Error(t, err, "writer must keep returning the sticky error")
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, io.ErrClosedPipe
}
