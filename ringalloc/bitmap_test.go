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

package ringalloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBitmapAllocator(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		min     int
		max     int
		wantErr bool
	}{
		{"valid", 1024 * 1024, 4096, 64 * 1024, false},
		{"valid_min_eq_4k", 256 * 1024, 4096, 8192, false},
		{"min_lt_4096", 256 * 1024, 2048, 8192, true},
		{"min_not_mult_4096", 256 * 1024, 5000, 10000, true},
		{"max_le_min", 256 * 1024, 4096, 4096, true},
		{"max_not_mult_min", 256 * 1024, 4096, 10000, true},
		{"arena_too_small", 4096, 4096, 8192, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBitmapAllocatorWithBlockSize(make([]byte, tt.size), tt.min, tt.max)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBitmapAllocFree(t *testing.T) {
	a := newTestBitmapAlloc(t, 1024*1024, 4096, 64*1024)

	b1, err := a.Alloc(1024)
	require.NoError(t, err)
	assert.Equal(t, 1024, len(b1))
	for i := range b1 {
		assert.Zero(t, b1[i])
		b1[i] = byte(i)
	}

	b2, err := a.Alloc(8192)
	require.NoError(t, err)
	assert.False(t, bitmapOverlap(b1, b2))

	a.Free(b1)
	b3, err := a.Alloc(2048)
	require.NoError(t, err)

	for i := range b3 {
		b3[i] = byte(i)
	}
	a.Free(b3)
	a.Free(b2)
}

func TestBitmapFreeInvalid(t *testing.T) {
	a := newTestBitmapAlloc(t, 256*1024, 4096, 16*1024)

	assert.Panics(t, func() { a.Free(make([]byte, 1024)) })
	assert.NotPanics(t, func() { a.Free(nil) })
	assert.NotPanics(t, func() { a.Free([]byte{}) })

	b, err := a.Alloc(1024)
	require.NoError(t, err)
	assert.NotPanics(t, func() { a.Free(b) })
	assert.Panics(t, func() { a.Free(b) })
}

func TestBitmapOutOfMemory(t *testing.T) {
	a := newTestBitmapAlloc(t, 256*1024, 4096, 16*1024)
	_, err := a.Alloc(64 * 1024)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestBitmapAvailable(t *testing.T) {
	a := newTestBitmapAlloc(t, 256*1024, 4096, 16*1024)
	initial := a.Available()
	assert.Greater(t, initial, 0)

	b, err := a.Alloc(4096)
	require.NoError(t, err)
	assert.Less(t, a.Available(), initial)

	a.Free(b)
	assert.Equal(t, initial, a.Available())
}

func TestBitmapReset(t *testing.T) {
	a := newTestBitmapAlloc(t, 256*1024, 4096, 16*1024)
	initial := a.Available()

	for i := 0; i < 10; i++ {
		_, err := a.Alloc(1024)
		require.NoError(t, err)
	}
	assert.Less(t, a.Available(), initial)

	a.Reset()
	assert.Equal(t, initial, a.Available())

	b, err := a.Alloc(1024)
	require.NoError(t, err)
	a.Free(b)
}

func newTestBitmapAlloc(t *testing.T, size, min, max int) *BitmapAllocator {
	t.Helper()
	a, err := NewBitmapAllocatorWithBlockSize(make([]byte, size), min, max)
	require.NoError(t, err)
	return a
}

func bitmapOverlap(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	aStart := uintptr(unsafe.Pointer(&a[0]))
	aEnd := aStart + uintptr(len(a))
	bStart := uintptr(unsafe.Pointer(&b[0]))
	bEnd := bStart + uintptr(len(b))
	return !(aEnd <= bStart || bEnd <= aStart)
}

func BenchmarkBitmapAlloc(b *testing.B) {
	a, _ := NewBitmapAllocatorWithBlockSize(make([]byte, 16*1024*1024), 4096, 64*1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		block, err := a.Alloc(4096)
		if err == nil {
			a.Free(block)
		}
	}
}
