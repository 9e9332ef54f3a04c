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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuddyAllocator(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		min     int
		max     int
		wantErr bool
	}{
		{"valid", 1024 * 1024, 8192, 512 * 1024, false},
		{"min_not_pow2", 1024 * 1024, 3000, 512 * 1024, true},
		{"max_not_pow2", 1024 * 1024, 8192, 300000, true},
		{"min_gt_max", 1024 * 1024, 512 * 1024, 8192, true},
		{"min_le_header", 1024 * 1024, 4, 512 * 1024, true},
		{"arena_not_mult_max", 1024*1024 + 1, 8192, 512 * 1024, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuddyAllocatorWithBlockSize(make([]byte, tt.size), tt.min, tt.max)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuddyAllocFree(t *testing.T) {
	a, err := NewBuddyAllocatorWithBlockSize(make([]byte, 1024*1024), 8192, 512*1024)
	require.NoError(t, err)

	b1, err := a.Alloc(1024)
	require.NoError(t, err)
	assert.Equal(t, 1024, len(b1))
	for i := range b1 {
		assert.Zero(t, b1[i])
	}

	b2, err := a.Alloc(100000)
	require.NoError(t, err)
	assert.Equal(t, 100000, len(b2))

	a.Free(b1)
	a.Free(b2)
}

func TestBuddyCoalesce(t *testing.T) {
	a, err := NewBuddyAllocatorWithBlockSize(make([]byte, 64*1024), 8192, 64*1024)
	require.NoError(t, err)

	blocks := make([][]byte, 0, 8)
	for i := 0; i < 8; i++ {
		b, err := a.Alloc(8192 - buddyHeaderSize)
		require.NoError(t, err)
		blocks = append(blocks, b)
	}
	_, err = a.Alloc(8192 - buddyHeaderSize)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	for _, b := range blocks {
		a.Free(b)
	}

	big, err := a.Alloc(64*1024 - buddyHeaderSize)
	require.NoError(t, err)
	assert.Equal(t, 64*1024-buddyHeaderSize, len(big))
	a.Free(big)
}

func TestBuddyDoubleFreePanics(t *testing.T) {
	a, err := NewBuddyAllocatorWithBlockSize(make([]byte, 1024*1024), 8192, 512*1024)
	require.NoError(t, err)

	b, err := a.Alloc(1024)
	require.NoError(t, err)
	assert.NotPanics(t, func() { a.Free(b) })
	assert.Panics(t, func() { a.Free(b) })
}

func TestBuddyReset(t *testing.T) {
	a, err := NewBuddyAllocatorWithBlockSize(make([]byte, 1024*1024), 8192, 512*1024)
	require.NoError(t, err)

	initial := a.Available()
	_, err = a.Alloc(4096)
	require.NoError(t, err)
	assert.Less(t, a.Available(), initial)

	a.Reset()
	assert.Equal(t, initial, a.Available())
}
