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

func TestNewPoolAllocator(t *testing.T) {
	tests := []struct {
		name    string
		min     int
		max     int
		wantErr bool
	}{
		{"valid", 4096, 1 << 20, false},
		{"min_not_pow2", 3000, 1 << 20, true},
		{"min_too_small", 4, 1 << 20, true},
		{"max_lt_min", 1 << 20, 4096, true},
		{"max_not_pow2", 4096, 300000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPoolAllocator(tt.min, tt.max)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPoolAllocFree(t *testing.T) {
	a, err := NewPoolAllocator(4096, 1<<20)
	require.NoError(t, err)

	b, err := a.Alloc(1024)
	require.NoError(t, err)
	assert.Equal(t, 1024, len(b))
	for _, v := range b {
		assert.Zero(t, v)
	}
	b[0] = 0xFF

	a.Free(b)

	b2, err := a.Alloc(1024)
	require.NoError(t, err)
	assert.Zero(t, b2[0], "reused block from pool must come back zeroed")
	a.Free(b2)
}

func TestPoolAllocTooLarge(t *testing.T) {
	a, err := NewPoolAllocator(4096, 8192)
	require.NoError(t, err)
	_, err = a.Alloc(1 << 20)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestPoolFreeDoubleFreePanics(t *testing.T) {
	a, err := NewPoolAllocator(4096, 1<<20)
	require.NoError(t, err)

	b, err := a.Alloc(100)
	require.NoError(t, err)
	assert.NotPanics(t, func() { a.Free(b) })
	assert.Panics(t, func() { a.Free(b) })
}
