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

package ringstat

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksumOrderIndependent(t *testing.T) {
	items := make([]int64, 1000)
	for i := range items {
		items[i] = rand.Int63()
	}

	var forward, shuffled Checksum
	for _, v := range items {
		Add(&forward, v)
	}

	perm := rand.Perm(len(items))
	for _, i := range perm {
		Add(&shuffled, items[i])
	}

	assert.True(t, forward.Equal(&shuffled))
}

func TestChecksumDetectsLoss(t *testing.T) {
	var full, missingOne Checksum
	for i := int64(0); i < 100; i++ {
		Add(&full, i)
		if i != 42 {
			Add(&missingOne, i)
		}
	}
	assert.False(t, full.Equal(&missingOne))
}

func TestChecksumConcurrentAdd(t *testing.T) {
	const n = 10000
	var c Checksum
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < n/8; i++ {
				Add(&c, int64(g*n+i))
			}
		}(g)
	}
	wg.Wait()
	assert.EqualValues(t, n, c.Count())
}
