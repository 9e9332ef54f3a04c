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

package ring

// EnqueueBulk reserves and publishes exactly len(items) slots, or none:
// it transfers all of items or, if free capacity is insufficient,
// transfers nothing and returns 0. The producer side dispatches to a CAS
// loop or a plain store depending on whether the ring was built with SPEnq.
func (r *Ring[T]) EnqueueBulk(items []T) (n uint32) {
	return r.enqueue(items, true)
}

// EnqueueBurst reserves and publishes as many of items as currently fit,
// up to len(items), and returns the number actually transferred.
func (r *Ring[T]) EnqueueBurst(items []T) (n uint32) {
	return r.enqueue(items, false)
}

// Enqueue is the single-item convenience wrapper over EnqueueBulk.
func (r *Ring[T]) Enqueue(item T) bool {
	return r.EnqueueBulk([]T{item}) == 1
}

func (r *Ring[T]) enqueue(items []T, fixed bool) uint32 {
	if len(items) == 0 {
		return 0
	}
	var snapshot, nReserved uint32
	if r.prod.single {
		snapshot, nReserved = r.prod.moveHeadExclusive(uint32(len(items)), fixed, r.capacity, &r.cons.tail)
	} else {
		snapshot, nReserved = r.prod.moveHeadShared(uint32(len(items)), fixed, r.capacity, &r.cons.tail)
	}
	if nReserved == 0 {
		return 0
	}

	for i := uint32(0); i < nReserved; i++ {
		idx := (snapshot + i) & r.mask
		r.slots[idx] = items[i]
	}

	r.prod.publishTail(snapshot, nReserved)
	return nReserved
}
