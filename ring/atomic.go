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

import "sync/atomic"

// storeFence publishes tail so that every write that precedes it in program
// order happens-before any goroutine that later observes this store via
// loadFence. The Go memory model gives atomic.StoreUint32/LoadUint32 on the
// same address exactly that synchronizes-with relationship, so there is no
// separate barrier intrinsic to call here; this wrapper exists so the
// reservation/publication steps below read in the same shape as the
// fence-annotated protocol they implement.
func storeFence(addr *uint32, val uint32) {
	atomic.StoreUint32(addr, val)
}

// loadFence is the read-side counterpart of storeFence: it synchronizes
// with the store that published val, ordering every subsequent read in
// program order after the payload writes it guards.
func loadFence(addr *uint32) uint32 {
	return atomic.LoadUint32(addr)
}
