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

// Package ring implements a bounded, lock-free, multi-producer/multi-consumer
// FIFO ring buffer for pointer-width payload handles. Each side (producer,
// consumer) is independently single (exclusive caller) or multi (arbitrary
// concurrent callers), selected at construction via Flags.
package ring

// Flags control construction of a Ring.
type Flags uint32

const (
	// SPEnq marks the producer side exclusive: the caller promises at most
	// one goroutine ever calls an enqueue operation on the ring.
	SPEnq Flags = 1 << iota

	// SCDeq marks the consumer side exclusive: the caller promises at most
	// one goroutine ever calls a dequeue operation on the ring.
	SCDeq

	// ExactSize treats the requested count as the exact usable capacity.
	// Storage is rounded up internally to nextPowerOfTwo32(count + 1).
	// Without this flag count must already be a power of two and becomes
	// capacity+1.
	ExactSize
)

// RingSizeMask is the maximum supported ring storage size minus one, kept
// below 1<<31 so that 32-bit cursor distances stay unambiguous.
const RingSizeMask = 1<<31 - 1

func (f Flags) spEnq() bool { return f&SPEnq != 0 }
func (f Flags) scDeq() bool { return f&SCDeq != 0 }
func (f Flags) exact() bool { return f&ExactSize != 0 }
