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

// Package ringalloc provides the allocation and error-reporting hooks a
// ring.Ring needs at construction time: a pluggable Allocator that returns
// zeroed, suitably aligned memory, and a Logger used to report construction
// failures.
//
// Ring storage is a single fixed-size allocation requested once at
// construction and released once at Close. BitmapAllocator and
// BuddyAllocator are not safe for concurrent Alloc/Free calls, which matches
// that single-threaded, construction-time-only usage; PoolAllocator is built
// on sync.Pool and may be shared between goroutines.
package ringalloc

import (
	"errors"
	"log"
)

// ErrOutOfMemory is returned when an Allocator cannot satisfy a request.
var ErrOutOfMemory = errors.New("ringalloc: out of memory")

// Allocator is the embedder-supplied memory source a ring is built on.
// Alloc must return memory zeroed and ready for use; Free releases a block
// previously returned by Alloc from the same Allocator.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(block []byte)
}

// Logger is the embedder-supplied error reporter used to emit a
// human-readable message on construction-time validation or allocation
// failure. No ring operation ever logs for runtime under-delivery:
// see ring.EnqueueBulk / ring.DequeueBulk for that contract.
type Logger interface {
	Errorf(format string, args ...interface{})
}

type stdLogger struct{}

func (stdLogger) Errorf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// NewStdLogger returns a Logger backed by the standard log package.
func NewStdLogger() Logger {
	return stdLogger{}
}

// NopLogger discards every message. Useful in tests that intentionally
// trigger construction failures.
type NopLogger struct{}

func (NopLogger) Errorf(string, ...interface{}) {}
