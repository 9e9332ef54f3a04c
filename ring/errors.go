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

import "errors"

// ErrInvalidSize is returned by MemSize/Init/New when count/flags fail the
// construction-time size constraints of §6: without ExactSize, count must be
// a power of two in [2, RingSizeMask]; with ExactSize, count must be in
// [1, RingSizeMask].
var ErrInvalidSize = errors.New("ring: invalid size")
