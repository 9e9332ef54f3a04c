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

import "github.com/go-ring/ringkit/ringalloc"

// Option configures a Ring at construction time.
type Option[T any] func(*config)

type config struct {
	logger ringalloc.Logger
}

func newConfig[T any](opts []Option[T]) *config {
	c := &config{logger: ringalloc.NewStdLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithLogger overrides the logger used to report construction-time
// validation failures. The default logs through the standard log package.
func WithLogger[T any](l ringalloc.Logger) Option[T] {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
