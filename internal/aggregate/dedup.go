// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package aggregate

import orderedmap "github.com/wk8/go-ordered-map/v2"

// dedup keeps one value per key. A later Put replaces the stored value but
// keeps the position of the first occurrence.
type dedup[T any] struct {
	entries *orderedmap.OrderedMap[string, T]
}

func newDedup[T any]() *dedup[T] {
	return &dedup[T]{entries: orderedmap.New[string, T]()}
}

func (d *dedup[T]) Put(key string, v T) {
	d.entries.Set(key, v)
}

func (d *dedup[T]) Items() []T {
	out := make([]T, 0, d.entries.Len())
	for pair := d.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
