// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pal

// mix64 is the SplitMix64 mix function.
func mix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z
}

// CounterRNG draws deterministic, independent float64 values in
// [0, 1) keyed by (seed, step, drawKind, layerIndex, unitIndex,
// drawIndex), so a PAL kernel never depends on wall-clock entropy or
// draw ordering across worker threads.
func CounterRNG(seed int64, step, drawKind, layerIndex, unitIndex, drawIndex int64) float64 {
	key := uint64(seed)
	for _, v := range [5]int64{step, drawKind, layerIndex, unitIndex, drawIndex} {
		key = mix64(key ^ uint64(v))
	}
	mantissa := (key >> 11) & ((1 << 53) - 1)
	return float64(mantissa) / float64(uint64(1)<<53)
}
