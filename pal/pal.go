// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pal provides the optional data-parallel layer: tile-based
// fan-out over a worker pool with strictly ordered reduction, so
// results stay bitwise-stable regardless of worker count.
package pal

import (
	"os"
	"runtime"
	"strconv"
	"sync"
)

// Tile is a half-open neuron range [Start, End) within layer Layer,
// the unit of work build_layer_neuron_tiles hands to a worker.
type Tile struct {
	Layer int
	Start int
	End   int
}

// Options configures ParallelFor/ParallelMap. A zero Options uses the
// documented defaults: tile size 4096 and a worker count resolved from
// GROWNET_PAL_MAX_WORKERS or the number of CPUs.
type Options struct {
	MaxWorkers int
	TileSize   int
}

func (o Options) resolveTileSize() int {
	if o.TileSize > 0 {
		return o.TileSize
	}
	return 4096
}

func (o Options) resolveMaxWorkers() int {
	if o.MaxWorkers > 0 {
		return o.MaxWorkers
	}
	if env := os.Getenv("GROWNET_PAL_MAX_WORKERS"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			return n
		}
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

// BuildLayerNeuronTiles returns the stable, lexicographically ordered
// (layer_index, tile_start) tile list covering every neuron in
// neuronCounts.
func BuildLayerNeuronTiles(neuronCounts []int, tileSize int) []Tile {
	if tileSize <= 0 {
		tileSize = 4096
	}
	var tiles []Tile
	for layerIndex, total := range neuronCounts {
		start := 0
		for start < total {
			end := start + tileSize
			if end > total {
				end = total
			}
			tiles = append(tiles, Tile{Layer: layerIndex, Start: start, End: end})
			start = end
		}
	}
	return tiles
}

// ParallelFor runs kernel over every item in domain, tiled across a
// worker pool, with no return value and no ordering guarantee between
// tiles.
func ParallelFor(domain []int, kernel func(item int), opts Options) {
	n := len(domain)
	if n == 0 {
		return
	}
	tile := opts.resolveTileSize()
	workers := opts.resolveMaxWorkers()

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for start := 0; start < n; start += tile {
		end := start + tile
		if end > n {
			end = n
		}
		chunk := domain[start:end]
		wg.Add(1)
		sem <- struct{}{}
		go func(items []int) {
			defer wg.Done()
			defer func() { <-sem }()
			for _, item := range items {
				kernel(item)
			}
		}(chunk)
	}
	wg.Wait()
}

// ParallelMap runs kernel over every item in domain, tiled across a
// worker pool, then reduces the per-tile partial results in domain
// order via reduceInOrder on a single thread. The ordered reduction is
// what keeps results bitwise-stable regardless of worker count.
func ParallelMap(domain []int, kernel func(item int) any, reduceInOrder func([]any) any, opts Options) any {
	n := len(domain)
	if n == 0 {
		return reduceInOrder(nil)
	}
	tile := opts.resolveTileSize()
	workers := opts.resolveMaxWorkers()

	tileCount := (n + tile - 1) / tile
	partials := make([][]any, tileCount)

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for ti := 0; ti < tileCount; ti++ {
		start := ti * tile
		end := start + tile
		if end > n {
			end = n
		}
		chunk := domain[start:end]
		wg.Add(1)
		sem <- struct{}{}
		go func(tileIndex int, items []int) {
			defer wg.Done()
			defer func() { <-sem }()
			results := make([]any, len(items))
			for i, item := range items {
				results[i] = kernel(item)
			}
			partials[tileIndex] = results
		}(ti, chunk)
	}
	wg.Wait()

	var flat []any
	for _, part := range partials {
		flat = append(flat, part...)
	}
	return reduceInOrder(flat)
}
