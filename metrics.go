// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import (
	"os"
)

// spatialMetricsEnabled reads the GROWNET_ENABLE_SPATIAL_METRICS env var
// once per call; optional spatial fields are otherwise left at zero.
func spatialMetricsEnabled() bool {
	return os.Getenv("GROWNET_ENABLE_SPATIAL_METRICS") == "1"
}

// compatDeliveredCount reads GROWNET_COMPAT_DELIVERED_COUNT, switching
// delivered_events to "count of bound layers" instead of one-per-tick.
func compatDeliveredCount() bool {
	return os.Getenv("GROWNET_COMPAT_DELIVERED_COUNT") == "bound"
}

// SpatialMetrics holds the optional per-tick spatial summary computed
// over a 2D frame (preferring the furthest-downstream Output2D frame,
// falling back to the input frame when the output frame is all zero).
type SpatialMetrics struct {
	ActivePixels int
	CentroidRow  float32
	CentroidCol  float32

	// BBoxRowMin/RowMax/ColMin/ColMax use the empty-bbox sentinel
	// (0, -1, 0, -1) when ActivePixels == 0.
	BBoxRowMin int
	BBoxRowMax int
	BBoxColMin int
	BBoxColMax int
}

// Metrics is returned by every Region.Tick* call.
type Metrics struct {
	DeliveredEvents int
	TotalSlots      int
	TotalSynapses   int

	Spatial *SpatialMetrics
}

// PruneSummary is returned by Region.Prune.
type PruneSummary struct {
	PrunedSynapses int
	PrunedEdges    int
}

func newEmptySpatialMetrics() *SpatialMetrics {
	return &SpatialMetrics{BBoxRowMin: 0, BBoxRowMax: -1, BBoxColMin: 0, BBoxColMax: -1}
}

// computeSpatialMetrics scans frame in row-major order, preferring
// outputFrame when it has at least one positive pixel, else falling
// back to inputFrame.
func computeSpatialMetrics(outputFrame, inputFrame [][]float32) *SpatialMetrics {
	frame := outputFrame
	if !frameHasPositive(frame) && frameHasPositive(inputFrame) {
		frame = inputFrame
	}
	sm := newEmptySpatialMetrics()
	if frame == nil {
		return sm
	}
	var weightedRow, weightedCol, totalWeight float32
	for r, row := range frame {
		for c, v := range row {
			if v <= 0 {
				continue
			}
			sm.ActivePixels++
			weightedRow += float32(r) * v
			weightedCol += float32(c) * v
			totalWeight += v
			if sm.ActivePixels == 1 {
				sm.BBoxRowMin, sm.BBoxRowMax = r, r
				sm.BBoxColMin, sm.BBoxColMax = c, c
			} else {
				sm.BBoxRowMin = minInt(sm.BBoxRowMin, r)
				sm.BBoxRowMax = maxInt(sm.BBoxRowMax, r)
				sm.BBoxColMin = minInt(sm.BBoxColMin, c)
				sm.BBoxColMax = maxInt(sm.BBoxColMax, c)
			}
		}
	}
	if totalWeight > 0 {
		sm.CentroidRow = weightedRow / totalWeight
		sm.CentroidCol = weightedCol / totalWeight
	}
	return sm
}

func frameHasPositive(frame [][]float32) bool {
	for _, row := range frame {
		for _, v := range row {
			if v > 0 {
				return true
			}
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
