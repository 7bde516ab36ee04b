// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import "testing"

func TestFrameHasPositive(t *testing.T) {
	if frameHasPositive([][]float32{{0, 0}, {0, 0}}) {
		t.Errorf("all-zero frame reported as having a positive pixel")
	}
	if frameHasPositive(nil) {
		t.Errorf("nil frame reported as having a positive pixel")
	}
	if !frameHasPositive([][]float32{{0, 0}, {0, -1.5}, {0, 0.01}}) {
		t.Errorf("frame with a positive pixel reported as all-zero")
	}
}

func TestComputeSpatialMetricsEmptyFrameUsesSentinelBBox(t *testing.T) {
	sm := computeSpatialMetrics([][]float32{{0, 0}, {0, 0}}, nil)
	if sm.ActivePixels != 0 {
		t.Fatalf("ActivePixels = %v, want 0", sm.ActivePixels)
	}
	if sm.BBoxRowMin != 0 || sm.BBoxRowMax != -1 || sm.BBoxColMin != 0 || sm.BBoxColMax != -1 {
		t.Errorf("empty-bbox sentinel = (%v,%v,%v,%v), want (0,-1,0,-1)",
			sm.BBoxRowMin, sm.BBoxRowMax, sm.BBoxColMin, sm.BBoxColMax)
	}
	if sm.CentroidRow != 0 || sm.CentroidCol != 0 {
		t.Errorf("centroid on an empty frame = (%v,%v), want (0,0)", sm.CentroidRow, sm.CentroidCol)
	}
}

func TestComputeSpatialMetricsNilOutputFrameReturnsSentinel(t *testing.T) {
	sm := computeSpatialMetrics(nil, nil)
	if sm.ActivePixels != 0 || sm.BBoxRowMax != -1 || sm.BBoxColMax != -1 {
		t.Errorf("nil/nil frames did not produce the empty sentinel: %+v", sm)
	}
}

func TestComputeSpatialMetricsPrefersOutputFrameWhenItHasSignal(t *testing.T) {
	output := [][]float32{{0, 0}, {0, 5}}
	input := [][]float32{{9, 9}, {9, 9}}
	sm := computeSpatialMetrics(output, input)
	if sm.ActivePixels != 1 {
		t.Fatalf("ActivePixels = %v, want 1 (computed over the output frame, not the input frame)", sm.ActivePixels)
	}
	if sm.BBoxRowMin != 1 || sm.BBoxRowMax != 1 || sm.BBoxColMin != 1 || sm.BBoxColMax != 1 {
		t.Errorf("bbox = (%v,%v,%v,%v), want (1,1,1,1)", sm.BBoxRowMin, sm.BBoxRowMax, sm.BBoxColMin, sm.BBoxColMax)
	}
}

func TestComputeSpatialMetricsFallsBackToInputFrameWhenOutputIsAllZero(t *testing.T) {
	output := [][]float32{{0, 0}, {0, 0}}
	input := [][]float32{{0, 2}, {0, 0}}
	sm := computeSpatialMetrics(output, input)
	if sm.ActivePixels != 1 {
		t.Fatalf("ActivePixels = %v, want 1 (fallback to the input frame)", sm.ActivePixels)
	}
	if sm.BBoxRowMin != 0 || sm.BBoxRowMax != 0 || sm.BBoxColMin != 1 || sm.BBoxColMax != 1 {
		t.Errorf("bbox = (%v,%v,%v,%v), want (0,0,1,1)", sm.BBoxRowMin, sm.BBoxRowMax, sm.BBoxColMin, sm.BBoxColMax)
	}
}

func TestComputeSpatialMetricsCentroidIsValueWeighted(t *testing.T) {
	// Two active pixels at (0,0) weight 1 and (0,2) weight 3: the
	// weighted column centroid must skew toward the heavier pixel.
	frame := [][]float32{{1, 0, 3}}
	sm := computeSpatialMetrics(frame, nil)
	if sm.ActivePixels != 2 {
		t.Fatalf("ActivePixels = %v, want 2", sm.ActivePixels)
	}
	wantCol := float32(0*1+2*3) / float32(1+3)
	if sm.CentroidCol != wantCol {
		t.Errorf("CentroidCol = %v, want %v", sm.CentroidCol, wantCol)
	}
	if sm.CentroidRow != 0 {
		t.Errorf("CentroidRow = %v, want 0 (both active pixels are in row 0)", sm.CentroidRow)
	}
	if sm.BBoxColMin != 0 || sm.BBoxColMax != 2 {
		t.Errorf("bbox cols = (%v,%v), want (0,2)", sm.BBoxColMin, sm.BBoxColMax)
	}
}

func TestMinIntMaxInt(t *testing.T) {
	if minInt(3, 5) != 3 || minInt(5, 3) != 3 {
		t.Errorf("minInt is not symmetric/correct")
	}
	if maxInt(3, 5) != 5 || maxInt(5, 3) != 5 {
		t.Errorf("maxInt is not symmetric/correct")
	}
}
