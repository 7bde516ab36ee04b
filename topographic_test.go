// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
)

func TestTopographicUniqueSourceReturnAndNormalization(t *testing.T) {
	r := NewRegion("topo_test")
	src := r.AddInputLayer2D(8, 8, 1.0, 0.01)
	dst := r.AddOutputLayer2D(8, 8, 0.0)

	cfg := NewTopographicConfig()
	cfg.KernelH, cfg.KernelW = 3, 3
	cfg.Padding = PaddingSame
	cfg.SigmaCenter = 1.5
	cfg.NormalizeIncoming = true

	uniqueSources, err := r.ConnectLayersTopographic(src, dst, cfg)
	if err != nil {
		t.Fatalf("ConnectLayersTopographic: %v", err)
	}
	if uniqueSources != 64 {
		t.Fatalf("uniqueSources = %v, want 64 (every pixel of an 8x8 grid participates under same padding)", uniqueSources)
	}

	weights := r.TopographicWeights(src, dst)
	sums := IncomingWeightSums(dst, weights)
	for i, s := range sums {
		if s > 0 && math32.Abs(s-1.0) > 1e-5 {
			t.Errorf("incoming sum for center %d = %v, want ~1.0 under NormalizeIncoming", i, s)
		}
	}
}

func TestTopographicGaussianMonotonicWithDistance(t *testing.T) {
	r := NewRegion("topo_gauss")
	src := r.AddInputLayer2D(5, 5, 1.0, 0.01)
	dst := r.AddOutputLayer2D(5, 5, 0.0)

	cfg := NewTopographicConfig()
	cfg.KernelH, cfg.KernelW = 5, 5
	cfg.Padding = PaddingValid
	cfg.SigmaCenter = 2.0
	cfg.NormalizeIncoming = false

	if _, err := r.ConnectLayersTopographic(src, dst, cfg); err != nil {
		t.Fatalf("ConnectLayersTopographic: %v", err)
	}
	weights := r.TopographicWeights(src, dst)

	centerIndex := 2*5 + 2
	atCenter := weights[TopoEdge{SourceIndex: 2*5 + 2, CenterIndex: centerIndex}]
	oneStep := weights[TopoEdge{SourceIndex: 2*5 + 3, CenterIndex: centerIndex}]
	twoSteps := weights[TopoEdge{SourceIndex: 2*5 + 4, CenterIndex: centerIndex}]
	if !(atCenter > oneStep && oneStep > twoSteps) {
		t.Errorf("gaussian weights %v > %v > %v do not decrease with distance", atCenter, oneStep, twoSteps)
	}
}

func TestTopographicDoGNonNegativeAndPositiveAtZero(t *testing.T) {
	r := NewRegion("topo_dog")
	src := r.AddInputLayer2D(7, 7, 1.0, 0.01)
	dst := r.AddOutputLayer2D(7, 7, 0.0)

	cfg := NewTopographicConfig()
	cfg.KernelH, cfg.KernelW = 7, 7
	cfg.Padding = PaddingValid
	cfg.WeightMode = TopoDoG
	cfg.SigmaCenter = 1.5
	cfg.SigmaSurround = 3.0
	cfg.SurroundRatio = 0.5
	cfg.NormalizeIncoming = false

	if _, err := r.ConnectLayersTopographic(src, dst, cfg); err != nil {
		t.Fatalf("ConnectLayersTopographic: %v", err)
	}
	weights := r.TopographicWeights(src, dst)

	centerIndex := 3*7 + 3
	if atZero := weights[TopoEdge{SourceIndex: centerIndex, CenterIndex: centerIndex}]; atZero <= 0 {
		t.Errorf("DoG weight at zero distance = %v, want > 0 with surround_ratio < 1", atZero)
	}
	for key, w := range weights {
		if w < 0 {
			t.Fatalf("DoG weight for %+v = %v, want >= 0 everywhere (clamped)", key, w)
		}
	}
}

func TestTopographicDoGRejectsSurroundNotWiderThanCenter(t *testing.T) {
	r := NewRegion("topo_bad")
	src := r.AddInputLayer2D(4, 4, 1.0, 0.01)
	dst := r.AddOutputLayer2D(4, 4, 0.0)

	cfg := NewTopographicConfig()
	cfg.WeightMode = TopoDoG
	cfg.SigmaCenter = 3.0
	cfg.SigmaSurround = 2.0

	if _, err := r.ConnectLayersTopographic(src, dst, cfg); !errors.Is(err, ErrBadConfig) {
		t.Errorf("ConnectLayersTopographic with sigma_surround <= sigma_center returned err = %v, want ErrBadConfig", err)
	}
}

func TestTopographicDeterministicAcrossRuns(t *testing.T) {
	r := NewRegion("topo_determinism")
	src := r.AddInputLayer2D(6, 6, 1.0, 0.01)
	dst := r.AddOutputLayer2D(6, 6, 0.0)

	cfg := NewTopographicConfig()
	cfg.KernelH, cfg.KernelW = 3, 3
	cfg.Padding = PaddingSame
	cfg.SigmaCenter = 1.7
	cfg.NormalizeIncoming = true

	if _, err := r.ConnectLayersTopographic(src, dst, cfg); err != nil {
		t.Fatalf("first ConnectLayersTopographic: %v", err)
	}
	first := make(map[TopoEdge]float32, len(r.TopographicWeights(src, dst)))
	for k, v := range r.TopographicWeights(src, dst) {
		first[k] = v
	}

	if _, err := r.ConnectLayersTopographic(src, dst, cfg); err != nil {
		t.Fatalf("second ConnectLayersTopographic: %v", err)
	}
	second := r.TopographicWeights(src, dst)

	if len(first) != len(second) {
		t.Fatalf("len(weights) changed across identical runs: %v vs %v", len(first), len(second))
	}
	for k, v := range first {
		if second[k] != v {
			t.Errorf("weight for %+v changed across identical runs: %v vs %v", k, v, second[k])
		}
	}
}
