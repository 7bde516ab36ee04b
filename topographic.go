// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/goki/ki/kit"
)

// TopographicWeightMode selects the distance-to-weight kernel used by
// ConnectLayersTopographic.
type TopographicWeightMode int32

//go:generate stringer -type=TopographicWeightMode

var KiT_TopographicWeightMode = kit.Enums.AddEnum(TopographicWeightModeN, kit.NotBitFlag, nil)

func (ev TopographicWeightMode) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *TopographicWeightMode) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// TopoGaussian weighs each (source, center) pair by
	// exp(-d^2 / (2*sigma_center^2)).
	TopoGaussian TopographicWeightMode = iota

	// TopoDoG weighs by a difference of Gaussians:
	// max(0, center - surround_ratio*surround). Requires
	// SigmaSurround > SigmaCenter.
	TopoDoG

	TopographicWeightModeN
)

// TopographicConfig parameterizes the topographic wiring preset: a
// windowed wiring pass plus deterministic distance-based weights from
// each source pixel to its window center.
type TopographicConfig struct {
	KernelH int
	KernelW int
	StrideH int
	StrideW int
	Padding PaddingMode

	Feedback bool

	WeightMode TopographicWeightMode

	SigmaCenter   float32
	SigmaSurround float32
	SurroundRatio float32

	// NormalizeIncoming rescales each destination center's incoming
	// weights to sum to 1.0.
	NormalizeIncoming bool
}

// Defaults fills in the documented default values.
func (tc *TopographicConfig) Defaults() {
	tc.KernelH = 7
	tc.KernelW = 7
	tc.StrideH = 1
	tc.StrideW = 1
	tc.Padding = PaddingSame
	tc.Feedback = false
	tc.WeightMode = TopoGaussian
	tc.SigmaCenter = 2.0
	tc.SigmaSurround = 4.0
	tc.SurroundRatio = 0.5
	tc.NormalizeIncoming = true
}

// NewTopographicConfig returns a TopographicConfig initialized to its
// documented defaults.
func NewTopographicConfig() TopographicConfig {
	var tc TopographicConfig
	tc.Defaults()
	return tc
}

func (tc *TopographicConfig) validate() error {
	if tc.KernelH < 1 || tc.KernelW < 1 {
		return badConfigf("topographic: kernel dims %dx%d must be >= 1", tc.KernelH, tc.KernelW)
	}
	if tc.StrideH < 1 || tc.StrideW < 1 {
		return badConfigf("topographic: stride dims %dx%d must be >= 1", tc.StrideH, tc.StrideW)
	}
	if tc.SigmaCenter <= 0 {
		return badConfigf("topographic: sigma_center %v must be > 0", tc.SigmaCenter)
	}
	if tc.WeightMode == TopoDoG {
		if tc.SigmaSurround <= tc.SigmaCenter {
			return badConfigf("topographic: sigma_surround %v must be > sigma_center %v for DoG mode", tc.SigmaSurround, tc.SigmaCenter)
		}
		if tc.SurroundRatio < 0 {
			return badConfigf("topographic: surround_ratio %v must be >= 0", tc.SurroundRatio)
		}
	}
	return nil
}

// TopoEdge identifies one weighted (source pixel, destination center)
// pair produced by the topographic preset.
type TopoEdge struct {
	SourceIndex int
	CenterIndex int
}

type topoPair struct {
	srcLayer int
	dstLayer int
}

// Computed weights are kept in a sidecar registry rather than on the
// core Weight objects, keyed per region for test isolation, the same
// shape the proximity engine uses for its cooldown state.
var topographicWeightsByRegion = make(map[*Region]map[topoPair]map[TopoEdge]float32)

// ConnectLayersTopographic wires src to dst with ConnectLayersWindowed,
// then computes deterministic distance-based weights from every source
// pixel to its window center and (optionally) normalizes each center's
// incoming weights to sum to 1. Returns the unique source count from
// the underlying windowed wiring.
func (r *Region) ConnectLayersTopographic(src, dst *Layer, cfg TopographicConfig) (int, error) {
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	if src == nil || dst == nil {
		return 0, badIndexf("topographic: nil layer")
	}
	if src.Height <= 0 || src.Width <= 0 || dst.Height <= 0 || dst.Width <= 0 {
		return 0, badShapef("topographic: layers %d -> %d must both have a 2D shape", src.Index, dst.Index)
	}

	uniqueSources, err := r.ConnectLayersWindowed(src, dst, cfg.KernelH, cfg.KernelW, cfg.StrideH, cfg.StrideW, cfg.Padding, cfg.Feedback)
	if err != nil {
		return 0, err
	}

	weights := make(map[TopoEdge]float32)
	rowOrigins := windowOrigins(src.Height, cfg.KernelH, cfg.StrideH, cfg.Padding)
	colOrigins := windowOrigins(src.Width, cfg.KernelW, cfg.StrideW, cfg.Padding)
	for _, ro := range rowOrigins {
		for _, co := range colOrigins {
			rowStart := maxInt(0, ro)
			colStart := maxInt(0, co)
			rowEnd := minInt(src.Height, ro+cfg.KernelH)
			colEnd := minInt(src.Width, co+cfg.KernelW)
			if rowStart >= rowEnd || colStart >= colEnd {
				continue
			}
			centerRow := clampInt(ro+cfg.KernelH/2, 0, dst.Height-1)
			centerCol := clampInt(co+cfg.KernelW/2, 0, dst.Width-1)
			centerIndex := centerRow*dst.Width + centerCol
			for sr := rowStart; sr < rowEnd; sr++ {
				for sc := colStart; sc < colEnd; sc++ {
					srcIndex := sr*src.Width + sc
					key := TopoEdge{SourceIndex: srcIndex, CenterIndex: centerIndex}
					if _, seen := weights[key]; seen {
						continue
					}
					dr := float32(sr - centerRow)
					dc := float32(sc - centerCol)
					squared := dr*dr + dc*dc
					weights[key] = cfg.weightForSquaredDistance(squared)
				}
			}
		}
	}

	if cfg.NormalizeIncoming {
		// Accumulate in sorted key order so the float sums (and thus the
		// normalized weights) are identical across runs.
		keys := make([]TopoEdge, 0, len(weights))
		for key := range weights {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].CenterIndex != keys[j].CenterIndex {
				return keys[i].CenterIndex < keys[j].CenterIndex
			}
			return keys[i].SourceIndex < keys[j].SourceIndex
		})
		incoming := make([]float32, dst.Height*dst.Width)
		for _, key := range keys {
			incoming[key.CenterIndex] += weights[key]
		}
		for _, key := range keys {
			if sum := incoming[key.CenterIndex]; sum > 1e-12 {
				weights[key] /= sum
			}
		}
	}

	byPair, ok := topographicWeightsByRegion[r]
	if !ok {
		byPair = make(map[topoPair]map[TopoEdge]float32)
		topographicWeightsByRegion[r] = byPair
	}
	byPair[topoPair{srcLayer: src.Index, dstLayer: dst.Index}] = weights
	return uniqueSources, nil
}

func (tc *TopographicConfig) weightForSquaredDistance(squared float32) float32 {
	center := math32.Exp(-squared / (2 * tc.SigmaCenter * tc.SigmaCenter))
	if tc.WeightMode != TopoDoG {
		return center
	}
	surround := math32.Exp(-squared / (2 * tc.SigmaSurround * tc.SigmaSurround))
	return math32.Max(0, center-tc.SurroundRatio*surround)
}

// TopographicWeights returns the computed weights for a (src, dst)
// layer pair, or nil if ConnectLayersTopographic has not wired it.
func (r *Region) TopographicWeights(src, dst *Layer) map[TopoEdge]float32 {
	byPair, ok := topographicWeightsByRegion[r]
	if !ok {
		return nil
	}
	return byPair[topoPair{srcLayer: src.Index, dstLayer: dst.Index}]
}

// IncomingWeightSums aggregates a weight map into per-center incoming
// sums over dst's grid.
func IncomingWeightSums(dst *Layer, weights map[TopoEdge]float32) []float32 {
	size := dst.Height * dst.Width
	if size < 1 {
		size = 1
	}
	totals := make([]float32, size)
	for key, w := range weights {
		if key.CenterIndex >= 0 && key.CenterIndex < len(totals) {
			totals[key.CenterIndex] += w
		}
	}
	return totals
}
