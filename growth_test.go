// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import "testing"

// TestRegionGrowthIsCapped: across several ticks of a saturating
// pipeline under an aggressive policy, the layer count never grows by
// more than one per tick, and when it does grow, LastLayerGrowthStep
// matches the first layer's bus step.
func TestRegionGrowthIsCapped(t *testing.T) {
	r := NewRegion("t")
	cfg := NewSlotConfig()
	cfg.SlotLimit = 2
	cfg.FixedDeltaPercent = 1.0 // tiny bins: every new input value saturates fast

	src := r.AddLayer(4, 0, 0, cfg)
	dst := r.AddLayer(4, 0, 0, cfg)
	if _, err := r.ConnectLayers(src, dst, 1.0, false); err != nil {
		t.Fatalf("ConnectLayers: %v", err)
	}

	policy := NewGrowthPolicy()
	policy.AvgSlotsThreshold = 0
	policy.PercentNeuronsAtCapThreshold = 0
	policy.LayerCooldownTicks = 0
	r.SetGrowthPolicy(policy)

	if err := r.BindInput("x", []*Layer{src}); err != nil {
		t.Fatalf("BindInput: %v", err)
	}

	layerCountBefore := len(r.Layers)
	for i := 0; i < 5; i++ {
		before := len(r.Layers)
		if _, err := r.Tick("x", float32(i)*0.37+0.1); err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
		grown := len(r.Layers) - before
		if grown > 1 {
			t.Fatalf("tick %d added %v layers, want at most 1", i, grown)
		}
		if grown == 1 {
			if r.LastLayerGrowthStep != r.Layers[0].Bus.CurrentStepNow() {
				t.Errorf("tick %d: LastLayerGrowthStep = %v, want %v (first layer's bus step)", i, r.LastLayerGrowthStep, r.Layers[0].Bus.CurrentStepNow())
			}
		}
	}
	if len(r.Layers) <= layerCountBefore {
		t.Errorf("no growth occurred across 5 ticks of an aggressively-saturating policy")
	}
}

func TestMaybeGrowRespectsMaxTotalLayers(t *testing.T) {
	r := NewRegion("t")
	cfg := NewSlotConfig()
	ly := r.AddLayer(1, 0, 0, cfg)
	_ = ly

	policy := NewGrowthPolicy()
	policy.AvgSlotsThreshold = 0
	policy.PercentNeuronsAtCapThreshold = 0
	policy.LayerCooldownTicks = 0
	policy.MaxTotalLayers = 1

	if DefaultGrowthController.MaybeGrow(r, &policy) {
		t.Fatalf("MaybeGrow exceeded MaxTotalLayers")
	}
	if len(r.Layers) != 1 {
		t.Errorf("len(Layers) = %v, want still 1", len(r.Layers))
	}
}

func TestMaybeGrowRespectsCooldown(t *testing.T) {
	r := NewRegion("t")
	cfg := NewSlotConfig()
	cfg.SlotLimit = 1
	ly := r.AddLayer(1, 0, 0, cfg)
	ly.Neurons[0].OnInput(1.0) // allocate the single slot, no fallback yet

	policy := NewGrowthPolicy()
	policy.AvgSlotsThreshold = 0
	policy.PercentNeuronsAtCapThreshold = 0
	policy.LayerCooldownTicks = 1000
	r.LastLayerGrowthStep = ly.Bus.CurrentStepNow()

	if DefaultGrowthController.MaybeGrow(r, &policy) {
		t.Fatalf("MaybeGrow fired within the cooldown window")
	}
}
