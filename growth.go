// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

// GrowthController evaluates a Region's GrowthPolicy once per tick and,
// at most, adds a single spillover layer. It carries no
// state of its own; last_layer_growth_step lives on the Region.
type GrowthController struct{}

// DefaultGrowthController is the controller instance Region.Tick*
// delegates to.
var DefaultGrowthController = GrowthController{}

type layerSaturation struct {
	layer    *Layer
	avgSlots float32
	pctAtCap float32
}

// MaybeGrow implements the region-level growth rule,
// returning whether a layer was added this tick.
func (GrowthController) MaybeGrow(r *Region, policy *GrowthPolicy) bool {
	if policy == nil || !policy.EnableLayerGrowth {
		return false
	}
	if policy.MaxTotalLayers >= 0 && len(r.Layers) >= policy.MaxTotalLayers {
		return false
	}
	if len(r.Layers) == 0 || r.layerGrewThisTick {
		return false
	}
	now := r.Layers[0].Bus.CurrentStepNow()
	if r.LastLayerGrowthStep >= 0 && now-r.LastLayerGrowthStep < int64(policy.LayerCooldownTicks) {
		return false
	}

	var candidates []layerSaturation
	for _, ly := range r.Layers {
		if ly.Variant != ScalarLayer {
			continue
		}
		sat := computeLayerSaturation(ly)
		candidates = append(candidates, sat)
	}
	if len(candidates) == 0 {
		return false
	}

	triggered := false
	var worst layerSaturation
	for _, sat := range candidates {
		if sat.avgSlots >= policy.AvgSlotsThreshold || sat.pctAtCap >= policy.PercentNeuronsAtCapThreshold {
			if !triggered || sat.pctAtCap > worst.pctAtCap || (sat.pctAtCap == worst.pctAtCap && sat.avgSlots > worst.avgSlots) {
				worst = sat
				triggered = true
			}
		}
	}
	if !triggered {
		return false
	}

	newLayer := NewLayer(r, len(r.Layers), policy.NewLayerExcitatoryCount, 0, 0, worst.layer.DefaultCfg)
	r.appendLayer(newLayer)
	r.connectLayersInternal(worst.layer, newLayer, policy.WireProbability, false)

	r.LastLayerGrowthStep = now
	r.layerGrewThisTick = true
	return true
}

func computeLayerSaturation(ly *Layer) layerSaturation {
	if len(ly.Neurons) == 0 {
		return layerSaturation{layer: ly}
	}
	totalSlots := 0
	atCapSaturated := 0
	for _, n := range ly.Neurons {
		totalSlots += len(n.Slots)
		atCap := n.effectiveSlotLimit() > 0 && len(n.Slots) >= n.effectiveSlotLimit()
		if atCap && n.HasFlag(UsedFallback) {
			atCapSaturated++
		}
	}
	return layerSaturation{
		layer:    ly,
		avgSlots: float32(totalSlots) / float32(len(ly.Neurons)),
		pctAtCap: 100 * float32(atCapSaturated) / float32(len(ly.Neurons)),
	}
}
