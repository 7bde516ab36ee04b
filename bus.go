// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

// DefaultInhibitionDecay is the per-tick multiplicative decay applied to
// a bus's inhibition factor. The bus decay contract is
// load-bearing: tests and growth cooldown logic depend on this exact
// semantic, so it is never reset to 1.0.
const DefaultInhibitionDecay = 0.90

// LateralBus is the per-layer transient carrier of inhibition and
// modulation, plus the layer's monotonic tick counter.
// Every neuron in a Layer shares exactly one Bus instance.
type LateralBus struct {
	InhibitionFactor float32
	ModulationFactor float32
	CurrentStep      int64

	// InhibitionDecay is configurable rather than hardcoded; it
	// defaults to DefaultInhibitionDecay.
	InhibitionDecay float32
}

// NewLateralBus returns a bus with modulation at rest (1.0) and the
// documented inhibition decay.
func NewLateralBus() *LateralBus {
	return &LateralBus{
		ModulationFactor: 1.0,
		InhibitionDecay:  DefaultInhibitionDecay,
	}
}

// SetInhibition sets the one-tick inhibition factor (e.g. from an
// Inhibitory neuron firing, or a region-wide pulse).
func (b *LateralBus) SetInhibition(factor float32) { b.InhibitionFactor = factor }

// SetModulation sets the one-tick modulation factor.
func (b *LateralBus) SetModulation(factor float32) { b.ModulationFactor = factor }

// CurrentStepNow returns the bus's monotonic step counter.
func (b *LateralBus) CurrentStepNow() int64 { return b.CurrentStep }

// Decay applies the fixed end-of-tick bus policy: inhibition decays
// multiplicatively toward zero (never reset to 1.0), modulation always
// resets to 1.0, and the step counter advances by one.
func (b *LateralBus) Decay() {
	if b.InhibitionDecay == 0 {
		b.InhibitionDecay = DefaultInhibitionDecay
	}
	b.InhibitionFactor *= b.InhibitionDecay
	b.ModulationFactor = 1.0
	b.CurrentStep++
}

// RegionBus is a region-wide counterpart to LateralBus.
// Region.Pulse{Inhibition,Modulation} set this bus in addition to
// every layer bus.
type RegionBus struct {
	LateralBus
}

// NewRegionBus returns a region bus with the same rest state as a
// fresh LateralBus.
func NewRegionBus() *RegionBus {
	return &RegionBus{LateralBus: *NewLateralBus()}
}
