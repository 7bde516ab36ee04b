// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import "testing"

func TestLateralBusDecaySemantics(t *testing.T) {
	b := NewLateralBus()
	b.SetInhibition(1.0)
	b.SetModulation(2.5)

	b.Decay()

	if got, want := b.InhibitionFactor, float32(0.9); got != want {
		t.Errorf("InhibitionFactor = %v, want %v", got, want)
	}
	if got := b.ModulationFactor; got != 1.0 {
		t.Errorf("ModulationFactor = %v, want 1.0 (always reset)", got)
	}
	if got := b.CurrentStep; got != 1 {
		t.Errorf("CurrentStep = %v, want 1", got)
	}
}

func TestLateralBusInhibitionNeverResetToOne(t *testing.T) {
	b := NewLateralBus()
	b.SetInhibition(0.5)
	for i := 0; i < 3; i++ {
		b.Decay()
	}
	if b.InhibitionFactor >= 0.5 {
		t.Errorf("InhibitionFactor = %v, expected monotone decay away from 0.5, never reset to 1.0", b.InhibitionFactor)
	}
}

func TestRegionBusSharesLateralBusRestState(t *testing.T) {
	rb := NewRegionBus()
	if rb.ModulationFactor != 1.0 {
		t.Errorf("RegionBus.ModulationFactor = %v, want 1.0 at rest", rb.ModulationFactor)
	}
	if rb.InhibitionDecay != DefaultInhibitionDecay {
		t.Errorf("RegionBus.InhibitionDecay = %v, want default %v", rb.InhibitionDecay, DefaultInhibitionDecay)
	}
}
