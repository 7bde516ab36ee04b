// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import "testing"

func TestSingleTickNoTract(t *testing.T) {
	r := NewRegion("t")
	l0 := r.AddLayer(1, 0, 0, NewSlotConfig())
	if err := r.BindInput("x", []*Layer{l0}); err != nil {
		t.Fatalf("BindInput: %v", err)
	}
	m, err := r.Tick("x", 0.42)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if m.DeliveredEvents != 1 {
		t.Errorf("DeliveredEvents = %v, want 1", m.DeliveredEvents)
	}
	if m.TotalSlots < 1 {
		t.Errorf("TotalSlots = %v, want >= 1", m.TotalSlots)
	}
	if m.TotalSynapses < 0 {
		t.Errorf("TotalSynapses = %v, want >= 0", m.TotalSynapses)
	}
}

func TestEdgeCountParity(t *testing.T) {
	r := NewRegion("t")
	src := r.AddLayer(2, 0, 0, NewSlotConfig())
	dst := r.AddLayer(3, 0, 0, NewSlotConfig())
	edges, err := r.ConnectLayers(src, dst, 1.0, false)
	if err != nil {
		t.Fatalf("ConnectLayers: %v", err)
	}
	if edges != 6 {
		t.Errorf("edges = %v, want 6 (2x3 full mesh)", edges)
	}
}

// ConnectLayersWindowed returns the unique source subscription count,
// not the edge count.
func TestWindowedReturnSemantics(t *testing.T) {
	r := NewRegion("t")
	lIn := r.AddInputLayer2D(4, 4, 1.0, 0.01)
	lOut := r.AddOutputLayer2D(4, 4, 0.0)
	unique, err := r.ConnectLayersWindowed(lIn, lOut, 4, 4, 1, 1, PaddingValid, false)
	if err != nil {
		t.Fatalf("ConnectLayersWindowed: %v", err)
	}
	if unique != 16 {
		t.Errorf("unique sources = %v, want 16", unique)
	}
}

// TestFrozenSlotStopsAdaptationAcrossTicks drives the freeze/unfreeze
// cycle through Region.Tick rather than Neuron.OnInput directly.
func TestFrozenSlotStopsAdaptationAcrossTicks(t *testing.T) {
	r := NewRegion("t")
	l0 := r.AddLayer(1, 0, 0, NewSlotConfig())
	if err := r.BindInput("x", []*Layer{l0}); err != nil {
		t.Fatalf("BindInput: %v", err)
	}
	n := l0.Neurons[0]

	if _, err := r.Tick("x", 0.6); err != nil { // anchor <- 0.6, bin 0
		t.Fatalf("Tick: %v", err)
	}
	n.FreezeLastSlot()
	frozenKey := n.LastSlot
	strengthBefore := n.Slots[frozenKey].Strength

	if _, err := r.Tick("x", 0.62); err != nil { // delta% ~ 3.3, still bin 0
		t.Fatalf("Tick: %v", err)
	}
	if n.Slots[frozenKey].Strength != strengthBefore {
		t.Errorf("Strength changed from %v to %v while frozen", strengthBefore, n.Slots[frozenKey].Strength)
	}

	n.UnfreezeLastSlot()
	if _, err := r.Tick("x", 0.8); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if n.Slots[frozenKey].Strength <= strengthBefore {
		t.Errorf("Strength = %v, want strictly greater than %v after unfreeze", n.Slots[frozenKey].Strength, strengthBefore)
	}
}

func TestPulseInhibitionSetsRegionAndLayerBuses(t *testing.T) {
	r := NewRegion("t")
	l0 := r.AddLayer(1, 0, 0, NewSlotConfig())
	l1 := r.AddLayer(1, 0, 0, NewSlotConfig())
	r.PulseInhibition(0.3)
	if r.Bus.InhibitionFactor != 0.3 {
		t.Errorf("region bus inhibition = %v, want 0.3", r.Bus.InhibitionFactor)
	}
	if l0.Bus.InhibitionFactor != 0.3 || l1.Bus.InhibitionFactor != 0.3 {
		t.Errorf("layer buses did not receive the pulse")
	}
}

func TestConnectLayersWindowedRejectsNon2DSource(t *testing.T) {
	r := NewRegion("t")
	src := r.AddLayer(4, 0, 0, NewSlotConfig())
	dst := r.AddOutputLayer2D(2, 2, 0.0)
	if _, err := r.ConnectLayersWindowed(src, dst, 2, 2, 1, 1, PaddingValid, false); err == nil {
		t.Fatalf("ConnectLayersWindowed on a non-2D source unexpectedly succeeded")
	}
}

func TestTickRejectsMissingPort(t *testing.T) {
	r := NewRegion("t")
	if _, err := r.Tick("never-bound", 1.0); err == nil {
		t.Fatalf("Tick on an unbound port unexpectedly succeeded")
	}
}

func TestTickNDRejectsShapeMismatch(t *testing.T) {
	r := NewRegion("t")
	ly := r.AddInputLayerND([]int{2, 2}, 1.0, 0.01)
	if err := r.BindInputND("flat", []int{2, 2}, 1.0, 0.01, []*Layer{ly}); err != nil {
		t.Fatalf("BindInputND: %v", err)
	}
	if _, err := r.TickND("flat", []float32{1, 2, 3}, []int{3}); err == nil {
		t.Fatalf("TickND with mismatched shape unexpectedly succeeded")
	}
}

func TestPruneRemovesStaleWeakSynapsesOnly(t *testing.T) {
	r := NewRegion("t")
	src := r.AddLayer(1, 0, 0, NewSlotConfig())
	dst := r.AddLayer(1, 0, 0, NewSlotConfig())
	if _, err := r.ConnectLayers(src, dst, 1.0, false); err != nil {
		t.Fatalf("ConnectLayers: %v", err)
	}
	src.Neurons[0].Outgoing[0].Strength = 0.0
	src.Neurons[0].Outgoing[0].LastStep = -1000

	summary := r.Prune(1, 0.5)
	if summary.PrunedSynapses != 1 {
		t.Errorf("PrunedSynapses = %v, want 1", summary.PrunedSynapses)
	}
	if len(src.Neurons[0].Outgoing) != 0 {
		t.Errorf("len(Outgoing) = %v, want 0", len(src.Neurons[0].Outgoing))
	}
}
