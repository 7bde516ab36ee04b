// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import (
	"github.com/chewxy/math32"
)

// SlotEngine performs deterministic slot selection for a Neuron, with a
// strict capacity clamp and fallback marking. It carries
// no state of its own; all mutable bookkeeping lives on the Neuron.
type SlotEngine struct{}

// DefaultSlotEngine is the SlotEngine instance Neuron.OnInput/OnInput2D
// delegate to.
var DefaultSlotEngine = SlotEngine{}

// SelectOrCreateSlot resolves the scalar slot for input, creating it if
// capacity allows, or falling back to an existing slot under the
// capacity clamp.
func (SlotEngine) SelectOrCreateSlot(n *Neuron, input float32) *Weight {
	if !n.anchorSet {
		n.Anchor = input
		n.anchorSet = true
	}
	eps := n.Cfg.EpsilonScale
	if eps <= 0 {
		eps = 1e-6
	}
	denom := math32.Abs(n.Anchor)
	if denom < eps {
		denom = eps
	}
	deltaPct := 100 * math32.Abs(input-n.Anchor) / denom
	desiredBin := binForDelta(n, deltaPct)

	limit := n.effectiveSlotLimit()
	atCapacity := limit > 0 && len(n.Slots) >= limit
	outOfDomain := limit > 0 && desiredBin >= limit
	key := scalarSlotKey(desiredBin)
	_, exists := n.Slots[key]
	useFallback := outOfDomain || (atCapacity && !exists)

	n.setFlagTo(UsedFallback, useFallback)
	n.LastSlot = key
	if useFallback {
		n.LastMissingSlotID = desiredBin
		n.LastMaxAxisDeltaPct = deltaPct
		actual, ok := n.Slots[scalarSlotKey(limit-1)]
		if ok {
			n.LastSlot = scalarSlotKey(limit - 1)
			return actual
		}
		if fbKey, ok := n.anyExistingSlot(); ok {
			n.LastSlot = fbKey
			return n.Slots[fbKey]
		}
		// No existing slot at all: this neuron has never been given
		// one, so creating the very first slot is unavoidable.
		w := NewWeight()
		n.Slots[key] = w
		return w
	}

	w, ok := n.Slots[key]
	if !ok {
		w = NewWeight()
		n.Slots[key] = w
	}
	return w
}

// SelectOrCreateSlot2D resolves the spatial slot for (row, col), with
// the same capacity clamp semantics as SelectOrCreateSlot.
func (SlotEngine) SelectOrCreateSlot2D(n *Neuron, row, col int) *Weight {
	if n.Cfg.AnchorMode == Origin {
		// ORIGIN anchor: always (0,0); nothing to latch.
	} else if !n.anchor2DSet {
		n.AnchorRow, n.AnchorCol = row, col
		n.anchor2DSet = true
	}
	anchorRow, anchorCol := 0, 0
	if n.Cfg.AnchorMode != Origin {
		anchorRow, anchorCol = n.AnchorRow, n.AnchorCol
	}

	epsScale := n.Cfg.EpsilonScale
	if epsScale <= 0 {
		epsScale = 1e-6
	}
	epsSpatial := epsScale
	if epsSpatial < 1.0 {
		epsSpatial = 1.0
	}

	rowDenom := float32(anchorRow)
	if rowDenom < 0 {
		rowDenom = -rowDenom
	}
	if rowDenom < epsSpatial {
		rowDenom = epsSpatial
	}
	colDenom := float32(anchorCol)
	if colDenom < 0 {
		colDenom = -colDenom
	}
	if colDenom < epsSpatial {
		colDenom = epsSpatial
	}

	dpRow := 100 * math32.Abs(float32(row-anchorRow)) / rowDenom
	dpCol := 100 * math32.Abs(float32(col-anchorCol)) / colDenom

	rowWidth := n.Cfg.RowBinWidthPct
	if rowWidth <= 0 {
		rowWidth = 100.0
	}
	colWidth := n.Cfg.ColBinWidthPct
	if colWidth <= 0 {
		colWidth = 100.0
	}
	desiredRowBin := int(math32.Floor(dpRow / rowWidth))
	desiredColBin := int(math32.Floor(dpCol / colWidth))

	limit := n.effectiveSlotLimit()
	atCapacity := limit > 0 && len(n.Slots) >= limit
	outOfDomain := limit > 0 && (desiredRowBin >= limit || desiredColBin >= limit)
	key := SlotKey{Row: desiredRowBin, Col: desiredColBin}
	_, exists := n.Slots[key]
	useFallback := outOfDomain || (atCapacity && !exists)

	maxDelta := dpRow
	if dpCol > maxDelta {
		maxDelta = dpCol
	}

	n.setFlagTo(UsedFallback, useFallback)
	n.LastSlot = key
	if useFallback {
		n.LastMissingSlotID = desiredRowBin*1_000_000 + desiredColBin
		n.LastMaxAxisDeltaPct = maxDelta
		actualKey := SlotKey{Row: limit - 1, Col: limit - 1}
		if actual, ok := n.Slots[actualKey]; ok {
			n.LastSlot = actualKey
			return actual
		}
		if fbKey, ok := n.anyExistingSlot(); ok {
			n.LastSlot = fbKey
			return n.Slots[fbKey]
		}
		w := NewWeight()
		n.Slots[key] = w
		return w
	}

	w, ok := n.Slots[key]
	if !ok {
		w = NewWeight()
		n.Slots[key] = w
	}
	return w
}

// binForDelta applies the neuron's slotting policy to a percent delta.
func binForDelta(n *Neuron, deltaPct float32) int {
	switch n.Cfg.Policy {
	case Nonuniform:
		for i, edge := range n.Cfg.NonuniformEdges {
			if deltaPct <= edge {
				return i
			}
		}
		return len(n.Cfg.NonuniformEdges)
	default: // Fixed, Adaptive (reserved, treated as Fixed)
		width := n.Cfg.FixedDeltaPercent
		if width <= 0 {
			width = 10.0
		}
		return int(math32.Floor(deltaPct / width))
	}
}

// anyExistingSlot deterministically picks an existing slot to reuse
// as a fallback when the preferred last-bin slot isn't present.
// Deterministic tie-break: lexicographically smallest (Row, Col).
func (n *Neuron) anyExistingSlot() (SlotKey, bool) {
	found := false
	var best SlotKey
	for k := range n.Slots {
		if !found || k.Row < best.Row || (k.Row == best.Row && k.Col < best.Col) {
			best = k
			found = true
		}
	}
	return best, found
}
