// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import (
	"github.com/goki/ki/bitflag"
	"github.com/goki/ki/kit"
)

// SlotKey identifies a slot within a Neuron's slot map. Scalar neurons
// use Col as the bin index and leave Row at scalarRow; spatial neurons
// use both Row and Col.
type SlotKey struct {
	Row int
	Col int
}

// scalarRow is the sentinel Row used for scalar (1D) slot keys, so a
// single map can hold both scalar and spatial slots without collision.
const scalarRow = -1

func scalarSlotKey(bin int) SlotKey { return SlotKey{Row: scalarRow, Col: bin} }

// NeuronTarget is a non-owning (weak) reference to a downstream neuron,
// expressed as a stable (layer, neuron) index pair rather than a
// pointer, so outgoing edges stay trivially relocatable.
type NeuronTarget struct {
	LayerIndex  int
	NeuronIndex int
}

// Synapse is an outgoing connection from a Neuron, carrying just enough
// state (last-touched step, last-seen strength) for prune_synapses to
// make a deterministic stale/weak decision.
type Synapse struct {
	Target   NeuronTarget
	Feedback bool
	LastStep int64
	Strength float32
}

// FireHook is invoked after a neuron fires, with the value it fired
// with. Tracts subscribe fire-hooks on their source layer's neurons.
type FireHook func(value float32)

// NeuronFlags are bit-flags encoding the neuron's transient per-tick
// state.
type NeuronFlags int32

//go:generate stringer -type=NeuronFlags

var KiT_NeuronFlags = kit.Enums.AddEnum(NeuronFlagsN, kit.BitFlag, nil)

func (ev NeuronFlags) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *NeuronFlags) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// FiredLast marks that the neuron's most recent slot update fired.
	FiredLast NeuronFlags = iota

	// UsedFallback marks that the most recent slot selection used the
	// capacity-clamp fallback path.
	UsedFallback

	// PreferLastSlotOnce marks that the very next selection should
	// reuse LastSlot verbatim (set by UnfreezeLastSlot).
	PreferLastSlotOnce

	NeuronFlagsN
)

// Neuron is the shared slot/weight base for every neuron kind.
// Behavior differences between Excitatory, Inhibitory, Modulatory,
// Input, and Output neurons are confined to fire() and (for Output)
// EndTick, dispatched on Kind rather than via a separate Go type per
// kind.
type Neuron struct {
	Kind  NeuronKind
	Index int

	Bus   *LateralBus
	Cfg   SlotConfig
	layer *Layer

	// SlotLimit overrides Cfg.SlotLimit when >= 0; -1 means "use Cfg".
	SlotLimit int

	Slots    map[SlotKey]*Weight
	Outgoing []Synapse

	flags int32

	LastSlot   SlotKey
	lastSlotOK bool

	LastFrozenSlot   SlotKey
	lastFrozenSlotOK bool

	// Scalar FIRST anchor.
	anchorSet bool
	Anchor    float32

	// Spatial FIRST anchor.
	anchor2DSet bool
	AnchorRow   int
	AnchorCol   int

	FallbackStreak      int
	PrevMissingSlotID   int
	prevMissingSlotSet  bool
	LastMissingSlotID   int
	LastMaxAxisDeltaPct float32
	LastGrowthTick      int64
	LastInputValue      float32

	FireHooks []FireHook

	// Output-kind sink state.
	PendingAmplitude float32
	OutputValue      float32
	Smoothing        float32
}

// NewNeuron returns a Neuron of the given kind wired to bus, ready to
// receive input. slotLimit of -1 defers to cfg.SlotLimit.
func NewNeuron(kind NeuronKind, index int, bus *LateralBus, cfg SlotConfig, slotLimit int) *Neuron {
	return &Neuron{
		Kind:      kind,
		Index:     index,
		Bus:       bus,
		Cfg:       cfg,
		SlotLimit: slotLimit,
		Slots:     make(map[SlotKey]*Weight),
		Smoothing: 0.2,
	}
}

func (n *Neuron) HasFlag(flag NeuronFlags) bool {
	return bitflag.Has32(n.flags, int(flag))
}

func (n *Neuron) SetFlag(flag NeuronFlags) {
	bitflag.Set32(&n.flags, int(flag))
}

func (n *Neuron) ClearFlag(flag NeuronFlags) {
	bitflag.Clear32(&n.flags, int(flag))
}

func (n *Neuron) setFlagTo(flag NeuronFlags, on bool) {
	if on {
		n.SetFlag(flag)
	} else {
		n.ClearFlag(flag)
	}
}

// effectiveSlotLimit resolves neuron.slot_limit (if >= 0) or cfg.slot_limit.
func (n *Neuron) effectiveSlotLimit() int {
	if n.SlotLimit >= 0 {
		return n.SlotLimit
	}
	return n.Cfg.SlotLimit
}

// Connect appends target to this neuron's outgoing set with a fresh
// synapse (full strength, touched at the bus's current step).
func (n *Neuron) Connect(target NeuronTarget, feedback bool) {
	step := int64(0)
	if n.Bus != nil {
		step = n.Bus.CurrentStepNow()
	}
	n.Outgoing = append(n.Outgoing, Synapse{
		Target:   target,
		Feedback: feedback,
		LastStep: step,
		Strength: 1.0,
	})
}

// RegisterFireHook subscribes fn to be invoked, in insertion order,
// every time this neuron fires.
func (n *Neuron) RegisterFireHook(fn FireHook) {
	n.FireHooks = append(n.FireHooks, fn)
}

// singleSlotKind reports whether this neuron kind bypasses normal slot
// partitioning in favor of a single fixed slot 0.
func (n *Neuron) singleSlotKind() bool {
	return n.Kind == InputNeuronKind || n.Kind == OutputNeuronKind
}

func (n *Neuron) fixedSlot(key SlotKey) *Weight {
	w, ok := n.Slots[key]
	if !ok {
		w = NewWeight()
		n.Slots[key] = w
	}
	n.LastSlot = key
	n.setFlagTo(UsedFallback, false)
	return w
}

// OnInput runs the scalar per-tick slot-selection and firing state
// machine, and returns whether the neuron fired.
func (n *Neuron) OnInput(value float32) bool {
	var slot *Weight
	switch {
	case n.singleSlotKind():
		slot = n.fixedSlot(scalarSlotKey(0))
	case n.HasFlag(PreferLastSlotOnce) && n.lastSlotOK:
		slot = n.Slots[n.LastSlot]
		n.ClearFlag(PreferLastSlotOnce)
	default:
		slot = DefaultSlotEngine.SelectOrCreateSlot(n, value)
	}
	return n.settleSlot(slot, value)
}

// OnInput2D runs the spatial per-tick slot-selection and firing state
// machine, and returns whether the neuron fired.
func (n *Neuron) OnInput2D(value float32, row, col int) bool {
	var slot *Weight
	switch {
	case n.singleSlotKind():
		slot = n.fixedSlot(SlotKey{Row: 0, Col: 0})
	case n.HasFlag(PreferLastSlotOnce) && n.lastSlotOK:
		slot = n.Slots[n.LastSlot]
		n.ClearFlag(PreferLastSlotOnce)
	default:
		slot = DefaultSlotEngine.SelectOrCreateSlot2D(n, row, col)
	}
	return n.settleSlot(slot, value)
}

func (n *Neuron) settleSlot(slot *Weight, value float32) bool {
	mod := float32(1.0)
	if n.Bus != nil {
		mod = n.Bus.ModulationFactor
	}
	slot.Reinforce(mod)
	fired := slot.UpdateThreshold(value)
	if n.Bus != nil {
		slot.LastTouchedTick = n.Bus.CurrentStepNow()
	}

	n.lastSlotOK = true
	n.LastInputValue = value
	n.setFlagTo(FiredLast, fired)

	if fired {
		n.fire(value, slot)
	}
	n.maybeRequestNeuronGrowth()
	return fired
}

// OnOutput stores a pending amplitude for an Output-kind neuron; the
// EMA is applied in EndTick.
func (n *Neuron) OnOutput(amplitude float32) {
	n.PendingAmplitude = amplitude
}

// EndTick applies Output-kind EMA smoothing; other kinds have no
// per-neuron end-of-tick behavior (the Layer drives bus.Decay()
// separately).
func (n *Neuron) EndTick() {
	if n.Kind == OutputNeuronKind {
		alpha := n.Smoothing
		n.OutputValue = (1-alpha)*n.OutputValue + alpha*n.PendingAmplitude
	}
}

// FreezeLastSlot freezes the most recently selected slot, if any.
func (n *Neuron) FreezeLastSlot() {
	if !n.lastSlotOK {
		return
	}
	if slot, ok := n.Slots[n.LastSlot]; ok {
		slot.Freeze()
		n.LastFrozenSlot = n.LastSlot
		n.lastFrozenSlotOK = true
	}
}

// UnfreezeLastSlot unfreezes the last-frozen slot and arranges for the
// very next OnInput/OnInput2D call to reuse it verbatim.
func (n *Neuron) UnfreezeLastSlot() {
	if !n.lastFrozenSlotOK {
		return
	}
	if slot, ok := n.Slots[n.LastFrozenSlot]; ok {
		slot.Unfreeze()
	}
	n.LastSlot = n.LastFrozenSlot
	n.lastSlotOK = true
	n.SetFlag(PreferLastSlotOnce)
}

// NeuronValue reduces this neuron's slots to a single scalar summary.
// Modes: "readiness" is the max of strength minus threshold across
// slots, "firing_rate" is the mean ema_rate, and "memory" is the sum of
// absolute strengths. A neuron with no slots summarizes to 0.
func (n *Neuron) NeuronValue(mode string) (float32, error) {
	if len(n.Slots) == 0 {
		return 0, nil
	}
	switch mode {
	case "readiness":
		first := true
		var best float32
		for _, w := range n.Slots {
			v := w.Strength - w.Theta
			if first || v > best {
				best = v
				first = false
			}
		}
		return best, nil
	case "firing_rate":
		var sum float32
		for _, w := range n.Slots {
			sum += w.EMARate
		}
		return sum / float32(len(n.Slots)), nil
	case "memory":
		var sum float32
		for _, w := range n.Slots {
			if w.Strength < 0 {
				sum -= w.Strength
			} else {
				sum += w.Strength
			}
		}
		return sum, nil
	default:
		return 0, badConfigf("neuron_value: unknown mode %q", mode)
	}
}

// PruneSynapses removes outgoing synapses that are both stale
// ((now - LastStep) >= staleWindow) and weak (Strength < minStrength),
// returning the count removed. Any internal failure is coerced to
// zero removed rather than propagated.
func (n *Neuron) PruneSynapses(staleWindow int64, minStrength float32) (removed int) {
	defer func() {
		if recover() != nil {
			removed = 0
		}
	}()
	now := int64(0)
	if n.Bus != nil {
		now = n.Bus.CurrentStepNow()
	}
	kept := n.Outgoing[:0]
	for _, syn := range n.Outgoing {
		stale := (now - syn.LastStep) >= staleWindow
		weak := syn.Strength < minStrength
		if stale && weak {
			removed++
			continue
		}
		kept = append(kept, syn)
	}
	n.Outgoing = kept
	return removed
}
