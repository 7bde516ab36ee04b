// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

// Bus pulse magnitudes applied by Inhibitory/Modulatory neurons for
// exactly one tick.
const (
	inhibitoryPulse = 0.7
	modulatoryPulse = 1.5
)

// fire dispatches the kind-specific effect of a firing event. slot is
// the Weight that just fired, made available in case a future variant
// needs it; the five kinds specified here don't.
func (n *Neuron) fire(value float32, slot *Weight) {
	switch n.Kind {
	case Excitatory:
		n.propagate(value)
		n.invokeFireHooks(value)
	case Inhibitory:
		if n.Bus != nil {
			n.Bus.SetInhibition(inhibitoryPulse)
		}
		n.invokeFireHooks(value)
	case Modulatory:
		if n.Bus != nil {
			n.Bus.SetModulation(modulatoryPulse)
		}
		n.invokeFireHooks(value)
	case InputNeuronKind:
		// Delivery to outgoing is performed by the hosting Layer, not
		// by the input neuron itself.
		n.invokeFireHooks(value)
	case OutputNeuronKind:
		// Output neurons are sinks; on_output (not fire) stores the
		// pending amplitude, and EndTick applies the EMA.
		n.invokeFireHooks(value)
	}
}

// propagate fans out to every outgoing target, touching each synapse's
// freshness bookkeeping with the firing slot's current strength.
func (n *Neuron) propagate(value float32) {
	if len(n.Outgoing) == 0 || n.layer == nil || n.layer.region == nil {
		return
	}
	strength := n.LastFiredStrength()
	now := int64(0)
	if n.Bus != nil {
		now = n.Bus.CurrentStepNow()
	}
	for i := range n.Outgoing {
		n.Outgoing[i].LastStep = now
		n.Outgoing[i].Strength = strength
		tgt := n.Outgoing[i].Target
		n.layer.region.deliverDirect(tgt, value)
	}
}

// LastFiredStrength returns the Strength of LastSlot, or 0 if none has
// been selected yet. Used to freshen outgoing synapses on fire.
func (n *Neuron) LastFiredStrength() float32 {
	if !n.lastSlotOK {
		return 0
	}
	if slot, ok := n.Slots[n.LastSlot]; ok {
		return slot.Strength
	}
	return 0
}

func (n *Neuron) invokeFireHooks(value float32) {
	for _, hook := range n.FireHooks {
		hook(value)
	}
}

// maybeRequestNeuronGrowth implements the growth-request rule: escalate
// only when this neuron's slot map is saturated and the last selection
// used the capacity fallback, subject to two configurable guards and a
// cooldown.
func (n *Neuron) maybeRequestNeuronGrowth() {
	if n.layer == nil || !n.Cfg.GrowthEnabled || !n.Cfg.NeuronGrowthEnabled {
		return
	}
	limit := n.effectiveSlotLimit()
	atCapacity := limit > 0 && len(n.Slots) >= limit
	if !(atCapacity && n.HasFlag(UsedFallback)) {
		n.FallbackStreak = 0
		n.prevMissingSlotSet = false
		return
	}

	if n.Cfg.MinDeltaPctForGrowth > 0 && n.LastMaxAxisDeltaPct < n.Cfg.MinDeltaPctForGrowth {
		n.FallbackStreak = 0
		return
	}

	if n.Cfg.FallbackGrowthRequiresSameMissingSlot {
		if n.prevMissingSlotSet && n.PrevMissingSlotID == n.LastMissingSlotID {
			n.FallbackStreak++
		} else {
			n.FallbackStreak = 1
		}
	} else {
		n.FallbackStreak++
	}
	n.PrevMissingSlotID = n.LastMissingSlotID
	n.prevMissingSlotSet = true

	now := n.Bus.CurrentStepNow()
	if n.FallbackStreak >= n.Cfg.FallbackGrowthThreshold &&
		(now-n.LastGrowthTick) >= int64(n.Cfg.NeuronGrowthCooldownTicks) {
		n.layer.TryGrowNeuron(n)
		n.FallbackStreak = 0
		n.LastGrowthTick = now
	}
}
