// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

// Tract is a non-owning edge between two Layers: it subscribes a
// fire-hook on every source neuron and, on each fire, routes the value
// to the destination layer. Growth on the source layer
// is handled by attachSourceNeuron so a Tract stays correct across
// structural growth.
type Tract struct {
	Source *Layer
	Dest   *Layer

	Feedback bool

	// AllowedSources restricts which source neuron indices this tract
	// reacts to; nil means every source neuron is wired.
	AllowedSources map[int]bool

	// SinkMap routes a specific source index to a specific set of
	// destination neuron indices, bypassing PropagateFrom/PropagateFrom2D
	// entirely for that source.
	SinkMap map[int]map[int]bool

	// SourceHeight/SourceWidth capture the source layer's 2D shape at
	// construction time, used by Layer.PropagateFrom2D's row/col mapping even
	// if the source is later grown.
	SourceHeight, SourceWidth int
}

// NewTract wires a fire-hook on every current neuron of source and
// returns the Tract. Use attachSourceNeuron to extend coverage as
// source grows.
func NewTract(source, dest *Layer, feedback bool, allowedSources map[int]bool) *Tract {
	t := &Tract{
		Source:         source,
		Dest:           dest,
		Feedback:       feedback,
		AllowedSources: allowedSources,
		SourceHeight:   source.Height,
		SourceWidth:    source.Width,
	}
	for _, n := range source.Neurons {
		t.attachSourceNeuron(n.Index)
	}
	return t
}

// attachSourceNeuron subscribes a fire-hook on source neuron newIndex,
// used both at construction time and whenever the source layer grows a
// new neuron.
func (t *Tract) attachSourceNeuron(newIndex int) {
	if t.AllowedSources != nil && !t.AllowedSources[newIndex] {
		return
	}
	if newIndex < 0 || newIndex >= len(t.Source.Neurons) {
		return
	}
	n := t.Source.Neurons[newIndex]
	n.RegisterFireHook(func(value float32) {
		t.onSourceFire(newIndex, value)
	})
}

func (t *Tract) onSourceFire(sourceIndex int, value float32) {
	if sinks, ok := t.SinkMap[sourceIndex]; ok {
		for destIndex := range sinks {
			if destIndex >= 0 && destIndex < len(t.Dest.Neurons) {
				dst := t.Dest.Neurons[destIndex]
				if dst.OnInput(value) {
					dst.OnOutput(value)
				}
			}
		}
		return
	}
	if t.SourceWidth > 0 {
		t.Dest.PropagateFrom2D(sourceIndex, value, t.SourceHeight, t.SourceWidth)
		return
	}
	t.Dest.PropagateFrom(sourceIndex, value)
}
