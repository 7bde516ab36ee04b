// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import (
	"github.com/goki/ki/kit"
)

// LayerVariant distinguishes the handful of Layer shapes: a plain
// scalar population, a 2D input edge, a 2D output sink, and an ND
// input edge. As with NeuronKind, behavior differences are confined to
// a handful of dispatch points rather than a Go type per variant.
type LayerVariant int32

//go:generate stringer -type=LayerVariant

var KiT_LayerVariant = kit.Enums.AddEnum(LayerVariantN, kit.NotBitFlag, nil)

func (ev LayerVariant) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *LayerVariant) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	ScalarLayer LayerVariant = iota
	Input2DLayer
	Output2DLayer
	InputNDLayer

	LayerVariantN
)

// Layer is a population of Neurons sharing exactly one LateralBus.
// It may grow in place (add a neuron) up to NeuronLimit, or escalate
// to Region-level layer growth.
type Layer struct {
	Index   int
	Variant LayerVariant

	Neurons []*Neuron
	Bus     *LateralBus
	region  *Region

	// NeuronLimit caps in-place neuron growth; -1 means unlimited.
	NeuronLimit int

	// DefaultCfg seeds new neurons created by TryGrowNeuron.
	DefaultCfg SlotConfig

	// Height/Width are set for Input2DLayer/Output2DLayer.
	Height, Width int

	// Shape is set for InputNDLayer (row-major dims).
	Shape []int

	// Gain scales the pixel values ForwardImage delivers; Forward does not
	// apply it. EpsilonFire is stored but not read by any delivery path.
	Gain        float32
	EpsilonFire float32

	// Smoothing configures an Output2DLayer's per-neuron EMA (propagated
	// to each Output neuron's Smoothing at construction time).
	Smoothing float32

	// Frame is the most recent row-major snapshot of an Output2DLayer's
	// per-neuron OutputValue, refreshed at the end of every tick.
	Frame [][]float32
}

func newLayerShell(region *Region, index int, variant LayerVariant, neuronLimit int) *Layer {
	return &Layer{
		Index:       index,
		Variant:     variant,
		Bus:         NewLateralBus(),
		region:      region,
		NeuronLimit: neuronLimit,
	}
}

// NewLayer returns a scalar population Layer with excitatoryCount
// Excitatory, inhibitoryCount Inhibitory, and modulatoryCount
// Modulatory neurons, sharing one bus.
func NewLayer(region *Region, index, excitatoryCount, inhibitoryCount, modulatoryCount int, cfg SlotConfig) *Layer {
	ly := newLayerShell(region, index, ScalarLayer, cfg.LayerNeuronLimitDefault)
	ly.DefaultCfg = cfg
	for i := 0; i < excitatoryCount; i++ {
		ly.addNeuron(Excitatory, cfg)
	}
	for i := 0; i < inhibitoryCount; i++ {
		ly.addNeuron(Inhibitory, cfg)
	}
	for i := 0; i < modulatoryCount; i++ {
		ly.addNeuron(Modulatory, cfg)
	}
	return ly
}

// NewInputLayer2D returns an edge layer of height*width Input neurons,
// one per pixel, in row-major order.
func NewInputLayer2D(region *Region, index, height, width int, gain, epsilonFire float32) *Layer {
	cfg := NewSlotConfig()
	cfg.SpatialEnabled = true
	ly := newLayerShell(region, index, Input2DLayer, -1)
	ly.DefaultCfg = cfg
	ly.Height, ly.Width = height, width
	ly.Gain, ly.EpsilonFire = gain, epsilonFire
	for i := 0; i < height*width; i++ {
		ly.addNeuron(InputNeuronKind, cfg)
	}
	return ly
}

// NewOutputLayer2D returns an edge layer of height*width Output
// neurons, one per pixel.
func NewOutputLayer2D(region *Region, index, height, width int, smoothing float32) *Layer {
	cfg := NewSlotConfig()
	cfg.SpatialEnabled = true
	ly := newLayerShell(region, index, Output2DLayer, -1)
	ly.DefaultCfg = cfg
	ly.Height, ly.Width = height, width
	ly.Smoothing = smoothing
	for i := 0; i < height*width; i++ {
		n := ly.addNeuron(OutputNeuronKind, cfg)
		n.Smoothing = smoothing
	}
	ly.Frame = make([][]float32, height)
	for r := range ly.Frame {
		ly.Frame[r] = make([]float32, width)
	}
	return ly
}

// NewInputLayerND returns an edge layer of prod(shape) Input neurons in
// row-major flat order.
func NewInputLayerND(region *Region, index int, shape []int, gain, epsilonFire float32) *Layer {
	cfg := NewSlotConfig()
	ly := newLayerShell(region, index, InputNDLayer, -1)
	ly.DefaultCfg = cfg
	ly.Shape = append([]int(nil), shape...)
	ly.Gain, ly.EpsilonFire = gain, epsilonFire
	count := 1
	for _, d := range shape {
		count *= d
	}
	for i := 0; i < count; i++ {
		ly.addNeuron(InputNeuronKind, cfg)
	}
	return ly
}

func (ly *Layer) addNeuron(kind NeuronKind, cfg SlotConfig) *Neuron {
	n := NewNeuron(kind, len(ly.Neurons), ly.Bus, cfg, -1)
	n.layer = ly
	ly.Neurons = append(ly.Neurons, n)
	return n
}

// AtCapacity reports whether this layer has reached NeuronLimit
// (unlimited when NeuronLimit < 0).
func (ly *Layer) AtCapacity() bool {
	return ly.NeuronLimit >= 0 && len(ly.Neurons) >= ly.NeuronLimit
}

// Forward broadcasts a scalar value to every neuron's OnInput.
func (ly *Layer) Forward(value float32) {
	for _, n := range ly.Neurons {
		n.OnInput(value)
	}
}

// ForwardImage feeds a 2D frame into an Input2DLayer, scaling by Gain.
// Every in-bounds pixel is delivered; EpsilonFire is not consulted.
func (ly *Layer) ForwardImage(frame [][]float32) {
	for r, rowVals := range frame {
		if r >= ly.Height {
			break
		}
		for c, v := range rowVals {
			if c >= ly.Width {
				break
			}
			idx := r*ly.Width + c
			ly.Neurons[idx].OnInput2D(v*ly.Gain, r, c)
		}
	}
}

// PropagateFrom delivers value to every neuron in the layer via
// OnInput, used by Tract when neither a sink_map nor 2D routing
// applies.
func (ly *Layer) PropagateFrom(sourceIndex int, value float32) {
	for _, n := range ly.Neurons {
		n.OnInput(value)
	}
}

// PropagateFrom2D maps sourceIndex to (row, col) using the source's
// width and delivers the spatial event to every neuron in the layer,
// so each one slots independently on the source coordinates.
func (ly *Layer) PropagateFrom2D(sourceIndex int, value float32, height, width int) {
	row := sourceIndex / width
	col := sourceIndex % width
	for _, n := range ly.Neurons {
		if n.OnInput2D(value, row, col) {
			n.OnOutput(value)
		}
	}
}

// EndTick runs each neuron's EndTick, refreshes an Output2DLayer's
// Frame snapshot, then decays the bus.
func (ly *Layer) EndTick() {
	for _, n := range ly.Neurons {
		n.EndTick()
	}
	if ly.Variant == Output2DLayer {
		for r := 0; r < ly.Height; r++ {
			for c := 0; c < ly.Width; c++ {
				ly.Frame[r][c] = ly.Neurons[r*ly.Width+c].OutputValue
			}
		}
	}
	ly.Bus.Decay()
}

// TryGrowNeuron adds a new neuron of seed's kind to this layer, subject
// to NeuronLimit. If the limit is exceeded and seed's config allows
// layer growth, it escalates to Region-level layer growth instead and
// returns (-1, false). On success it autowires the new neuron via the
// owning Region.
func (ly *Layer) TryGrowNeuron(seed *Neuron) (int, bool) {
	if ly.AtCapacity() {
		if seed.Cfg.LayerGrowthEnabled && ly.region != nil {
			ly.region.RequestLayerGrowth(ly.Index)
		}
		return -1, false
	}
	kind := Excitatory
	if seed != nil {
		kind = seed.Kind
	}
	cfg := ly.DefaultCfg
	if seed != nil {
		cfg = seed.Cfg
	}
	n := ly.addNeuron(kind, cfg)
	if ly.region != nil {
		ly.region.autowireNewNeuron(ly, n.Index)
	}
	return n.Index, true
}
