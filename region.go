// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import (
	"math/rand"
)

// Port is a named input or output edge: an optional owned edge Layer
// plus the set of layers bound to it.
type Port struct {
	EdgeLayer *Layer
	Bound     []*Layer

	is2D   bool
	isND   bool
	Height int
	Width  int
	Shape  []int
}

type meshRule struct {
	srcLayer    int
	dstLayer    int
	probability float32
	feedback    bool
}

// Region owns every Layer, Tract, and Port in a network, plus the
// single seeded RNG used for probabilistic wiring and proximity draws.
type Region struct {
	Name string

	Layers []*Layer
	Tracts []*Tract

	inputPorts  map[string]*Port
	outputPorts map[string]*Port

	Bus *RegionBus
	RNG *rand.Rand

	GrowthPolicy *GrowthPolicy

	// LastLayerGrowthStep is the bus step of the most recent layer
	// growth; -1 means the region has never grown a layer.
	LastLayerGrowthStep int64

	// layerGrewThisTick enforces the at-most-one-layer-per-tick
	// invariant across both growth paths (controller and escalation).
	layerGrewThisTick bool

	Proximity *ProximityConfig

	meshRules []meshRule
}

// NewRegion returns an empty Region with a region-wide bus and an RNG
// seeded deterministically from name's bytes.
func NewRegion(name string) *Region {
	return &Region{
		Name:                name,
		inputPorts:          make(map[string]*Port),
		outputPorts:         make(map[string]*Port),
		Bus:                 NewRegionBus(),
		RNG:                 rand.New(rand.NewSource(seedFromName(name))),
		LastLayerGrowthStep: -1,
	}
}

func seedFromName(name string) int64 {
	var h int64 = 1469598103934665603
	for _, b := range []byte(name) {
		h ^= int64(b)
		h *= 1099511628211
	}
	if h == 0 {
		h = 1
	}
	return h
}

func (r *Region) appendLayer(ly *Layer) {
	ly.region = r
	r.Layers = append(r.Layers, ly)
}

// AddLayer adds a scalar population layer.
func (r *Region) AddLayer(excitatoryCount, inhibitoryCount, modulatoryCount int, cfg SlotConfig) *Layer {
	ly := NewLayer(r, len(r.Layers), excitatoryCount, inhibitoryCount, modulatoryCount, cfg)
	r.appendLayer(ly)
	return ly
}

// AddInputLayer2D adds a 2D input edge layer.
func (r *Region) AddInputLayer2D(height, width int, gain, epsilonFire float32) *Layer {
	ly := NewInputLayer2D(r, len(r.Layers), height, width, gain, epsilonFire)
	r.appendLayer(ly)
	return ly
}

// AddOutputLayer2D adds a 2D output sink layer.
func (r *Region) AddOutputLayer2D(height, width int, smoothing float32) *Layer {
	ly := NewOutputLayer2D(r, len(r.Layers), height, width, smoothing)
	r.appendLayer(ly)
	return ly
}

// AddInputLayerND adds an N-dimensional input edge layer.
func (r *Region) AddInputLayerND(shape []int, gain, epsilonFire float32) *Layer {
	ly := NewInputLayerND(r, len(r.Layers), shape, gain, epsilonFire)
	r.appendLayer(ly)
	return ly
}

// newOutputEdgeLayer builds a single-neuron Output-kind layer used as
// the owned edge for bind_output.
func (r *Region) newOutputEdgeLayer() *Layer {
	ly := newLayerShell(r, len(r.Layers), ScalarLayer, -1)
	ly.DefaultCfg = NewSlotConfig()
	ly.addNeuron(OutputNeuronKind, ly.DefaultCfg)
	r.appendLayer(ly)
	return ly
}

// ConnectLayers fully wires src to dst with per-pair probability,
// recording each accepted pair as an outgoing Synapse on the source
// neuron. Returns the number of edges created.
func (r *Region) ConnectLayers(src, dst *Layer, probability float32, feedback bool) (int, error) {
	if src == nil || dst == nil {
		return 0, badIndexf("connect_layers: nil layer")
	}
	return r.connectLayersInternal(src, dst, probability, feedback), nil
}

func (r *Region) connectLayersInternal(src, dst *Layer, probability float32, feedback bool) int {
	edges := 0
	for _, sn := range src.Neurons {
		for dstIdx := range dst.Neurons {
			if r.acceptProbability(probability) {
				sn.Connect(NeuronTarget{LayerIndex: dst.Index, NeuronIndex: dstIdx}, feedback)
				edges++
			}
		}
	}
	r.meshRules = append(r.meshRules, meshRule{srcLayer: src.Index, dstLayer: dst.Index, probability: probability, feedback: feedback})
	return edges
}

func (r *Region) acceptProbability(p float32) bool {
	if p >= 1.0 {
		return true
	}
	if p <= 0.0 {
		return false
	}
	return r.RNG.Float64() < float64(p)
}

// ConnectLayersWindowed wires src to dst using a deterministic sliding
// window. It returns the unique
// source-subscription count, not an edge count.
func (r *Region) ConnectLayersWindowed(src, dst *Layer, kh, kw, sh, sw int, padding PaddingMode, feedback bool) (int, error) {
	if src.Height <= 0 || src.Width <= 0 {
		return 0, badShapef("connect_layers_windowed: source layer %d has no 2D shape", src.Index)
	}
	rowOrigins := windowOrigins(src.Height, kh, sh, padding)
	colOrigins := windowOrigins(src.Width, kw, sw, padding)

	allowedSources := make(map[int]bool)
	sinkMap := make(map[int]map[int]bool)

	destIsOutput2D := dst.Variant == Output2DLayer

	for _, ro := range rowOrigins {
		for _, co := range colOrigins {
			var centerR, centerC int
			if destIsOutput2D {
				centerR = clampInt(ro+kh/2, 0, dst.Height-1)
				centerC = clampInt(co+kw/2, 0, dst.Width-1)
			}
			for dr := 0; dr < kh; dr++ {
				row := ro + dr
				if row < 0 || row >= src.Height {
					continue
				}
				for dc := 0; dc < kw; dc++ {
					col := co + dc
					if col < 0 || col >= src.Width {
						continue
					}
					srcIdx := row*src.Width + col
					if destIsOutput2D {
						destIdx := centerR*dst.Width + centerC
						if sinkMap[srcIdx] == nil {
							sinkMap[srcIdx] = make(map[int]bool)
						}
						sinkMap[srcIdx][destIdx] = true
					} else {
						allowedSources[srcIdx] = true
					}
				}
			}
		}
	}

	t := &Tract{
		Source:       src,
		Dest:         dst,
		Feedback:     feedback,
		SourceHeight: src.Height,
		SourceWidth:  src.Width,
	}
	if destIsOutput2D {
		t.SinkMap = sinkMap
		for srcIdx := range sinkMap {
			t.attachSourceNeuron(srcIdx)
		}
		r.Tracts = append(r.Tracts, t)
		return len(sinkMap), nil
	}
	t.AllowedSources = allowedSources
	for srcIdx := range allowedSources {
		t.attachSourceNeuron(srcIdx)
	}
	r.Tracts = append(r.Tracts, t)
	return len(allowedSources), nil
}

func windowOrigins(dim, k, stride int, padding PaddingMode) []int {
	var origins []int
	if padding == PaddingSame {
		pad := (k - 1) / 2
		for o := -pad; o <= dim+pad-k; o += stride {
			origins = append(origins, o)
		}
	} else {
		for o := 0; o <= dim-k; o += stride {
			origins = append(origins, o)
		}
	}
	return origins
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BindInput binds port to layers. If any
// target is a 2D input edge, it becomes the port's edge and is fully
// wired to the remaining targets; otherwise a minimal scalar input
// edge is created once and wired to every target.
func (r *Region) BindInput(port string, layers []*Layer) error {
	p, ok := r.inputPorts[port]
	if !ok {
		p = &Port{}
		r.inputPorts[port] = p
	}
	p.Bound = layers

	for _, ly := range layers {
		if ly.Variant == Input2DLayer {
			p.EdgeLayer = ly
			p.is2D = true
			p.Height, p.Width = ly.Height, ly.Width
			for _, other := range layers {
				if other != ly {
					r.connectLayersInternal(ly, other, 1.0, false)
				}
			}
			return nil
		}
	}

	if p.EdgeLayer == nil {
		edge := r.AddLayer(1, 0, 0, NewSlotConfig())
		p.EdgeLayer = edge
	}
	for _, ly := range layers {
		r.connectLayersInternal(p.EdgeLayer, ly, 1.0, false)
	}
	return nil
}

// BindInput2D lazily creates/reuses a shape-matching 2D input edge for
// port and wires it to layers.
func (r *Region) BindInput2D(port string, height, width int, gain, epsilonFire float32, layers []*Layer) error {
	p, ok := r.inputPorts[port]
	if !ok || p.EdgeLayer == nil || !p.is2D || p.Height != height || p.Width != width {
		edge := r.AddInputLayer2D(height, width, gain, epsilonFire)
		p = &Port{EdgeLayer: edge, is2D: true, Height: height, Width: width}
		r.inputPorts[port] = p
	}
	p.Bound = layers
	for _, ly := range layers {
		r.connectLayersInternal(p.EdgeLayer, ly, 1.0, false)
	}
	return nil
}

// BindInputND lazily creates/reuses a shape-matching ND input edge for
// port and wires it to layers.
func (r *Region) BindInputND(port string, shape []int, gain, epsilonFire float32, layers []*Layer) error {
	p, ok := r.inputPorts[port]
	if !ok || p.EdgeLayer == nil || !p.isND || !shapeEqual(p.Shape, shape) {
		edge := r.AddInputLayerND(shape, gain, epsilonFire)
		p = &Port{EdgeLayer: edge, isND: true, Shape: append([]int(nil), shape...)}
		r.inputPorts[port] = p
	}
	p.Bound = layers
	for _, ly := range layers {
		r.connectLayersInternal(p.EdgeLayer, ly, 1.0, false)
	}
	return nil
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// BindOutput creates a single-neuron output edge for port and wires
// every bound layer into it with probability 1.
func (r *Region) BindOutput(port string, layers []*Layer) error {
	edge := r.newOutputEdgeLayer()
	p := &Port{EdgeLayer: edge, Bound: layers}
	r.outputPorts[port] = p
	for _, ly := range layers {
		r.connectLayersInternal(ly, edge, 1.0, false)
	}
	return nil
}

// PulseInhibition sets the one-tick inhibition factor on the region
// bus and every layer bus.
func (r *Region) PulseInhibition(factor float32) {
	if r.Bus != nil {
		r.Bus.SetInhibition(factor)
	}
	for _, ly := range r.Layers {
		ly.Bus.SetInhibition(factor)
	}
}

// PulseModulation sets the one-tick modulation factor on the region
// bus and every layer bus.
func (r *Region) PulseModulation(factor float32) {
	if r.Bus != nil {
		r.Bus.SetModulation(factor)
	}
	for _, ly := range r.Layers {
		ly.Bus.SetModulation(factor)
	}
}

// Tick drives a scalar port value through its edge layer and, as a
// scalar convenience, directly into every bound layer.
func (r *Region) Tick(port string, value float32) (Metrics, error) {
	p, ok := r.inputPorts[port]
	if !ok {
		return Metrics{}, missingPortf("tick: port %q was never bound", port)
	}
	r.layerGrewThisTick = false
	if p.EdgeLayer != nil {
		p.EdgeLayer.Forward(value)
	}
	for _, ly := range p.Bound {
		if ly == p.EdgeLayer {
			continue
		}
		ly.Forward(value)
	}

	if err := r.runProximity(); err != nil {
		return Metrics{}, err
	}

	delivered := 1
	if compatDeliveredCount() {
		delivered = len(p.Bound)
	}

	r.endAllTicks()

	m := r.aggregateMetrics(delivered)
	r.growthTick()
	return m, nil
}

// Tick2D drives a 2D frame through port's input edge.
func (r *Region) Tick2D(port string, frame [][]float32) (Metrics, error) {
	p, ok := r.inputPorts[port]
	if !ok {
		return Metrics{}, missingPortf("tick_2d: port %q was never bound", port)
	}
	if p.EdgeLayer == nil || !p.is2D {
		return Metrics{}, badShapef("tick_2d: port %q is not bound to a 2D input edge", port)
	}
	r.layerGrewThisTick = false
	p.EdgeLayer.ForwardImage(frame)

	if err := r.runProximity(); err != nil {
		return Metrics{}, err
	}

	delivered := 1
	if compatDeliveredCount() {
		delivered = len(p.Bound)
	}

	r.endAllTicks()

	m := r.aggregateMetrics(delivered)
	if spatialMetricsEnabled() {
		m.Spatial = computeSpatialMetrics(r.furthestOutputFrame(), frame)
	}
	r.growthTick()
	return m, nil
}

// TickND drives a flat vector through port's ND input edge, rejecting
// a shape mismatch.
func (r *Region) TickND(port string, flat []float32, shape []int) (Metrics, error) {
	p, ok := r.inputPorts[port]
	if !ok {
		return Metrics{}, missingPortf("tick_nd: port %q was never bound", port)
	}
	if p.EdgeLayer == nil || !p.isND || !shapeEqual(p.Shape, shape) {
		return Metrics{}, badShapef("tick_nd: port %q shape mismatch", port)
	}
	want := 1
	for _, d := range shape {
		want *= d
	}
	if len(flat) != want {
		return Metrics{}, badShapef("tick_nd: flat length %d does not match shape volume %d", len(flat), want)
	}
	r.layerGrewThisTick = false
	for i, v := range flat {
		if i >= len(p.EdgeLayer.Neurons) {
			break
		}
		p.EdgeLayer.Neurons[i].OnInput(v)
	}

	if err := r.runProximity(); err != nil {
		return Metrics{}, err
	}

	delivered := 1
	if compatDeliveredCount() {
		delivered = len(p.Bound)
	}

	r.endAllTicks()

	m := r.aggregateMetrics(delivered)
	r.growthTick()
	return m, nil
}

func (r *Region) endAllTicks() {
	for _, ly := range r.Layers {
		ly.EndTick()
	}
	if r.Bus != nil {
		r.Bus.Decay()
	}
}

func (r *Region) aggregateMetrics(delivered int) Metrics {
	m := Metrics{DeliveredEvents: delivered}
	for _, ly := range r.Layers {
		for _, n := range ly.Neurons {
			m.TotalSlots += len(n.Slots)
			m.TotalSynapses += len(n.Outgoing)
		}
	}
	return m
}

// furthestOutputFrame returns the Frame of the highest-indexed
// Output2DLayer, or nil if none exists.
func (r *Region) furthestOutputFrame() [][]float32 {
	for i := len(r.Layers) - 1; i >= 0; i-- {
		if r.Layers[i].Variant == Output2DLayer {
			return r.Layers[i].Frame
		}
	}
	return nil
}

func (r *Region) runProximity() error {
	if r.Proximity == nil || !r.Proximity.Enabled {
		return nil
	}
	_, err := DefaultProximityEngine.Apply(r, r.Proximity)
	return err
}

func (r *Region) growthTick() {
	if r.GrowthPolicy == nil {
		return
	}
	DefaultGrowthController.MaybeGrow(r, r.GrowthPolicy)
}

// Prune invokes prune_synapses on every neuron in the region and
// aggregates the result. Tract-level pruning
// is reserved and always contributes zero.
func (r *Region) Prune(staleWindow int64, minStrength float32) PruneSummary {
	summary := PruneSummary{}
	for _, ly := range r.Layers {
		for _, n := range ly.Neurons {
			summary.PrunedSynapses += n.PruneSynapses(staleWindow, minStrength)
		}
	}
	return summary
}

// SetGrowthPolicy installs the region-level GrowthPolicy used by
// Tick*'s end-of-tick maybe_grow check.
func (r *Region) SetGrowthPolicy(policy GrowthPolicy) {
	r.GrowthPolicy = &policy
}

// RequestLayerGrowth escalates a Layer.TryGrowNeuron capacity failure
// into a Region-level spillover layer, subject to the same
// max_total_layers guard as the automatic grower.
func (r *Region) RequestLayerGrowth(srcLayerIndex int) (int, bool) {
	if r.GrowthPolicy == nil || !r.GrowthPolicy.EnableLayerGrowth {
		return -1, false
	}
	if r.layerGrewThisTick {
		return -1, false
	}
	if r.GrowthPolicy.MaxTotalLayers >= 0 && len(r.Layers) >= r.GrowthPolicy.MaxTotalLayers {
		return -1, false
	}
	if srcLayerIndex < 0 || srcLayerIndex >= len(r.Layers) {
		return -1, false
	}
	src := r.Layers[srcLayerIndex]
	newLayer := NewLayer(r, len(r.Layers), r.GrowthPolicy.NewLayerExcitatoryCount, 0, 0, src.DefaultCfg)
	r.appendLayer(newLayer)
	r.connectLayersInternal(src, newLayer, r.GrowthPolicy.WireProbability, false)
	if len(r.Layers) > 0 {
		r.LastLayerGrowthStep = r.Layers[0].Bus.CurrentStepNow()
	}
	r.layerGrewThisTick = true
	return newLayer.Index, true
}

// autowireNewNeuron best-effort wires a freshly grown neuron into
// every recorded mesh rule and Tract touching its layer; failures are
// swallowed so a side-channel glitch never breaks the tick.
func (r *Region) autowireNewNeuron(ly *Layer, newIdx int) {
	defer func() { _ = recover() }()

	if newIdx < 0 || newIdx >= len(ly.Neurons) {
		return
	}
	newNeuron := ly.Neurons[newIdx]

	for _, rule := range r.meshRules {
		if rule.srcLayer == ly.Index {
			dst := r.Layers[rule.dstLayer]
			for dstIdx := range dst.Neurons {
				if r.acceptProbability(rule.probability) {
					newNeuron.Connect(NeuronTarget{LayerIndex: dst.Index, NeuronIndex: dstIdx}, rule.feedback)
				}
			}
		}
		if rule.dstLayer == ly.Index {
			src := r.Layers[rule.srcLayer]
			for _, srcN := range src.Neurons {
				if r.acceptProbability(rule.probability) {
					srcN.Connect(NeuronTarget{LayerIndex: ly.Index, NeuronIndex: newIdx}, rule.feedback)
				}
			}
		}
	}

	for _, t := range r.Tracts {
		if t.Source == ly {
			t.attachSourceNeuron(newIdx)
		}
	}
}

// deliverDirect resolves a NeuronTarget and feeds value into it via
// OnInput (OnOutput for an Output-kind target), the delivery primitive
// used by Neuron.propagate for ConnectLayers-style pairwise synapses.
func (r *Region) deliverDirect(target NeuronTarget, value float32) {
	if target.LayerIndex < 0 || target.LayerIndex >= len(r.Layers) {
		return
	}
	ly := r.Layers[target.LayerIndex]
	if target.NeuronIndex < 0 || target.NeuronIndex >= len(ly.Neurons) {
		return
	}
	n := ly.Neurons[target.NeuronIndex]
	if n.Kind == OutputNeuronKind {
		n.OnOutput(value)
		return
	}
	n.OnInput(value)
}
