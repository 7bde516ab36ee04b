// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import (
	"github.com/goki/ki/kit"
)

// SlotPolicy selects how a neuron partitions its input domain into bins.
type SlotPolicy int32

//go:generate stringer -type=SlotPolicy

var KiT_SlotPolicy = kit.Enums.AddEnum(SlotPolicyN, kit.NotBitFlag, nil)

func (ev SlotPolicy) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *SlotPolicy) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Fixed uses a constant bin width (FixedDeltaPercent) for every bin.
	Fixed SlotPolicy = iota

	// Nonuniform uses ascending percent edges (NonuniformEdges); a delta
	// falls in the first bin whose edge is >= delta.
	Nonuniform

	// Adaptive is reserved; the core treats it identically to Fixed.
	Adaptive

	SlotPolicyN
)

// AnchorMode selects how a neuron's scalar or spatial anchor is chosen.
type AnchorMode int32

//go:generate stringer -type=AnchorMode

var KiT_AnchorMode = kit.Enums.AddEnum(AnchorModeN, kit.NotBitFlag, nil)

func (ev AnchorMode) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *AnchorMode) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// First anchors on the first observed input (scalar) or (row,col) pair (2D).
	First AnchorMode = iota

	// Ema is reserved; the core stubs it to behave as First.
	Ema

	// Window is reserved; the core stubs it to behave as First.
	Window

	// Last is reserved; the core stubs it to behave as First.
	Last

	// Origin anchors 2D binning at (0,0) unconditionally.
	Origin

	AnchorModeN
)

// PaddingMode selects the window-origin rule for connect_layers_windowed.
type PaddingMode int32

//go:generate stringer -type=PaddingMode

var KiT_PaddingMode = kit.Enums.AddEnum(PaddingModeN, kit.NotBitFlag, nil)

func (ev PaddingMode) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *PaddingMode) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// PaddingValid restricts window origins to [0, H-k] (no padding).
	PaddingValid PaddingMode = iota

	// PaddingSame pads each axis by floor((k-1)/2) so the output grid
	// matches the input grid.
	PaddingSame

	PaddingModeN
)

func (p PaddingMode) String() string {
	if p == PaddingSame {
		return "same"
	}
	return "valid"
}

// ParsePaddingMode parses the "valid"/"same" strings used at the
// external API boundary.
func ParsePaddingMode(s string) (PaddingMode, error) {
	switch s {
	case "valid", "":
		return PaddingValid, nil
	case "same":
		return PaddingSame, nil
	default:
		return PaddingValid, badConfigf("connect_layers_windowed: unknown padding %q", s)
	}
}

// ProximityFunction selects the edge-acceptance curve for ProximityEngine.
type ProximityFunction int32

//go:generate stringer -type=ProximityFunction

var KiT_ProximityFunction = kit.Enums.AddEnum(ProximityFunctionN, kit.NotBitFlag, nil)

func (ev ProximityFunction) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *ProximityFunction) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Step accepts deterministically (probability 1) inside the radius.
	Step ProximityFunction = iota

	// Linear accepts with probability (1 - d/r)^gamma.
	Linear

	// Logistic accepts with probability 1/(1+exp(k*(d-r))).
	Logistic

	ProximityFunctionN
)

// NeuronKind distinguishes the fire()/end_tick() behavior of a neuron.
type NeuronKind int32

//go:generate stringer -type=NeuronKind

var KiT_NeuronKind = kit.Enums.AddEnum(NeuronKindN, kit.NotBitFlag, nil)

func (ev NeuronKind) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *NeuronKind) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	Excitatory NeuronKind = iota
	Inhibitory
	Modulatory
	InputNeuronKind
	OutputNeuronKind

	NeuronKindN
)

// SlotConfig controls slot selection, growth guards, and capacity for a
// Neuron's SlotEngine.
type SlotConfig struct {

	// Policy selects fixed-width, nonuniform, or adaptive (stubbed to fixed) binning.
	Policy SlotPolicy

	// FixedDeltaPercent is the bin width used by Fixed, in percent. Default 10.0.
	FixedDeltaPercent float32

	// NonuniformEdges are ascending percent edges used by Nonuniform.
	NonuniformEdges []float32

	// AnchorMode selects First or Origin (others are stubbed to First).
	AnchorMode AnchorMode

	// BinWidthPct is an alias width used by some anchor/binning paths. Default 10.0.
	BinWidthPct float32

	// EpsilonScale floors the anchor magnitude used as a percent-delta denominator. Default 1e-6.
	EpsilonScale float32

	// RecenterThresholdPct is reserved for EMA/WINDOW anchor recentering. Default 35.0.
	RecenterThresholdPct float32

	// RecenterLockTicks is reserved for EMA/WINDOW anchor recentering. Default 20.
	RecenterLockTicks int

	// AnchorBeta is reserved for EMA anchor smoothing. Default 0.05.
	AnchorBeta float32

	// OutlierGrowthThresholdPct is reserved for outlier-triggered growth. Default 60.0.
	OutlierGrowthThresholdPct float32

	// SlotLimit caps the number of slots a neuron may hold; -1 means unlimited. Default 16.
	SlotLimit int

	// SpatialEnabled switches a neuron's SlotEngine calls to the 2D path.
	SpatialEnabled bool

	// RowBinWidthPct / ColBinWidthPct are the 2D per-axis bin widths, in percent. Default 100.0 each.
	RowBinWidthPct float32
	ColBinWidthPct float32

	// GrowthEnabled is the master growth toggle for this neuron's slots/neurons.
	GrowthEnabled bool

	// NeuronGrowthEnabled allows this neuron to request a sibling neuron from its Layer.
	NeuronGrowthEnabled bool

	// LayerGrowthEnabled allows a neuron's growth request, once denied locally, to
	// escalate all the way to Region-level layer growth.
	LayerGrowthEnabled bool

	// FallbackGrowthThreshold is the consecutive-fallback streak required before a
	// neuron requests growth. Default 3.
	FallbackGrowthThreshold int

	// NeuronGrowthCooldownTicks is the minimum number of bus ticks between two
	// successive growth requests from the same neuron. Default 0.
	NeuronGrowthCooldownTicks int

	// MinDeltaPctForGrowth requires last_max_axis_delta_pct to reach this value
	// before a fallback streak may increment. Default 0.0.
	MinDeltaPctForGrowth float32

	// FallbackGrowthRequiresSameMissingSlot requires two consecutive fallback
	// selections to target the same missing slot id before the streak increments.
	FallbackGrowthRequiresSameMissingSlot bool

	// LayerNeuronLimitDefault is the neuron_limit used by a Layer when a neuron
	// does not specify one explicitly; -1 means unlimited. Default -1.
	LayerNeuronLimitDefault int
}

// Defaults fills in the documented default values.
func (sc *SlotConfig) Defaults() {
	sc.Policy = Fixed
	sc.FixedDeltaPercent = 10.0
	sc.AnchorMode = First
	sc.BinWidthPct = 10.0
	sc.EpsilonScale = 1e-6
	sc.RecenterThresholdPct = 35.0
	sc.RecenterLockTicks = 20
	sc.AnchorBeta = 0.05
	sc.OutlierGrowthThresholdPct = 60.0
	sc.SlotLimit = 16
	sc.SpatialEnabled = false
	sc.RowBinWidthPct = 100.0
	sc.ColBinWidthPct = 100.0
	sc.GrowthEnabled = true
	sc.NeuronGrowthEnabled = true
	sc.LayerGrowthEnabled = false
	sc.FallbackGrowthThreshold = 3
	sc.NeuronGrowthCooldownTicks = 0
	sc.MinDeltaPctForGrowth = 0.0
	sc.FallbackGrowthRequiresSameMissingSlot = false
	sc.LayerNeuronLimitDefault = -1
}

// NewSlotConfig returns a SlotConfig initialized to its documented defaults.
func NewSlotConfig() SlotConfig {
	var sc SlotConfig
	sc.Defaults()
	return sc
}

// GrowthPolicy controls GrowthController's region-level spillover layer
// policy.
type GrowthPolicy struct {
	EnableLayerGrowth            bool
	MaxTotalLayers               int
	AvgSlotsThreshold            float32
	PercentNeuronsAtCapThreshold float32
	LayerCooldownTicks           int
	NewLayerExcitatoryCount      int
	WireProbability              float32
}

// Defaults fills in the documented default values.
func (gp *GrowthPolicy) Defaults() {
	gp.EnableLayerGrowth = true
	gp.MaxTotalLayers = -1
	gp.AvgSlotsThreshold = 8.0
	gp.PercentNeuronsAtCapThreshold = 50.0
	gp.LayerCooldownTicks = 25
	gp.NewLayerExcitatoryCount = 4
	gp.WireProbability = 1.0
}

// NewGrowthPolicy returns a GrowthPolicy initialized to its documented defaults.
func NewGrowthPolicy() GrowthPolicy {
	var gp GrowthPolicy
	gp.Defaults()
	return gp
}

// ProximityConfig controls the optional ProximityEngine sidecar.
type ProximityConfig struct {
	Enabled bool

	Radius float32

	Function ProximityFunction

	LinearExponentGamma float32
	LogisticSteepnessK  float32

	MaxEdgesPerTick int
	CooldownTicks   int

	WindowStart int64
	WindowEnd   int64

	StabilizationHits int
	DecayIfUnused     bool
	DecayHalfLifeTicks int

	// CandidateLayers restricts proximity wiring to these layer indices;
	// empty means all layers are candidates.
	CandidateLayers []int

	RecordMeshRulesOnCrossLayer bool
}

// Defaults fills in the documented default values.
func (pc *ProximityConfig) Defaults() {
	pc.Enabled = false
	pc.Radius = 1.0
	pc.Function = Step
	pc.LinearExponentGamma = 1.0
	pc.LogisticSteepnessK = 4.0
	pc.MaxEdgesPerTick = 128
	pc.CooldownTicks = 5
	pc.WindowStart = 0
	pc.WindowEnd = int64(^uint64(0) >> 1)
	pc.StabilizationHits = 3
	pc.DecayIfUnused = true
	pc.DecayHalfLifeTicks = 200
	pc.CandidateLayers = nil
	pc.RecordMeshRulesOnCrossLayer = true
}

// NewProximityConfig returns a ProximityConfig initialized to its
// documented defaults.
func NewProximityConfig() ProximityConfig {
	var pc ProximityConfig
	pc.Defaults()
	return pc
}
