// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import "github.com/chewxy/math32"

// layerSpacing/gridSpacing are the shared-across-languages constants
// for deterministicPosition's 3D placement.
const (
	layerSpacing = 4.0
	gridSpacing  = 1.2
)

type position3D struct {
	x, y, z float32
}

// deterministicPosition places neuronIndex of a layer in a fixed 3D
// grid: 2D layers use their (row, col) shape directly; every other
// layer falls back to a ceil-sqrt grid.
func deterministicPosition(layerIndex, neuronIndex, height, width int) position3D {
	if height > 0 && width > 0 {
		row := neuronIndex / width
		col := neuronIndex % width
		return position3D{
			x: (float32(col) - float32(width-1)/2.0) * gridSpacing,
			y: (float32(height-1)/2.0 - float32(row)) * gridSpacing,
			z: float32(layerIndex) * layerSpacing,
		}
	}
	gridSide := int(math32.Sqrt(float32(neuronIndex + 1)))
	if gridSide*gridSide < neuronIndex+1 {
		gridSide++
	}
	if gridSide == 0 {
		gridSide = 1
	}
	row := neuronIndex / gridSide
	col := neuronIndex % gridSide
	return position3D{
		x: (float32(col) - float32(gridSide-1)/2.0) * gridSpacing,
		y: (float32(gridSide-1)/2.0 - float32(row)) * gridSpacing,
		z: float32(layerIndex) * layerSpacing,
	}
}

func euclideanDistance(a, b position3D) float32 {
	dx, dy, dz := a.x-b.x, a.y-b.y, a.z-b.z
	return math32.Sqrt(dx*dx + dy*dy + dz*dz)
}

type cellKey struct{ x, y, z int }

// spatialHash buckets neuron identities by cell, with cell size equal
// to the proximity radius.
type spatialHash struct {
	cellSize float32
	cells    map[cellKey][]NeuronTarget
}

func newSpatialHash(cellSize float32) *spatialHash {
	return &spatialHash{cellSize: cellSize, cells: make(map[cellKey][]NeuronTarget)}
}

func (h *spatialHash) keyFor(p position3D) cellKey {
	return cellKey{
		x: int(math32.Floor(p.x / h.cellSize)),
		y: int(math32.Floor(p.y / h.cellSize)),
		z: int(math32.Floor(p.z / h.cellSize)),
	}
}

func (h *spatialHash) insert(id NeuronTarget, p position3D) {
	k := h.keyFor(p)
	h.cells[k] = append(h.cells[k], id)
}

func (h *spatialHash) near(p position3D) []NeuronTarget {
	base := h.keyFor(p)
	var out []NeuronTarget
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				k := cellKey{x: base.x + dx, y: base.y + dy, z: base.z + dz}
				out = append(out, h.cells[k]...)
			}
		}
	}
	return out
}

// ProximityEngine runs the optional spatial autowiring sidecar:
// deterministic layout, spatial hash, cooldown-gated candidates, and
// STEP/LINEAR/LOGISTIC acceptance.
type ProximityEngine struct{}

// DefaultProximityEngine is the engine instance Region.Tick* delegates to.
var DefaultProximityEngine = ProximityEngine{}

type proximityState struct {
	lastAttemptStep map[NeuronTarget]int64
}

// neverAttempted is the last-attempt sentinel for a neuron the engine
// has not scanned yet, far enough in the past that no cooldown applies.
const neverAttempted = int64(-1) << 60

func (s *proximityState) lastAttempt(id NeuronTarget) int64 {
	if step, ok := s.lastAttemptStep[id]; ok {
		return step
	}
	return neverAttempted
}

var proximityStateByRegion = make(map[*Region]*proximityState)

// Apply runs one proximity pass and returns the number of edges added.
// Disabled configs and an out-of-window current step make Apply a
// no-op; a probabilistic function with no region RNG is a
// configuration error.
func (ProximityEngine) Apply(r *Region, cfg *ProximityConfig) (int, error) {
	if cfg == nil || !cfg.Enabled || cfg.Radius <= 0 {
		return 0, nil
	}
	if len(r.Layers) == 0 {
		return 0, nil
	}
	now := r.Layers[0].Bus.CurrentStepNow()
	if now < cfg.WindowStart || now > cfg.WindowEnd {
		return 0, nil
	}
	if cfg.Function != Step && r.RNG == nil {
		return 0, badConfigf("proximity: %v function requires a seeded region RNG", cfg.Function)
	}

	state, ok := proximityStateByRegion[r]
	if !ok {
		state = &proximityState{lastAttemptStep: make(map[NeuronTarget]int64)}
		proximityStateByRegion[r] = state
	}

	candidateLayers := cfg.CandidateLayers
	if len(candidateLayers) == 0 {
		candidateLayers = make([]int, len(r.Layers))
		for i := range r.Layers {
			candidateLayers[i] = i
		}
	}

	grid := newSpatialHash(cfg.Radius)
	for _, li := range candidateLayers {
		if li < 0 || li >= len(r.Layers) {
			continue
		}
		ly := r.Layers[li]
		for ni := range ly.Neurons {
			pos := deterministicPosition(li, ni, ly.Height, ly.Width)
			grid.insert(NeuronTarget{LayerIndex: li, NeuronIndex: ni}, pos)
		}
	}

	edgesAdded := 0
	for _, li := range candidateLayers {
		if li < 0 || li >= len(r.Layers) {
			continue
		}
		ly := r.Layers[li]
		for ni := range ly.Neurons {
			self := NeuronTarget{LayerIndex: li, NeuronIndex: ni}
			if (now - state.lastAttempt(self)) < int64(cfg.CooldownTicks) {
				continue
			}
			state.lastAttemptStep[self] = now
			originPos := deterministicPosition(li, ni, ly.Height, ly.Width)
			for _, neighbor := range grid.near(originPos) {
				if neighbor == self {
					continue
				}
				if r.alreadyConnected(self, neighbor) {
					continue
				}
				nLayer := r.Layers[neighbor.LayerIndex]
				neighborPos := deterministicPosition(neighbor.LayerIndex, neighbor.NeuronIndex, nLayer.Height, nLayer.Width)
				dist := euclideanDistance(originPos, neighborPos)
				if dist > cfg.Radius {
					continue
				}
				prob := proximityProbability(dist, cfg)
				if !r.drawBernoulli(prob) {
					continue
				}
				r.connectProximityEdge(self, neighbor, cfg.RecordMeshRulesOnCrossLayer)
				state.lastAttemptStep[neighbor] = now
				edgesAdded++
				if edgesAdded >= cfg.MaxEdgesPerTick {
					return edgesAdded, nil
				}
			}
		}
	}
	return edgesAdded, nil
}

func proximityProbability(distance float32, cfg *ProximityConfig) float32 {
	switch cfg.Function {
	case Step:
		if distance <= cfg.Radius {
			return 1.0
		}
		return 0.0
	case Linear:
		unit := 1.0 - distance/math32.Max(cfg.Radius, 1e-12)
		if unit < 0 {
			unit = 0
		}
		gamma := cfg.LinearExponentGamma
		if gamma < 1e-12 {
			gamma = 1e-12
		}
		return math32.Pow(unit, gamma)
	default: // Logistic
		return 1.0 / (1.0 + math32.Exp(cfg.LogisticSteepnessK*(distance-cfg.Radius)))
	}
}

func (r *Region) drawBernoulli(p float32) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.RNG.Float64() < float64(p)
}

func (r *Region) alreadyConnected(src, dst NeuronTarget) bool {
	srcNeuron := r.Layers[src.LayerIndex].Neurons[src.NeuronIndex]
	for _, syn := range srcNeuron.Outgoing {
		if syn.Target == dst {
			return true
		}
	}
	return false
}

// connectProximityEdge adds a directed edge and, when enabled, records
// a cross-layer mesh rule so later neuron growth autowires through it.
func (r *Region) connectProximityEdge(src, dst NeuronTarget, recordMeshRule bool) {
	srcNeuron := r.Layers[src.LayerIndex].Neurons[src.NeuronIndex]
	srcNeuron.Connect(NeuronTarget{LayerIndex: dst.LayerIndex, NeuronIndex: dst.NeuronIndex}, false)
	if recordMeshRule && src.LayerIndex != dst.LayerIndex {
		r.meshRules = append(r.meshRules, meshRule{srcLayer: src.LayerIndex, dstLayer: dst.LayerIndex, probability: 1.0, feedback: false})
	}
}
