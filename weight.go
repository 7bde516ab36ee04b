// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grownet

import (
	"github.com/chewxy/math32"
)

// HitSaturation is the hit_count ceiling past which reinforce() no
// longer perturbs strength.
const HitSaturation = 10_000

// thresholdEps is the seen_first epsilon used by UpdateThreshold.
const thresholdEps = 1e-3

// threshold learning-rate constants.
const (
	thresholdBeta = 0.05 // ema_rate smoothing
	thresholdEta  = 0.01 // theta adaptation rate
	thresholdRTar = 0.1  // target firing rate
)

// SmoothClampMode selects the Hermite polynomial used inside the soft
// band of smoothClamp.
type SmoothClampMode int

const (
	// Cubic is the default: h(t) = t^2*(3-2t), C1 continuous.
	Cubic SmoothClampMode = iota
	// Quintic is h(t) = t^3*(10-15t+6t^2), C2 continuous.
	Quintic
)

// smoothClamp clamps x into [lo, hi] with a C1 (Cubic) or C2 (Quintic)
// continuous soft band near each bound instead of a hard clamp
// discontinuity. The soft band width is 10% of the range, capped at
// half the range.
func smoothClamp(x, lo, hi float32, mode SmoothClampMode) float32 {
	if lo >= hi {
		if x < lo {
			return lo
		}
		return lo
	}
	rng := hi - lo
	soft := rng * 0.10
	if soft > rng*0.5 {
		soft = rng * 0.5
	}
	lowEdge := lo + soft
	highEdge := hi - soft

	switch {
	case x <= lo:
		return lo
	case x >= hi:
		return hi
	case x < lowEdge && soft > 0:
		t := (x - lo) / soft
		return lo + soft*hermite(t, mode)
	case x > highEdge && soft > 0:
		t := (hi - x) / soft
		return hi - soft*hermite(t, mode)
	default:
		return x
	}
}

func hermite(t float32, mode SmoothClampMode) float32 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if mode == Quintic {
		return t * t * t * (10 - 15*t + 6*t*t)
	}
	return t * t * (3 - 2*t)
}

// Weight is the per-slot learning state: a bounded synaptic strength
// plus an adaptive firing threshold, both of which stop changing once
// the slot is frozen.
type Weight struct {
	Strength        float32
	HitCount        int
	Theta           float32
	EMARate         float32
	SeenFirst       bool
	LastTouchedTick int64
	frozen          bool
}

// NewWeight returns a zero-valued Weight ready for first use.
func NewWeight() *Weight {
	return &Weight{}
}

// IsFrozen reports whether the slot is currently frozen.
func (w *Weight) IsFrozen() bool { return w.frozen }

// Freeze stops Strength/Theta/EMARate/SeenFirst from changing on any
// subsequent Reinforce/UpdateThreshold call.
func (w *Weight) Freeze() { w.frozen = true }

// Unfreeze resumes normal adaptation.
func (w *Weight) Unfreeze() { w.frozen = false }

// Reinforce adds a step of 0.02*modulation to Strength, clamped
// smoothly into [-1, 1], and saturates HitCount at HitSaturation. No-op
// while frozen.
func (w *Weight) Reinforce(modulation float32) {
	if w.frozen {
		return
	}
	step := float32(0.02) * modulation
	if w.HitCount < HitSaturation {
		w.Strength = smoothClamp(w.Strength+step, -1, 1, Cubic)
		w.HitCount++
	}
}

// UpdateThreshold evaluates the fire decision for value against the
// current threshold, then (unless frozen) adapts theta toward the
// target firing rate thresholdRTar via an EMA of the fired decision.
// The first call for a never-before-seen slot seeds theta from |value|.
func (w *Weight) UpdateThreshold(value float32) bool {
	if w.frozen {
		return math32.Abs(value) > w.Theta || w.Strength > w.Theta
	}
	if !w.SeenFirst {
		w.Theta = math32.Abs(value) * (1 + thresholdEps)
		w.SeenFirst = true
	}
	fired := math32.Abs(value) > w.Theta || w.Strength > w.Theta
	firedVal := float32(0)
	if fired {
		firedVal = 1
	}
	w.EMARate = (1-thresholdBeta)*w.EMARate + thresholdBeta*firedVal
	w.Theta = w.Theta + thresholdEta*(w.EMARate-thresholdRTar)
	return fired
}
