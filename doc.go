// Copyright (c) 2024, The GrowNet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package grownet implements the core of GrowNet, an event-driven,
spiking-style neural compute engine built around three coupled
mechanisms: slotting (each neuron bins its input domain into
independently-weighted, independently-thresholded slots), structural
growth (neurons, layers, and connections are added in response to
measured pressure such as fallback usage and saturation), and lateral
buses (per-layer transient inhibition/modulation signals that gate
learning and propagation for exactly one tick).

The package exposes a Region as the top-level orchestrator: Layers of
slot-structured Neurons are connected by Tracts, driven by ticks, and
grown automatically by a GrowthController and (optionally) wired by a
ProximityEngine. The tick pipeline is single-threaded and deterministic;
optional parallelism is confined to the pal subpackage, which provides
an ordered-reduction parallel-for/map.

Sub-packages:

  - pal: deterministic parallel-for/map with ordered reductions and a
    counter-based RNG for per-site draws that don't depend on iteration
    order.
*/
package grownet
